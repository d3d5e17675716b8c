package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coffeescraper/models"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testRecords = []models.PriceRecord{
	{ID: 1, URL: "https://url1.example", Price: 7.21, Timestamp: time.Date(2021, 8, 8, 9, 0, 0, 0, time.UTC)},
	{ID: 2, URL: "https://url2.example", Price: 7.31, Timestamp: time.Date(2021, 8, 8, 9, 0, 0, 0, time.UTC)},
	{ID: 3, URL: "https://url1.example", Price: 6.99, Timestamp: time.Date(2021, 8, 9, 9, 0, 0, 0, time.UTC)},
	{ID: 4, URL: "https://url2.example", Price: 7.35, Timestamp: time.Date(2021, 8, 7, 9, 0, 0, 0, time.UTC)},
}

func TestWriteSpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spreadsheet.xlsx")
	require.NoError(t, WriteSpreadsheet(path, testRecords))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	require.Len(t, rows, len(testRecords)+1)
	require.Equal(t, []string{"id", "url", "price", "timestamp"}, rows[0])
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "https://url1.example", rows[1][1])
	require.Equal(t, "7.21", rows[1][2])
}

func TestWriteSpreadsheetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spreadsheet.xlsx")
	require.NoError(t, WriteSpreadsheet(path, nil))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestBuildGraph(t *testing.T) {
	c := BuildGraph("Prijzen", testRecords, nil)

	require.Equal(t, []string{"https://url1.example", "https://url2.example"}, c.Sites)
	require.Len(t, c.Datasets, 2)
	require.Len(t, c.Datasets[0].Data, 2)
	require.Equal(t, colors[0], c.Datasets[0].BorderColor)
	require.Equal(t, colors[1], c.Datasets[1].BorderColor)

	require.Len(t, c.Labels, 3)
	for i := 1; i < len(c.Labels); i++ {
		require.True(t, c.Labels[i-1].Before(c.Labels[i]))
	}
}

func TestBuildGraphColorsCycle(t *testing.T) {
	var records []models.PriceRecord
	for i := 0; i < len(colors)+1; i++ {
		records = append(records, models.PriceRecord{ID: i + 1, URL: strings.Repeat("x", i+1), Price: 1})
	}

	c := BuildGraph("", records, nil)
	require.Len(t, c.Datasets, len(colors)+1)
	require.Equal(t, c.Datasets[0].BorderColor, c.Datasets[len(colors)].BorderColor)
}

func TestRenderGraph(t *testing.T) {
	cheapest := &models.Observation{URL: "https://url1.example", Price: 6.99}
	var buf bytes.Buffer
	require.NoError(t, RenderGraph(&buf, BuildGraph("Prijzen Dolce Gusto", testRecords, cheapest)))

	page := buf.String()
	require.Contains(t, page, "<title>Prijzen Dolce Gusto</title>")
	require.Contains(t, page, `<a href="https://url2.example">https://url2.example</a>`)
	require.Contains(t, page, "&euro; 6.99")
	require.Contains(t, page, `"borderColor":"#ff0000"`)
	require.Contains(t, page, `"2021-08-07T09:00:00Z"`)
}

func TestWriteGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.html")
	require.NoError(t, WriteGraph(path, BuildGraph("t", testRecords, nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "Laagste prijs")
}

func TestFormattedGeneratedAt(t *testing.T) {
	summer := GraphContext{GeneratedAt: time.Date(2021, 8, 7, 9, 0, 0, 0, time.UTC)}
	require.Equal(t, "2021-08-07 11:00 CEST", summer.FormattedGeneratedAt())

	winter := GraphContext{GeneratedAt: time.Date(2021, 1, 7, 9, 0, 0, 0, time.UTC)}
	require.Equal(t, "2021-01-07 10:00 CET", winter.FormattedGeneratedAt())
}
