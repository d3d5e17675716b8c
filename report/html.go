package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"coffeescraper/models"
)

//go:embed templates
var templatesFs embed.FS

var colors = []string{"#ff0000", "#00ff00", "#0000ff", "#aaaa00", "#00aaaa", "#aa00aa"}

// Point is one (time, price) sample of a chart line.
type Point struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Dataset is a Chart.js line: the price history of one site.
type Dataset struct {
	Label           string  `json:"label"`
	Data            []Point `json:"data"`
	BorderColor     string  `json:"borderColor"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderWidth     int     `json:"borderWidth"`
}

// GraphContext is everything the chart page renders.
type GraphContext struct {
	Title       string
	Sites       []string
	Datasets    []Dataset
	Labels      []time.Time
	Cheapest    *models.Observation
	GeneratedAt time.Time
}

// BuildGraph groups records per URL in order of first appearance and
// collects the sorted distinct timestamps used as x labels.
func BuildGraph(title string, records []models.PriceRecord, cheapest *models.Observation) GraphContext {
	c := GraphContext{
		Title:       title,
		Cheapest:    cheapest,
		GeneratedAt: time.Now(),
	}

	index := make(map[string]int)
	seen := make(map[time.Time]bool)
	for _, r := range records {
		i, ok := index[r.URL]
		if !ok {
			i = len(c.Datasets)
			index[r.URL] = i
			c.Sites = append(c.Sites, r.URL)
			c.Datasets = append(c.Datasets, Dataset{
				Label:           r.URL,
				BorderColor:     colors[i%len(colors)],
				BackgroundColor: "rgba(0, 0, 0, 0)",
				BorderWidth:     2,
			})
		}
		c.Datasets[i].Data = append(c.Datasets[i].Data, Point{X: r.Timestamp, Y: r.Price})

		if !seen[r.Timestamp] {
			seen[r.Timestamp] = true
			c.Labels = append(c.Labels, r.Timestamp)
		}
	}
	sort.Slice(c.Labels, func(a, b int) bool { return c.Labels[a].Before(c.Labels[b]) })

	return c
}

// reportLocation is the zone the shops and readers are in. The zone data is
// embedded, so minimal images without zoneinfo still resolve it.
var reportLocation = mustLoadLocation("Europe/Amsterdam")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

func (c GraphContext) FormattedGeneratedAt() string {
	return c.GeneratedAt.In(reportLocation).Format("2006-01-02 15:04 MST")
}

// RenderGraph writes the chart page to w.
func RenderGraph(w io.Writer, c GraphContext) error {
	t, err := template.ParseFS(templatesFs, "templates/graph.html.tpl")
	if err != nil {
		return err
	}

	return t.Execute(w, c)
}

// WriteGraph renders the chart page into the file at path.
func WriteGraph(path string, c GraphContext) error {
	var buf bytes.Buffer
	if err := RenderGraph(&buf, c); err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	slog.Info("html graph saved", "path", path, "sites", len(c.Sites))
	return nil
}
