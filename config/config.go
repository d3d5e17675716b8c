package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
)

// SFTPSecrets holds the paths of the secret files with the upload credentials.
type SFTPSecrets struct {
	HostFile     string
	UserFile     string
	PasswordFile string

	// KnownHostsFile is optional; without it host keys are not verified.
	KnownHostsFile string
}

// SMTPSecrets holds the paths of the secret files used for alert mails.
type SMTPSecrets struct {
	HostFile     string
	UserFile     string
	PasswordFile string
	MessageFile  string
}

// AlertConfig controls when and to whom a price drop alert is mailed.
type AlertConfig struct {
	Limit      float64
	Sender     string
	Recipients []string
	Subject    string
}

// Config holds every setting of a scrape run and of the serve mode.
type Config struct {
	DryRun bool

	DatabaseURL string

	SitesFile      string
	ChromeBin      string
	BrowserTimeout time.Duration
	HTTPTimeout    time.Duration

	SpreadsheetPath   string
	HTMLPath          string
	RemoteSpreadsheet string
	RemoteHTML        string
	ReportTitle       string

	SFTP  SFTPSecrets
	SMTP  SMTPSecrets
	Alert AlertConfig

	Schedule       string
	Host           string
	Port           string
	AllowedOrigins []string
	RateLimit      float64
}

// Load reads an optional .env file and builds the configuration from the
// environment and the mounted secrets.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	origins := EnvList("ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	recipients := EnvList("ALERTRECIPIENTS")

	return &Config{
		DryRun: EnvSet("DRYRUN"),

		DatabaseURL: databaseURL(),

		SitesFile:      Env("SITES_FILE", ""),
		ChromeBin:      Env("CHROME_BIN", ""),
		BrowserTimeout: envDuration("BROWSER_TIMEOUT", 30*time.Second),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 30*time.Second),

		SpreadsheetPath:   Env("SPREADSHEET_FILE", "/tmp/coffeescraper.xlsx"),
		HTMLPath:          Env("HTML_FILE", "/tmp/coffeescraper.html"),
		RemoteSpreadsheet: Env("EXCELREPORT", "/coffeescraper.xlsx"),
		RemoteHTML:        Env("HTMLREPORT", "/coffeescraper.html"),
		ReportTitle:       Env("REPORT_TITLE", "Prijzen Dolce Gusto Lungo XL (30 cups)"),

		SFTP: SFTPSecrets{
			HostFile:       Env("SFTP_HOST_FILE", "/run/secrets/sftp_host"),
			UserFile:       Env("SFTP_USER_FILE", "/run/secrets/sftp_user"),
			PasswordFile:   Env("SFTP_PASSWORD_FILE", "/run/secrets/sftp_password"),
			KnownHostsFile: Env("SFTP_KNOWN_HOSTS", ""),
		},
		SMTP: SMTPSecrets{
			HostFile:     Env("SMTP_HOST_FILE", "/run/secrets/smtp_host"),
			UserFile:     Env("SMTP_USER_FILE", "/run/secrets/smtp_user"),
			PasswordFile: Env("SMTP_PASSWORD_FILE", "/run/secrets/smtp_password"),
			MessageFile:  Env("SMTP_MESSAGE_FILE", "/run/secrets/smtp_message"),
		},
		Alert: AlertConfig{
			Limit:      envFloat("ALERTLIMIT", 0.50),
			Sender:     Env("ALERTSENDER", ""),
			Recipients: recipients,
			Subject:    Env("ALERTSUBJECT", "Coffee Alert"),
		},

		Schedule:       Env("SCHEDULE", "0 0 7 * * *"),
		Host:           Env("HOST", "0.0.0.0"),
		Port:           Env("PORT", "8080"),
		AllowedOrigins: origins,
		RateLimit:      envFloat("RATE_LIMIT", 5),
	}
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN for the
// compose "db" service, reading the password from its docker secret.
func databaseURL() string {
	if dsn := Env("DATABASE_URL", ""); dsn != "" {
		return dsn
	}

	password, ok := Secret(Env("POSTGRES_PASSWORD_FILE", "/run/secrets/postgres-password"))
	if !ok {
		// dev container default
		password = "postgres"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(Env("PGUSER", "postgres"), password),
		Host:   fmt.Sprintf("%s:%d", Env("PGHOST", "db"), envInt("PGPORT", 5432)),
		Path:   "/" + Env("PGDATABASE", "postgres"),
	}
	q := u.Query()
	q.Set("sslmode", Env("PGSSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}
