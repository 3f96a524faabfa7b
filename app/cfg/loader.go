package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./newsgenie.db" description:"Path to the SQLite database file"`
	MediaDir   string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for generated media files (audio summaries)"`
	MediaURL   string `long:"media-url" env:"MEDIA_URL" default:"/media" description:"URL prefix under which media files are served"`
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing news source configuration files"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for ingestion"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Interval between ingestion rounds in seconds"`
	EntryLimit        int    `long:"entry-limit" env:"ENTRY_LIMIT" default:"7" description:"Maximum feed entries processed per source per round"`
	ExtractTimeout    int    `long:"extract-timeout" env:"EXTRACT_TIMEOUT" default:"10" description:"Article download timeout in seconds"`
	PolitenessDelay   int    `long:"politeness-delay" env:"POLITENESS_DELAY" default:"2" description:"Pause between processed entries in seconds"`

	// Summarization configuration
	SummaryRetries    int    `long:"summary-retries" env:"SUMMARY_RETRIES" default:"3" description:"Retries after a rate-limited summarization attempt"`
	SummaryBackoff    int    `long:"summary-backoff" env:"SUMMARY_BACKOFF" default:"15" description:"Base backoff in seconds, multiplied by attempt number"`
	SummaryRatePerMin int    `long:"summary-rate" env:"SUMMARY_RATE" default:"10" description:"Maximum summarization requests per minute"`
	GeminiAPIKey      string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Google Gemini API key"`
	GeminiModel       string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash-latest" description:"Gemini model used for summaries"`
	CohereAPIKey      string `long:"cohere-api-key" env:"COHERE_API_KEY" description:"Cohere API key (used when no Gemini key is set)"`
	CohereModel       string `long:"cohere-model" env:"COHERE_MODEL" default:"command-r" description:"Cohere model used for summaries"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		MediaDir:          raw.MediaDir,
		MediaURL:          raw.MediaURL,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		EntryLimit:        raw.EntryLimit,
		ExtractTimeout:    raw.ExtractTimeout,
		PolitenessDelay:   raw.PolitenessDelay,
		SummaryRetries:    raw.SummaryRetries,
		SummaryBackoff:    raw.SummaryBackoff,
		SummaryRatePerMin: raw.SummaryRatePerMin,
		GeminiAPIKey:      raw.GeminiAPIKey,
		GeminiModel:       raw.GeminiModel,
		CohereAPIKey:      raw.CohereAPIKey,
		CohereModel:       raw.CohereModel,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
