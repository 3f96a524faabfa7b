package feed

import (
	"time"
)

// Entry is a single article reference produced by parsing a syndication feed.
type Entry struct {
	Title       string
	Link        string
	Author      string
	PublishedAt time.Time
}

// Source configuration types

type Source struct {
	Category    string         `yaml:"category"`
	Description string         `yaml:"description"`
	URL         string         `yaml:"url"`
	Settings    SourceSettings `yaml:"settings"`
}

type SourceSettings struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
	Timeout    int  `yaml:"timeout"` // seconds
}
