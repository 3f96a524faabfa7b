package database

import (
	"math"
	"strings"
	"time"
)

const wordsPerMinute = 225

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary"`
	Approved    bool      `json:"approved"`
	AudioPath   string    `json:"audio_path"`
	ReadingTime int       `json:"reading_time"`
	CreatedAt   time.Time `json:"created_at"`
	Categories  []string  `json:"categories,omitempty"`
}

// NewArticle carries the fields of an article about to be persisted.
// Reading time is derived from content on every write, not supplied.
type NewArticle struct {
	Title       string
	Author      string
	Content     string
	URL         string
	Source      string
	PublishedAt time.Time
	Summary     string
	Approved    bool
}

type Stats struct {
	Articles   int `json:"articles"`
	Categories int `json:"categories"`
	Summarized int `json:"summarized"`
	WithAudio  int `json:"with_audio"`
}

// ReadingTime estimates reading minutes from word count: ceil(words/225)
// with a floor of one minute; empty content reads in zero minutes.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
