package tasks

import (
	"context"

	"github.com/bytenews/newsgenie/app/extract"
	"github.com/bytenews/newsgenie/app/speech"
	"github.com/bytenews/newsgenie/app/summary"
)

// ContentExtractor recovers the plain-text body of an article page. Absence
// of usable content is signalled through an error, never an empty string.
type ContentExtractor interface {
	Run(ctx context.Context, pageURL string) (string, error)
}

var _ ContentExtractor = (*extract.Extractor)(nil)

// Summarizer degrades every failure to a fixed message; it never errors.
type Summarizer interface {
	Run(ctx context.Context, content string) summary.Result
}

var _ Summarizer = (*summary.Service)(nil)

// SpeechSynthesizer writes an audio rendition of the text and returns the
// stored path, or an empty path when there is nothing to speak.
type SpeechSynthesizer interface {
	Run(text string, articleID int64) (string, error)
}

var _ SpeechSynthesizer = (*speech.Synthesizer)(nil)

// TaskSchedulerInterface is the scheduling surface used by the main
// application and the HTTP API.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueIngestAll() (int, error)
	EnqueueIngestCategory(category string) error
}
