package speech

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	htgotts "github.com/hegedustibor/htgo-tts"
	"github.com/hegedustibor/htgo-tts/voices"
)

// audioSubdir is the directory under the media root where summary audio
// files are written; it is part of the stored path convention.
const audioSubdir = "news_audio"

var (
	newlineExpr    = regexp.MustCompile(`[\r\n]+`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
	unsafeExpr     = regexp.MustCompile(`[^\w\s,.!?'"]`)
)

type Synthesizer struct {
	mediaDir string
}

func NewSynthesizer(mediaDir string) *Synthesizer {
	return &Synthesizer{mediaDir: mediaDir}
}

// Run converts summary text into an MP3 file named after the article and
// returns the path relative to the media root for storage. Text that cleans
// down to nothing produces no file and an empty path, not an error.
func (s *Synthesizer) Run(text string, articleID int64) (string, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		slog.Warn("No speakable text after cleaning, skipping audio generation", "article_id", articleID)
		return "", nil
	}

	audioDir := filepath.Join(s.mediaDir, audioSubdir)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	tts := htgotts.Speech{
		Folder:   audioDir,
		Language: voices.English,
	}

	fileName := Filename(articleID)
	if _, err := tts.CreateSpeechFile(cleaned, strings.TrimSuffix(fileName, ".mp3")); err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}

	relPath := filepath.Join(audioSubdir, fileName)
	slog.Debug("Audio summary generated", "article_id", articleID, "path", relPath)

	return relPath, nil
}

// Filename returns the deterministic audio file name for an article.
func Filename(articleID int64) string {
	return fmt.Sprintf("summary_%d.mp3", articleID)
}

// CleanText prepares text for synthesis: newlines and runs of whitespace
// collapse to single spaces, characters outside the punctuation allow-list
// are dropped, and the result is trimmed.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = newlineExpr.ReplaceAllString(text, " ")
	text = whitespaceExpr.ReplaceAllString(text, " ")
	text = unsafeExpr.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
