package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bytenews/newsgenie/app/database"
)

// GenerateAudioTask synthesizes an audio rendition of an article's stored
// summary on demand.
type GenerateAudioTask struct {
	Task
	ArticleID   int64
	articleRepo database.ArticleRepository
	synthesizer SpeechSynthesizer
}

func NewGenerateAudioTask(articleID int64, articleRepo database.ArticleRepository,
	synthesizer SpeechSynthesizer) *GenerateAudioTask {
	return &GenerateAudioTask{
		Task:        NewTask(TaskTypeGenerateAudio, strconv.FormatInt(articleID, 10)),
		ArticleID:   articleID,
		articleRepo: articleRepo,
		synthesizer: synthesizer,
	}
}

func (t *GenerateAudioTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	article, err := t.articleRepo.GetArticle(t.ArticleID)
	if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}
	if article == nil {
		return fmt.Errorf("article %d not found", t.ArticleID)
	}

	if article.Summary == "" {
		slog.Warn("Article has no summary, skipping audio generation", "article_id", t.ArticleID)
		return nil
	}

	audioPath, err := t.synthesizer.Run(article.Summary, t.ArticleID)
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	if audioPath != "" {
		if err := t.articleRepo.UpdateAudioPath(t.ArticleID, audioPath); err != nil {
			return fmt.Errorf("failed to store audio path: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"article_id", t.ArticleID,
		"duration", t.GetDuration(),
		"audio_path", audioPath)

	return nil
}
