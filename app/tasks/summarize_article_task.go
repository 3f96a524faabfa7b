package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bytenews/newsgenie/app/database"
)

// SummarizeArticleTask regenerates the summary of an already ingested
// article, refreshing its audio rendition when a real summary comes back.
type SummarizeArticleTask struct {
	Task
	ArticleID   int64
	articleRepo database.ArticleRepository
	summarizer  Summarizer
	synthesizer SpeechSynthesizer
}

func NewSummarizeArticleTask(articleID int64, articleRepo database.ArticleRepository,
	summarizer Summarizer, synthesizer SpeechSynthesizer) *SummarizeArticleTask {
	return &SummarizeArticleTask{
		Task:        NewTask(TaskTypeSummarizeArticle, strconv.FormatInt(articleID, 10)),
		ArticleID:   articleID,
		articleRepo: articleRepo,
		summarizer:  summarizer,
		synthesizer: synthesizer,
	}
}

func (t *SummarizeArticleTask) Execute(ctx context.Context) error {

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

	result := t.summarizer.Run(ctx, article.Content)

	if err := t.articleRepo.UpdateSummary(t.ArticleID, result.Text); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}

	if result.Generated() {
		audioPath, err := t.synthesizer.Run(result.Text, t.ArticleID)
		if err != nil {
			slog.Error("Audio regeneration failed", "article_id", t.ArticleID, "error", err)
		} else if audioPath != "" {
			if err := t.articleRepo.UpdateAudioPath(t.ArticleID, audioPath); err != nil {
				slog.Error("Failed to store audio path", "article_id", t.ArticleID, "error", err)
			}
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"article_id", t.ArticleID,
		"duration", t.GetDuration(),
		"outcome", string(result.Outcome))

	return nil
}
