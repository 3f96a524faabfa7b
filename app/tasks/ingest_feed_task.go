package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/feed"
)

type entryStatus int

const (
	entryCreated entryStatus = iota
	entryDuplicate
	entrySkipped
)

// IngestFeedTask runs the full ingestion pipeline for one news source:
// category get-or-create, feed fetch and parse, and per entry dedup,
// extraction, summarization, persistence, and audio synthesis. Entry-level
// failures are logged and skipped so one bad article never aborts the batch.
type IngestFeedTask struct {
	Task
	Source          *feed.Source
	httpClient      *http.Client
	parser          *feed.Parser
	extractor       ContentExtractor
	summarizer      Summarizer
	synthesizer     SpeechSynthesizer
	articleRepo     database.ArticleRepository
	categoryRepo    database.CategoryRepository
	userAgent       string
	entryLimit      int
	politenessDelay time.Duration
}

func NewIngestFeedTask(source *feed.Source, httpClient *http.Client, parser *feed.Parser,
	extractor ContentExtractor, summarizer Summarizer, synthesizer SpeechSynthesizer,
	articleRepo database.ArticleRepository, categoryRepo database.CategoryRepository,
	userAgent string, entryLimit int, politenessDelay time.Duration) *IngestFeedTask {
	return &IngestFeedTask{
		Task:            NewTask(TaskTypeIngestFeed, source.Category),
		Source:          source,
		httpClient:      httpClient,
		parser:          parser,
		extractor:       extractor,
		summarizer:      summarizer,
		synthesizer:     synthesizer,
		articleRepo:     articleRepo,
		categoryRepo:    categoryRepo,
		userAgent:       userAgent,
		entryLimit:      entryLimit,
		politenessDelay: politenessDelay,
	}
}

func (t *IngestFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "category", t.Source.Category)
		return nil
	}

	category, err := t.categoryRepo.GetOrCreate(t.Source.Category, t.Source.Description)
	if err != nil {
		return fmt.Errorf("failed to ensure category: %w", err)
	}

	data, err := t.fetchFeed(ctx, t.Source.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := t.entryLimit
	if t.Source.Settings.MaxEntries > 0 && t.Source.Settings.MaxEntries < limit {
		limit = t.Source.Settings.MaxEntries
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	createdCount := 0
	duplicateCount := 0
	skippedCount := 0
	failedCount := 0

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status, err := t.processEntry(ctx, entry, category.ID)
		if err != nil {
			slog.Error("Failed to process entry, moving to next", "category", t.Source.Category, "url", entry.Link, "error", err)
			failedCount++
			continue
		}

		switch status {
		case entryDuplicate:
			duplicateCount++
		case entrySkipped:
			skippedCount++
		case entryCreated:
			createdCount++

			// Politeness pause before the next round of outbound requests.
			select {
			case <-time.After(t.politenessDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"category", t.Source.Category,
		"duration", t.GetDuration(),
		"total", len(entries),
		"created", createdCount,
		"duplicates", duplicateCount,
		"skipped", skippedCount,
		"failed", failedCount)

	return nil
}

// processEntry runs the per-entry pipeline. Every failure, including a panic
// in a downstream library, is converted into an error so the loop above can
// continue with the next entry.
func (t *IngestFeedTask) processEntry(ctx context.Context, entry feed.Entry, categoryID int64) (status entryStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = entrySkipped
			err = fmt.Errorf("panic while processing entry: %v", r)
		}
	}()

	exists, err := t.articleRepo.ExistsByURL(entry.Link)
	if err != nil {
		return entrySkipped, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if exists {
		return entryDuplicate, nil
	}

	content, err := t.extractor.Run(ctx, entry.Link)
	if err != nil {
		slog.Warn("Content extraction failed, skipping entry", "category", t.Source.Category, "url", entry.Link, "error", err)
		return entrySkipped, nil
	}

	result := t.summarizer.Run(ctx, content)

	id, err := t.articleRepo.CreateArticle(database.NewArticle{
		Title:       entry.Title,
		Author:      entry.Author,
		Content:     content,
		URL:         entry.Link,
		Source:      t.Source.Category,
		PublishedAt: entry.PublishedAt,
		Summary:     result.Text,
		Approved:    true,
	}, []int64{categoryID})
	if err != nil {
		return entrySkipped, fmt.Errorf("failed to create article: %w", err)
	}

	if result.Generated() {
		audioPath, err := t.synthesizer.Run(result.Text, id)
		if err != nil {
			slog.Error("Audio generation failed", "article_id", id, "error", err)
		} else if audioPath != "" {
			if err := t.articleRepo.UpdateAudioPath(id, audioPath); err != nil {
				slog.Error("Failed to store audio path", "article_id", id, "error", err)
			}
		}
	}

	slog.Debug("Article ingested", "article_id", id, "category", t.Source.Category, "title", entry.Title)
	return entryCreated, nil
}

func (t *IngestFeedTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.Source.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
