package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceCache     *feed.SourceCache
	articleRepo     database.ArticleRepository
	categoryRepo    database.CategoryRepository
	httpClient      *http.Client
	parser          *feed.Parser
	extractor       ContentExtractor
	summarizer      Summarizer
	synthesizer     SpeechSynthesizer
	userAgent       string
	entryLimit      int
	politenessDelay time.Duration
	interval        time.Duration
	workerCount     int
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

func NewScheduler(sourceCache *feed.SourceCache, articleRepo database.ArticleRepository,
	categoryRepo database.CategoryRepository, httpClient *http.Client, parser *feed.Parser,
	extractor ContentExtractor, summarizer Summarizer, synthesizer SpeechSynthesizer,
	userAgent string, entryLimit int, politenessDelay time.Duration,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		sourceCache:     sourceCache,
		articleRepo:     articleRepo,
		categoryRepo:    categoryRepo,
		httpClient:      httpClient,
		parser:          parser,
		extractor:       extractor,
		summarizer:      summarizer,
		synthesizer:     synthesizer,
		userAgent:       userAgent,
		entryLimit:      entryLimit,
		politenessDelay: politenessDelay,
		interval:        interval,
		workerCount:     workerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if _, err := s.EnqueueIngestAll(); err != nil {
			slog.Warn("Failed to enqueue startup ingestion", "error", err)
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.EnqueueIngestAll(); err != nil {
					slog.Warn("Failed to enqueue scheduled ingestion", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueIngestAll queues one ingestion task per enabled source and returns
// how many were queued. A failing source task never affects the others.
func (s *Scheduler) EnqueueIngestAll() (int, error) {
	sources := s.sourceCache.GetEnabledSources()
	if len(sources) == 0 {
		slog.Debug("No enabled sources configured")
		return 0, nil
	}

	enqueued := 0
	for _, source := range sources {
		if err := s.EnqueueTask(s.newIngestTask(source)); err != nil {
			slog.Warn("Failed to enqueue IngestFeedTask", "category", source.Category, "error", err)
			continue
		}
		enqueued++
	}

	slog.Debug("Ingestion round enqueued", "sources", len(sources), "enqueued", enqueued)
	return enqueued, nil
}

func (s *Scheduler) EnqueueIngestCategory(category string) error {
	source, err := s.sourceCache.GetSource(category)
	if err != nil {
		return err
	}
	return s.EnqueueTask(s.newIngestTask(source))
}

func (s *Scheduler) newIngestTask(source *feed.Source) *IngestFeedTask {
	return NewIngestFeedTask(source, s.httpClient, s.parser, s.extractor, s.summarizer,
		s.synthesizer, s.articleRepo, s.categoryRepo, s.userAgent, s.entryLimit, s.politenessDelay)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
