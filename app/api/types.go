package api

import (
	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/feed"
	"github.com/bytenews/newsgenie/app/tasks"
)

type Handler struct {
	articleRepo  database.ArticleRepository
	categoryRepo database.CategoryRepository
	sourceCache  *feed.SourceCache
	summarizer   tasks.Summarizer
	synthesizer  tasks.SpeechSynthesizer
	scheduler    tasks.TaskSchedulerInterface
}

func NewHandler(articleRepo database.ArticleRepository, categoryRepo database.CategoryRepository,
	sourceCache *feed.SourceCache, summarizer tasks.Summarizer, synthesizer tasks.SpeechSynthesizer,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		articleRepo:  articleRepo,
		categoryRepo: categoryRepo,
		sourceCache:  sourceCache,
		summarizer:   summarizer,
		synthesizer:  synthesizer,
		scheduler:    scheduler,
	}
}
