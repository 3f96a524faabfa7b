package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/tasks"
	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

func (h *Handler) ListArticles(c *gin.Context) {
	opts := database.ListOptions{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Limit:    parsePositiveInt(c.Query("limit"), 20),
		Offset:   parsePositiveInt(c.Query("offset"), 0),
	}
	if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}

	articles, err := h.articleRepo.ListArticles(opts)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.articleRepo.CountArticles(opts)
	if err != nil {
		slog.Error("Database error", "operation", "count_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    total,
		"limit":    opts.Limit,
		"offset":   opts.Offset,
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := parseArticleID(c)
	if !ok {
		return
	}

	article, err := h.articleRepo.GetArticle(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, article)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categoryRepo.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.categoryRepo.GetCategoryCount(); err == nil {
		health["categories"] = count
	}

	health["configured_sources"] = h.sourceCache.GetSourceCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.articleRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) TriggerIngest(c *gin.Context) {
	enqueued, err := h.scheduler.EnqueueIngestAll()
	if err != nil {
		slog.Error("Failed to enqueue ingestion", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue ingestion"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Ingestion enqueued",
		"enqueued": enqueued,
	})
}

func (h *Handler) TriggerIngestCategory(c *gin.Context) {
	category := c.Param("category")

	if err := h.scheduler.EnqueueIngestCategory(category); err != nil {
		slog.Error("Failed to enqueue ingestion", "category", category, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category or queue full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Ingestion enqueued",
		"category": category,
	})
}

func (h *Handler) RegenerateSummary(c *gin.Context) {
	id, ok := parseArticleID(c)
	if !ok {
		return
	}

	if !h.articleExists(c, id) {
		return
	}

	task := tasks.NewSummarizeArticleTask(id, h.articleRepo, h.summarizer, h.synthesizer)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue summary regeneration", "article_id", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Summary regeneration enqueued",
		"article_id": id,
	})
}

func (h *Handler) RegenerateAudio(c *gin.Context) {
	id, ok := parseArticleID(c)
	if !ok {
		return
	}

	if !h.articleExists(c, id) {
		return
	}

	task := tasks.NewGenerateAudioTask(id, h.articleRepo, h.synthesizer)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue audio generation", "article_id", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Audio generation enqueued",
		"article_id": id,
	})
}

func (h *Handler) articleExists(c *gin.Context, id int64) bool {
	article, err := h.articleRepo.GetArticle(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return false
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return false
	}
	return true
}

func parseArticleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return 0, false
	}
	return id, true
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
