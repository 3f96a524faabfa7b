package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytenews/newsgenie/app/database"
	"github.com/bytenews/newsgenie/app/feed"
	"github.com/bytenews/newsgenie/app/summary"
)

// In-memory repository fakes

type fakeArticleRepo struct {
	articles   map[string]database.NewArticle
	audioPaths map[int64]string
	nextID     int64
	createErr  error
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		articles:   make(map[string]database.NewArticle),
		audioPaths: make(map[int64]string),
	}
}

func (r *fakeArticleRepo) ExistsByURL(url string) (bool, error) {
	_, ok := r.articles[url]
	return ok, nil
}

func (r *fakeArticleRepo) CreateArticle(article database.NewArticle, _ []int64) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	if _, ok := r.articles[article.URL]; ok {
		return 0, errors.New("UNIQUE constraint failed: articles.url")
	}
	r.articles[article.URL] = article
	r.nextID++
	return r.nextID, nil
}

func (r *fakeArticleRepo) GetArticle(int64) (*database.Article, error) { return nil, nil }

func (r *fakeArticleRepo) ListArticles(database.ListOptions) ([]database.Article, error) {
	return nil, nil
}

func (r *fakeArticleRepo) CountArticles(database.ListOptions) (int, error) { return 0, nil }

func (r *fakeArticleRepo) UpdateSummary(int64, string) error { return nil }

func (r *fakeArticleRepo) UpdateAudioPath(id int64, audioPath string) error {
	r.audioPaths[id] = audioPath
	return nil
}

func (r *fakeArticleRepo) GetStats() (*database.Stats, error) { return &database.Stats{}, nil }

type fakeCategoryRepo struct {
	categories map[string]*database.Category
	nextID     int64
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*database.Category)}
}

func (r *fakeCategoryRepo) GetOrCreate(name, description string) (*database.Category, error) {
	if c, ok := r.categories[name]; ok {
		return c, nil
	}
	r.nextID++
	c := &database.Category{ID: r.nextID, Name: name, Description: description}
	r.categories[name] = c
	return c, nil
}

func (r *fakeCategoryRepo) GetByName(name string) (*database.Category, error) {
	return r.categories[name], nil
}
func (r *fakeCategoryRepo) List() ([]database.Category, error) { return nil, nil }
func (r *fakeCategoryRepo) GetCategoryCount() (int, error)     { return len(r.categories), nil }

// Pipeline fakes

type fakeExtractor struct {
	failURLs  map[string]bool
	panicURLs map[string]bool
	calls     int
}

func (e *fakeExtractor) Run(_ context.Context, pageURL string) (string, error) {
	e.calls++
	if e.panicURLs[pageURL] {
		panic("library blew up on malformed markup")
	}
	if e.failURLs[pageURL] {
		return "", errors.New("no content extracted")
	}
	return strings.Repeat("Extracted article content. ", 10), nil
}

type fakeSummarizer struct {
	result summary.Result
}

func (s *fakeSummarizer) Run(context.Context, string) summary.Result {
	return s.result
}

type fakeSynthesizer struct {
	calls int
	err   error
}

func (s *fakeSynthesizer) Run(_ string, articleID int64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("news_audio/summary_%d.mp3", articleID), nil
}

func feedXML(itemCount int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Test</title><link>https://example.com</link><description>Test</description>`)
	for i := 1; i <= itemCount; i++ {
		fmt.Fprintf(&b, `<item><title>Item %d</title><link>https://example.com/item%d</link><guid>item-%d</guid></item>`, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

type taskFixture struct {
	articleRepo  *fakeArticleRepo
	categoryRepo *fakeCategoryRepo
	extractor    *fakeExtractor
	summarizer   *fakeSummarizer
	synthesizer  *fakeSynthesizer
}

func newTaskFixture() *taskFixture {
	return &taskFixture{
		articleRepo:  newFakeArticleRepo(),
		categoryRepo: newFakeCategoryRepo(),
		extractor:    &fakeExtractor{failURLs: make(map[string]bool), panicURLs: make(map[string]bool)},
		summarizer:   &fakeSummarizer{result: summary.Result{Text: "A summary.", Outcome: summary.OutcomeGenerated}},
		synthesizer:  &fakeSynthesizer{},
	}
}

func (f *taskFixture) newTask(feedURL string, entryLimit int) *IngestFeedTask {
	source := &feed.Source{
		Category:    "Technology",
		Description: "Tech news",
		URL:         feedURL,
		Settings:    feed.SourceSettings{Enabled: true, MaxEntries: entryLimit, Timeout: 5},
	}
	return NewIngestFeedTask(source, &http.Client{}, feed.NewParser(),
		f.extractor, f.summarizer, f.synthesizer,
		f.articleRepo, f.categoryRepo, "test-agent", entryLimit, 0)
}

func TestIngestFeedTaskCreatesArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(3))
	}))
	defer server.Close()

	f := newTaskFixture()
	task := f.newTask(server.URL, 7)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(f.articleRepo.articles) != 3 {
		t.Errorf("Expected 3 articles created, got: %d", len(f.articleRepo.articles))
	}

	article, ok := f.articleRepo.articles["https://example.com/item1"]
	if !ok {
		t.Fatal("Expected article for item1")
	}
	if article.Summary != "A summary." {
		t.Errorf("Expected summary stored, got: %s", article.Summary)
	}
	if !article.Approved {
		t.Error("Expected ingested article to be approved")
	}
	if article.Source != "Technology" {
		t.Errorf("Expected source 'Technology', got: %s", article.Source)
	}

	if f.synthesizer.calls != 3 {
		t.Errorf("Expected 3 audio syntheses, got: %d", f.synthesizer.calls)
	}
	if len(f.articleRepo.audioPaths) != 3 {
		t.Errorf("Expected 3 stored audio paths, got: %d", len(f.articleRepo.audioPaths))
	}

	if _, ok := f.categoryRepo.categories["Technology"]; !ok {
		t.Error("Expected Technology category to be created")
	}
}

func TestIngestFeedTaskRespectsEntryLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(20))
	}))
	defer server.Close()

	f := newTaskFixture()
	task := f.newTask(server.URL, 7)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(f.articleRepo.articles) != 7 {
		t.Errorf("Expected 7 articles, got: %d", len(f.articleRepo.articles))
	}
}

func TestIngestFeedTaskSkipsDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(3))
	}))
	defer server.Close()

	f := newTaskFixture()
	f.articleRepo.articles["https://example.com/item2"] = database.NewArticle{URL: "https://example.com/item2"}

	task := f.newTask(server.URL, 7)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(f.articleRepo.articles) != 3 {
		t.Errorf("Expected 3 articles total, got: %d", len(f.articleRepo.articles))
	}
	// The duplicate must never reach extraction
	if f.extractor.calls != 2 {
		t.Errorf("Expected 2 extraction calls, got: %d", f.extractor.calls)
	}
}

func TestIngestFeedTaskEntryFailureIsolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(5))
	}))
	defer server.Close()

	f := newTaskFixture()
	f.extractor.failURLs["https://example.com/item3"] = true

	task := f.newTask(server.URL, 7)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error despite one failing entry, got: %v", err)
	}

	if len(f.articleRepo.articles) != 4 {
		t.Errorf("Expected 4 articles, got: %d", len(f.articleRepo.articles))
	}
	if _, ok := f.articleRepo.articles["https://example.com/item3"]; ok {
		t.Error("Expected failing entry to not be persisted")
	}
	if _, ok := f.articleRepo.articles["https://example.com/item5"]; !ok {
		t.Error("Expected entries after the failure to still be ingested")
	}
}

func TestIngestFeedTaskRecoversFromPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(3))
	}))
	defer server.Close()

	f := newTaskFixture()
	f.extractor.panicURLs["https://example.com/item1"] = true

	task := f.newTask(server.URL, 7)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error despite panicking entry, got: %v", err)
	}

	if len(f.articleRepo.articles) != 2 {
		t.Errorf("Expected 2 articles, got: %d", len(f.articleRepo.articles))
	}
}

func TestIngestFeedTaskUnsummarizedArticleGetsNoAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(2))
	}))
	defer server.Close()

	f := newTaskFixture()
	f.summarizer.result = summary.Result{Text: summary.MessageRateLimited, Outcome: summary.OutcomeRateLimited}

	task := f.newTask(server.URL, 7)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Articles persist with the fixed message, but audio is never attempted
	if len(f.articleRepo.articles) != 2 {
		t.Errorf("Expected 2 articles, got: %d", len(f.articleRepo.articles))
	}
	article := f.articleRepo.articles["https://example.com/item1"]
	if article.Summary != summary.MessageRateLimited {
		t.Errorf("Expected rate-limit message stored, got: %s", article.Summary)
	}
	if f.synthesizer.calls != 0 {
		t.Errorf("Expected no audio synthesis, got: %d calls", f.synthesizer.calls)
	}
}

func TestIngestFeedTaskAudioFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(2))
	}))
	defer server.Close()

	f := newTaskFixture()
	f.synthesizer.err = errors.New("speech synthesis failed")

	task := f.newTask(server.URL, 7)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(f.articleRepo.articles) != 2 {
		t.Errorf("Expected articles persisted despite audio failure, got: %d", len(f.articleRepo.articles))
	}
	if len(f.articleRepo.audioPaths) != 0 {
		t.Errorf("Expected no audio paths stored, got: %d", len(f.articleRepo.audioPaths))
	}
}

func TestIngestFeedTaskUnreachableFeed(t *testing.T) {
	f := newTaskFixture()
	task := f.newTask("http://127.0.0.1:1/feed.xml", 7)

	if err := task.Execute(context.Background()); err == nil {
		t.Error("Expected error for unreachable feed")
	}
	if len(f.articleRepo.articles) != 0 {
		t.Errorf("Expected no articles, got: %d", len(f.articleRepo.articles))
	}
}

func TestIngestFeedTaskFeedHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTaskFixture()
	task := f.newTask(server.URL, 7)

	err := task.Execute(context.Background())
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "failed to fetch feed") {
		t.Errorf("Expected fetch error, got: %v", err)
	}
}

func TestIngestFeedTaskDisabledSource(t *testing.T) {
	f := newTaskFixture()
	task := f.newTask("http://127.0.0.1:1/feed.xml", 7)
	task.Source.Settings.Enabled = false

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected disabled source to be a no-op, got: %v", err)
	}
	if f.extractor.calls != 0 {
		t.Errorf("Expected no extraction calls, got: %d", f.extractor.calls)
	}
}

func TestIngestFeedTaskHonorsSourceMaxEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML(10))
	}))
	defer server.Close()

	f := newTaskFixture()
	task := f.newTask(server.URL, 7)
	task.Source.Settings.MaxEntries = 2

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(f.articleRepo.articles) != 2 {
		t.Errorf("Expected 2 articles, got: %d", len(f.articleRepo.articles))
	}
}
