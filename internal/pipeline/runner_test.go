package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/salesintel/tracker/internal/adapters/classifier"
	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

func setupTest(t *testing.T) {
	t.Helper()
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			t.Fatalf("Failed to initialize logger: %v", err)
		}
	}
}

type fakeCompanies struct {
	companies []models.Company
}

func (f *fakeCompanies) GetCompanies(ctx context.Context, activeOnly bool) ([]models.Company, error) {
	return f.companies, nil
}

type fakeFeed struct {
	items map[string][]models.FeedItem
	errs  map[string]error
}

func (f *fakeFeed) GetName() string { return "fake" }

func (f *fakeFeed) FetchCompanyNews(ctx context.Context, companyName, ticker string) ([]models.FeedItem, error) {
	if err := f.errs[companyName]; err != nil {
		return nil, err
	}
	return f.items[companyName], nil
}

type fakeStore struct {
	mu       sync.Mutex
	existing map[string]bool
	articles []*models.Article
	signals  []models.Classification
	nextID   int
}

func newFakeStore(existing ...string) *fakeStore {
	m := make(map[string]bool, len(existing))
	for _, u := range existing {
		m[u] = true
	}
	return &fakeStore{existing: m}
}

func (f *fakeStore) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, u := range urls {
		if f.existing[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (f *fakeStore) InsertArticle(ctx context.Context, companyID string, item models.FeedItem) (*models.Article, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing[item.URL] {
		return nil, false, nil
	}
	f.existing[item.URL] = true
	f.nextID++
	a := &models.Article{
		ID:        fmt.Sprintf("article-%d", f.nextID),
		CompanyID: companyID,
		Title:     item.Title,
		URL:       item.URL,
		Source:    item.Source,
	}
	f.articles = append(f.articles, a)
	return a, true, nil
}

func (f *fakeStore) InsertSignal(ctx context.Context, articleID, companyID string, c models.Classification, talkingPoint *string) (*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, c)
	return &models.Signal{ID: fmt.Sprintf("signal-%d", len(f.signals)), ArticleID: articleID, CompanyID: companyID}, nil
}

type fakeClassifier struct {
	mu             sync.Mutex
	batchErr       error
	batchEmpty     bool
	failOneTitle   string
	batchCalls     int
	singleCalls    int
	talkingPointOf func(models.Classification) string
}

func (f *fakeClassifier) ClassifyBatch(ctx context.Context, companyName string, items []classifier.Headline) (map[int]models.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if f.batchEmpty {
		return map[int]models.Classification{}, nil
	}
	out := make(map[int]models.Classification, len(items))
	for _, h := range items {
		out[h.Index] = models.Classification{
			Summary:        h.Title,
			RelevanceScore: 0.8,
			Category:       models.CategoryGeneral,
			PainScore:      0.3,
		}
	}
	return out, nil
}

func (f *fakeClassifier) ClassifyOne(ctx context.Context, companyName string, item classifier.Headline) (models.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singleCalls++
	if item.Title == f.failOneTitle {
		return models.Classification{}, fmt.Errorf("classification call failed")
	}
	return models.Classification{
		Summary:        item.Title,
		RelevanceScore: 0.8,
		Category:       models.CategoryGeneral,
		PainScore:      0.3,
	}, nil
}

func (f *fakeClassifier) GenerateTalkingPoint(ctx context.Context, companyName string, c models.Classification) (string, error) {
	if f.talkingPointOf != nil {
		return f.talkingPointOf(c), nil
	}
	return "", fmt.Errorf("not supported")
}

func testConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		Concurrency:            2,
		ClassifyBatchSize:      8,
		MinPainForTalkingPoint: 0.5,
	}
}

func feedItems(n int, prefix string) []models.FeedItem {
	items := make([]models.FeedItem, n)
	for i := range items {
		items[i] = models.FeedItem{
			Title:  fmt.Sprintf("Acme headline %s %d", prefix, i),
			URL:    fmt.Sprintf("https://news.example/%s/%d", prefix, i),
			Source: "Example Wire",
		}
	}
	return items
}

func TestRunBatchSuccess(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
	}}
	store := newFakeStore()
	feed := &fakeFeed{items: map[string][]models.FeedItem{
		"Acme Corporation": feedItems(3, "a"),
	}}
	cls := &fakeClassifier{}

	r := NewRunner(companies, store, feed, cls, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Companies != 1 || stats.ArticlesFetched != 3 || stats.ArticlesNew != 3 {
		t.Errorf("stats = %+v, want 1 company, 3 fetched, 3 new", stats)
	}
	if stats.SignalsCreated != 3 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want 3 signals, 0 errors", stats)
	}
	if cls.batchCalls != 1 || cls.singleCalls != 0 {
		t.Errorf("calls = %d batch, %d single; want 1 batch, 0 single", cls.batchCalls, cls.singleCalls)
	}
}

func TestRunFallbackDropsOnlyFailingHeadline(t *testing.T) {
	setupTest(t)
	// An unusable batch of 8 triggers exactly 8 individual calls; the one
	// failing call drops only its own headline.
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
	}}
	store := newFakeStore()
	feed := &fakeFeed{items: map[string][]models.FeedItem{
		"Acme Corporation": feedItems(8, "a"),
	}}
	cls := &fakeClassifier{
		batchEmpty:   true,
		failOneTitle: "Acme headline a 3",
	}

	r := NewRunner(companies, store, feed, cls, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if cls.singleCalls != 8 {
		t.Errorf("single calls = %d, want 8", cls.singleCalls)
	}
	if stats.SignalsCreated != 7 {
		t.Errorf("signals created = %d, want 7", stats.SignalsCreated)
	}
	if stats.Errors != 1 {
		t.Errorf("errors = %d, want 1", stats.Errors)
	}
}

func TestRunDedupSkipsKnownURLs(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
	}}
	store := newFakeStore("https://news.example/a/0", "https://news.example/a/1")
	feed := &fakeFeed{items: map[string][]models.FeedItem{
		"Acme Corporation": feedItems(4, "a"),
	}}
	cls := &fakeClassifier{}

	r := NewRunner(companies, store, feed, cls, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.ArticlesFetched != 4 || stats.ArticlesNew != 2 || stats.SignalsCreated != 2 {
		t.Errorf("stats = %+v, want 4 fetched, 2 new, 2 signals", stats)
	}
}

func TestRunPrefilterDropsOffTopicTitles(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
	}}
	store := newFakeStore()
	feed := &fakeFeed{items: map[string][]models.FeedItem{
		"Acme Corporation": {
			{Title: "Acme faces shareholder lawsuit", URL: "https://news.example/1", Source: "Wire"},
			{Title: "Markets rally on rate cut hopes", URL: "https://news.example/2", Source: "Wire"},
		},
	}}
	cls := &fakeClassifier{}

	r := NewRunner(companies, store, feed, cls, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.ArticlesFetched != 2 || stats.ArticlesNew != 1 || stats.SignalsCreated != 1 {
		t.Errorf("stats = %+v, want 2 fetched, 1 new, 1 signal", stats)
	}
}

func TestRunCountsCompanyFailureWithoutStoppingSiblings(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
		{ID: "c2", Name: "Globex Industries"},
	}}
	store := newFakeStore()
	feed := &fakeFeed{
		items: map[string][]models.FeedItem{
			"Globex Industries": {
				{Title: "Globex cuts guidance", URL: "https://news.example/g/0", Source: "Wire"},
			},
		},
		errs: map[string]error{
			"Acme Corporation": fmt.Errorf("feed unreachable"),
		},
	}
	cls := &fakeClassifier{}

	r := NewRunner(companies, store, feed, cls, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Companies != 2 || stats.Errors != 1 {
		t.Errorf("stats = %+v, want 2 companies, 1 error", stats)
	}
	if stats.SignalsCreated != 1 {
		t.Errorf("signals created = %d, want 1", stats.SignalsCreated)
	}
}

func TestRunHighPainGetsTalkingPoint(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{companies: []models.Company{
		{ID: "c1", Name: "Acme Corporation"},
	}}
	store := newFakeStore()
	feed := &fakeFeed{items: map[string][]models.FeedItem{
		"Acme Corporation": {
			{Title: "Acme announces mass layoffs", URL: "https://news.example/1", Source: "Wire"},
		},
	}}

	painCls := &fakeClassifier{batchErr: fmt.Errorf("service down")}
	painCls.talkingPointOf = func(c models.Classification) string { return "opener" }

	// Override the per-item result to carry high pain so the talking point
	// path is exercised.
	r := NewRunner(companies, store, feed, &highPainClassifier{inner: painCls}, &LocalLock{}, nil, testConfig())
	stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.SignalsCreated != 1 {
		t.Fatalf("signals created = %d, want 1", stats.SignalsCreated)
	}
}

type highPainClassifier struct {
	inner *fakeClassifier
}

func (h *highPainClassifier) ClassifyBatch(ctx context.Context, companyName string, items []classifier.Headline) (map[int]models.Classification, error) {
	return h.inner.ClassifyBatch(ctx, companyName, items)
}

func (h *highPainClassifier) ClassifyOne(ctx context.Context, companyName string, item classifier.Headline) (models.Classification, error) {
	c, err := h.inner.ClassifyOne(ctx, companyName, item)
	if err != nil {
		return c, err
	}
	c.PainScore = 0.9
	c.Category = models.CategoryLayoffs
	return c, nil
}

func (h *highPainClassifier) GenerateTalkingPoint(ctx context.Context, companyName string, c models.Classification) (string, error) {
	return h.inner.GenerateTalkingPoint(ctx, companyName, c)
}

func TestRunRejectsOverlappingRun(t *testing.T) {
	setupTest(t)
	companies := &fakeCompanies{}
	r := NewRunner(companies, newFakeStore(), &fakeFeed{}, &fakeClassifier{}, &LocalLock{}, nil, testConfig())

	if _, err := r.lock.TryAcquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background()); err == nil {
		t.Error("Run with held lock should fail")
	}
}
