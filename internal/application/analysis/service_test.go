package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/document"
	rediscache "github.com/clauselens/clauselens/internal/infrastructure/database/redis"
	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/search/opensearch"
	"github.com/clauselens/clauselens/internal/provider"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const contractText = `SERVICE AGREEMENT

The Contractor shall provide consulting services to the Client. The Client shall pay all fees within thirty days. Either party may terminate this agreement with written notice. The Contractor shall not disclose confidential information.`

// --- mocks ---

type memRepo struct {
	docs     map[uuid.UUID]*document.Document
	statuses []document.Status
}

func newMemRepo() *memRepo { return &memRepo{docs: map[uuid.UUID]*document.Document{}} }

func (r *memRepo) Create(_ context.Context, doc *document.Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*document.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	copied := *doc
	return &copied, nil
}

func (r *memRepo) List(_ context.Context, _ document.ListFilter) ([]*document.Document, int, error) {
	var out []*document.Document
	for _, d := range r.docs {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status document.Status) error {
	doc, ok := r.docs[id]
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	doc.Status = status
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.docs[id]; !ok {
		return apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	delete(r.docs, id)
	return nil
}

type memAnalyses struct {
	saved []*document.Analysis
}

func (r *memAnalyses) Save(_ context.Context, a *document.Analysis) error {
	r.saved = append(r.saved, a)
	return nil
}

func (r *memAnalyses) GetLatestByDocument(_ context.Context, documentID uuid.UUID) (*document.Analysis, error) {
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].DocumentID == documentID {
			return r.saved[i], nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrCodeAnalysisNotFound, "no analysis for document %s", documentID)
}

type memStore struct {
	blobs     map[string][]byte
	createErr error
	deleted   []string
}

func newMemStore() *memStore { return &memStore{blobs: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, content []byte, _ string) error {
	s.blobs[key] = content
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := s.blobs[key]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "object %s not found", key)
	}
	return b, nil
}

func (s *memStore) GetText(ctx context.Context, key string) (string, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.blobs, key)
	return nil
}

func (s *memStore) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.local/" + key, nil
}

type memCache struct {
	entries map[string][]byte
	loads   int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return rediscache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

func (c *memCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	c.loads++
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

func (c *memCache) DeleteByPrefix(_ context.Context, _ string) (int, error) { return 0, nil }
func (c *memCache) Ping(_ context.Context) error                           { return nil }

type memPublisher struct {
	requested []kafka.AnalysisRequested
	completed []kafka.AnalysisCompleted
}

func (p *memPublisher) PublishAnalysisRequested(_ context.Context, msg kafka.AnalysisRequested) error {
	p.requested = append(p.requested, msg)
	return nil
}

func (p *memPublisher) PublishAnalysisCompleted(_ context.Context, msg kafka.AnalysisCompleted) error {
	p.completed = append(p.completed, msg)
	return nil
}

type memSearch struct {
	indexed []opensearch.IndexedDocument
	removed []uuid.UUID
}

func (s *memSearch) Index(_ context.Context, doc opensearch.IndexedDocument) error {
	s.indexed = append(s.indexed, doc)
	return nil
}

func (s *memSearch) Delete(_ context.Context, id uuid.UUID) error {
	s.removed = append(s.removed, id)
	return nil
}

func (s *memSearch) Search(_ context.Context, _, _ string, _ int) ([]opensearch.SearchHit, error) {
	return nil, nil
}

type testEnv struct {
	svc       *Service
	repo      *memRepo
	analyses  *memAnalyses
	store     *memStore
	cache     *memCache
	publisher *memPublisher
	search    *memSearch
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      newMemRepo(),
		analyses:  &memAnalyses{},
		store:     newMemStore(),
		cache:     newMemCache(),
		publisher: &memPublisher{},
		search:    &memSearch{},
	}
	env.svc = NewService(Deps{
		Config:    config.AnalysisConfig{MaxDocumentBytes: 1 << 20, CacheTTL: time.Minute},
		Documents: env.repo,
		Analyses:  env.analyses,
		Store:     env.store,
		Cache:     env.cache,
		Publisher: env.publisher,
		Search:    env.search,
		Pipeline:  pipeline.New(provider.NewHeuristic(), nil),
	})
	return env
}

func upload(t *testing.T, env *testEnv) *document.Document {
	t.Helper()
	doc, err := env.svc.UploadDocument(context.Background(), UploadInput{
		Title:       "Service Agreement",
		Filename:    "agreement.txt",
		ContentType: "text/plain",
		OwnerID:     "user-1",
		Content:     []byte(contractText),
	})
	require.NoError(t, err)
	return doc
}

// --- tests ---

func TestUploadDocument(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)

	assert.Equal(t, document.StatusPending, doc.Status)
	assert.Equal(t, []byte(contractText), env.store.blobs[doc.StorageKey])

	stored, err := env.svc.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Service Agreement", stored.Title)
}

func TestUploadDocument_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UploadDocument(context.Background(), UploadInput{Title: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnsupportedInput))

	env.svc.cfg.MaxDocumentBytes = 10
	_, err = env.svc.UploadDocument(context.Background(), UploadInput{
		Title:   "x",
		Content: []byte("this is longer than ten bytes"),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDocumentTooLarge))

	env.svc.cfg.MaxDocumentBytes = 1 << 20
	_, err = env.svc.UploadDocument(context.Background(), UploadInput{Content: []byte("body")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestSubmitAnalysis(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)

	require.NoError(t, env.svc.SubmitAnalysis(context.Background(), doc.ID, "user-1"))
	require.Len(t, env.publisher.requested, 1)
	assert.Equal(t, doc.ID, env.publisher.requested[0].DocumentID)
	assert.Equal(t, doc.StorageKey, env.publisher.requested[0].StorageKey)
}

func TestSubmitAnalysis_Conflict(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)
	require.NoError(t, env.repo.UpdateStatus(context.Background(), doc.ID, document.StatusProcessing))

	err := env.svc.SubmitAnalysis(context.Background(), doc.ID, "user-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
	assert.Empty(t, env.publisher.requested)
}

func TestProcessAnalysisRequest(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)

	err := env.svc.ProcessAnalysisRequest(context.Background(), kafka.AnalysisRequested{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
	})
	require.NoError(t, err)

	// Status went processing -> completed.
	assert.Equal(t, []document.Status{document.StatusProcessing, document.StatusCompleted}, env.repo.statuses)

	require.Len(t, env.analyses.saved, 1)
	saved := env.analyses.saved[0]
	assert.Equal(t, doc.ID, saved.DocumentID)
	assert.Equal(t, "heuristic", saved.Provider)
	require.NotNil(t, saved.Report)

	require.Len(t, env.search.indexed, 1)
	assert.Equal(t, doc.ID, env.search.indexed[0].DocumentID)
	assert.Equal(t, string(saved.Report.Classification.PrimaryType), env.search.indexed[0].DocumentType)

	require.Len(t, env.publisher.completed, 1)
	done := env.publisher.completed[0]
	assert.True(t, done.Succeeded)
	assert.Equal(t, saved.ID, done.AnalysisID)
}

func TestProcessAnalysisRequest_MissingBlob(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)
	require.NoError(t, env.store.Delete(context.Background(), doc.StorageKey))

	err := env.svc.ProcessAnalysisRequest(context.Background(), kafka.AnalysisRequested{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
	})
	require.Error(t, err)

	assert.Equal(t, []document.Status{document.StatusProcessing, document.StatusFailed}, env.repo.statuses)
	require.Len(t, env.publisher.completed, 1)
	assert.False(t, env.publisher.completed[0].Succeeded)
	assert.NotEmpty(t, env.publisher.completed[0].Error)
	assert.Empty(t, env.analyses.saved)
}

func TestGetAnalysis_UsesCache(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)
	require.NoError(t, env.svc.ProcessAnalysisRequest(context.Background(), kafka.AnalysisRequested{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
	}))

	a, err := env.svc.GetAnalysis(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, a.DocumentID)

	// Cached by ProcessAnalysisRequest, so the loader never ran.
	assert.Zero(t, env.cache.loads)
}

func TestAnalyzeText_CachesByContent(t *testing.T) {
	env := newTestEnv(t)

	a, err := env.svc.AnalyzeText(context.Background(), contractText)
	require.NoError(t, err)
	b, err := env.svc.AnalyzeText(context.Background(), contractText)
	require.NoError(t, err)

	assert.Equal(t, 1, env.cache.loads)
	assert.Equal(t, a.Classification.PrimaryType, b.Classification.PrimaryType)
}

func TestAnalyzeText_Empty(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.AnalyzeText(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnsupportedInput))
}

func TestDeleteDocument_CleansUp(t *testing.T) {
	env := newTestEnv(t)
	doc := upload(t, env)

	require.NoError(t, env.svc.DeleteDocument(context.Background(), doc.ID))
	assert.Contains(t, env.store.deleted, doc.StorageKey)
	assert.Contains(t, env.search.removed, doc.ID)

	_, err := env.svc.GetDocument(context.Background(), doc.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDocumentNotFound))
}

func TestSearchDocuments_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SearchDocuments(context.Background(), "", "user-1", 10)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}
