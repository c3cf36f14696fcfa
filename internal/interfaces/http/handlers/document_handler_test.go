package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/clauselens/clauselens/internal/application/analysis"
	"github.com/clauselens/clauselens/internal/domain/document"
	"github.com/clauselens/clauselens/internal/infrastructure/search/opensearch"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	docs      map[uuid.UUID]*document.Document
	submitted []uuid.UUID
	uploadErr error
	searchQ   string
}

func newStubService() *stubService {
	return &stubService{docs: map[uuid.UUID]*document.Document{}}
}

func (s *stubService) UploadDocument(_ context.Context, input appanalysis.UploadInput) (*document.Document, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	doc := document.New(input.Title, input.Filename, input.ContentType, input.OwnerID, int64(len(input.Content)))
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *stubService) GetDocument(_ context.Context, id uuid.UUID) (*document.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return doc, nil
}

func (s *stubService) ListDocuments(_ context.Context, _ document.ListFilter) ([]*document.Document, int, error) {
	var out []*document.Document
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (s *stubService) DeleteDocument(_ context.Context, id uuid.UUID) error {
	if _, ok := s.docs[id]; !ok {
		return apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	delete(s.docs, id)
	return nil
}

func (s *stubService) SubmitAnalysis(_ context.Context, id uuid.UUID, _ string) error {
	if _, ok := s.docs[id]; !ok {
		return apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	s.submitted = append(s.submitted, id)
	return nil
}

func (s *stubService) GetAnalysis(_ context.Context, documentID uuid.UUID) (*document.Analysis, error) {
	return nil, apperrors.Newf(apperrors.ErrCodeAnalysisNotFound, "no analysis for document %s", documentID)
}

func (s *stubService) SearchDocuments(_ context.Context, query, _ string, _ int) ([]opensearch.SearchHit, error) {
	if query == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "search query is required")
	}
	s.searchQ = query
	return []opensearch.SearchHit{}, nil
}

func newDocRouter(s *stubService) *gin.Engine {
	h := NewDocumentHandler(s)
	r := gin.New()
	r.POST("/documents", h.Upload)
	r.GET("/documents", h.List)
	r.GET("/documents/search", h.Search)
	r.GET("/documents/:id", h.Get)
	r.DELETE("/documents/:id", h.Delete)
	r.POST("/documents/:id/analyze", h.Analyze)
	r.GET("/documents/:id/analysis", h.GetAnalysis)
	return r
}

func TestUpload_Multipart(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "NDA"))
	part, err := mw.CreateFormFile("file", "nda.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("The parties agree to keep information confidential."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var doc document.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "NDA", doc.Title)
	assert.Equal(t, "nda.txt", doc.Filename)
}

func TestUpload_RawBody(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents?title=Lease", bytes.NewBufferString("lease text"))
	req.Header.Set("Content-Type", "text/plain")
	r.ServeHTTP(w, req)

	// Raw uploads without a form title fail validation in the service; here
	// the stub accepts them, so the handler path itself must succeed.
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestUpload_ServiceError(t *testing.T) {
	s := newStubService()
	s.uploadErr = apperrors.New(apperrors.ErrCodeDocumentTooLarge, "too big")
	r := newDocRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewBufferString("x"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "DOC_003")
}

func TestGet_NotFoundAndInvalidID(t *testing.T) {
	r := newDocRouter(newStubService())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_Queues(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)
	doc := document.New("t", "t.txt", "text/plain", "u", 1)
	s.docs[doc.ID] = doc

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents/"+doc.ID.String()+"/analyze", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []uuid.UUID{doc.ID}, s.submitted)
}

func TestDelete(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)
	doc := document.New("t", "t.txt", "text/plain", "u", 1)
	s.docs[doc.ID] = doc

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/"+doc.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.docs)
}

func TestList_InvalidStatus(t *testing.T) {
	r := newDocRouter(newStubService())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/search?q=confidential", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confidential", s.searchQ)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAnalysis_NotFound(t *testing.T) {
	s := newStubService()
	r := newDocRouter(s)
	doc := document.New("t", "t.txt", "text/plain", "u", 1)
	s.docs[doc.ID] = doc

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/"+doc.ID.String()+"/analysis", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ANA_003")
}
