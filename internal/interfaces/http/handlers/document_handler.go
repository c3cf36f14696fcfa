package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appanalysis "github.com/clauselens/clauselens/internal/application/analysis"
	"github.com/clauselens/clauselens/internal/domain/document"
	"github.com/clauselens/clauselens/internal/infrastructure/search/opensearch"
	"github.com/clauselens/clauselens/internal/interfaces/http/middleware"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// DocumentService is the application surface the document handler needs.
type DocumentService interface {
	UploadDocument(ctx context.Context, input appanalysis.UploadInput) (*document.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error)
	ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, int, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	SubmitAnalysis(ctx context.Context, id uuid.UUID, requestedBy string) error
	GetAnalysis(ctx context.Context, documentID uuid.UUID) (*document.Analysis, error)
	SearchDocuments(ctx context.Context, query, ownerID string, limit int) ([]opensearch.SearchHit, error)
}

// DocumentHandler serves the document CRUD and analysis endpoints.
type DocumentHandler struct {
	service DocumentService
}

// NewDocumentHandler builds a DocumentHandler.
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Upload accepts a multipart file or a raw body and stores the document.
func (h *DocumentHandler) Upload(c *gin.Context) {
	input := appanalysis.UploadInput{
		Title:   c.PostForm("title"),
		OwnerID: middleware.UserID(c),
	}

	file, header, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		content, readErr := io.ReadAll(file)
		if readErr != nil {
			respondError(c, apperrors.Wrap(readErr, apperrors.ErrCodeBadRequest, "failed to read upload"))
			return
		}
		input.Content = content
		input.Filename = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
	} else {
		content, readErr := io.ReadAll(c.Request.Body)
		if readErr != nil {
			respondError(c, apperrors.Wrap(readErr, apperrors.ErrCodeBadRequest, "failed to read request body"))
			return
		}
		input.Content = content
		input.ContentType = c.ContentType()
	}

	doc, err := h.service.UploadDocument(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get returns one document record.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List returns the caller's documents.
func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	filter := document.ListFilter{
		OwnerID: middleware.UserID(c),
		Status:  document.Status(c.Query("status")),
		Search:  c.Query("q"),
		Limit:   limit,
		Offset:  offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, apperrors.Newf(apperrors.ErrCodeValidation, "unknown status %q", filter.Status))
		return
	}

	docs, total, err := h.service.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// Delete removes a document and its derived data.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Analyze enqueues an async analysis of the document.
func (h *DocumentHandler) Analyze(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.SubmitAnalysis(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"document_id": id, "status": "queued"})
}

// GetAnalysis returns the latest analysis report for the document.
func (h *DocumentHandler) GetAnalysis(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.service.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Search runs a full-text search over the caller's analyzed documents.
func (h *DocumentHandler) Search(c *gin.Context) {
	limit, _ := pagination(c)
	hits, err := h.service.SearchDocuments(c.Request.Context(), c.Query("q"), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "total": len(hits)})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.New(apperrors.ErrCodeValidation, "invalid document id"))
		return uuid.Nil, false
	}
	return id, true
}
