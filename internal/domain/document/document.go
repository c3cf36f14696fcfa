// Package document holds the document aggregate: the uploaded legal document,
// its lifecycle status, and the persistence contracts.
package document

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Status is the document's analysis lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// validTransitions maps each status to the states it may move to.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
	StatusCompleted:  {StatusProcessing}, // re-analysis
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, t := range validTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Document is an uploaded legal document.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	OwnerID     string    `json:"owner_id"`
	Status      Status    `json:"status"`
	StorageKey  string    `json:"storage_key"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New creates a pending document with a fresh ID and storage key.
func New(title, filename, contentType, ownerID string, size int64) *Document {
	id := uuid.New()
	now := time.Now().UTC()
	return &Document{
		ID:          id,
		Title:       title,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
		OwnerID:     ownerID,
		Status:      StatusPending,
		StorageKey:  "documents/" + id.String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the document to next, validating the state machine.
func (d *Document) Transition(next Status) error {
	if !next.Valid() {
		return apperrors.Newf(apperrors.ErrCodeValidation, "unknown document status %q", next)
	}
	if !d.Status.CanTransition(next) {
		return apperrors.Newf(apperrors.ErrCodeConflict,
			"invalid status transition %s -> %s", d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Analysis is a stored analysis run of a document.
type Analysis struct {
	ID         uuid.UUID        `json:"id"`
	DocumentID uuid.UUID        `json:"document_id"`
	Report     *pipeline.Report `json:"report"`
	Provider   string           `json:"provider"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	OwnerID string
	Status  Status
	Search  string
	Limit   int
	Offset  int
}

// Repository is the document persistence contract.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	List(ctx context.Context, filter ListFilter) ([]*Document, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnalysisRepository persists analysis reports.
type AnalysisRepository interface {
	Save(ctx context.Context, a *Analysis) error
	GetLatestByDocument(ctx context.Context, documentID uuid.UUID) (*Analysis, error)
}
