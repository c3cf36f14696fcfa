// Package kafka carries the async analysis workflow: the API enqueues
// analysis requests and workers publish completion events.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Topic names. Keyed by document ID so per-document ordering holds.
const (
	TopicAnalysisRequested = "clauselens.analysis.requested"
	TopicAnalysisCompleted = "clauselens.analysis.completed"
)

// AnalysisRequested asks a worker to analyze a stored document.
type AnalysisRequested struct {
	DocumentID  uuid.UUID `json:"document_id"`
	StorageKey  string    `json:"storage_key"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// AnalysisCompleted reports the outcome of an analysis run.
type AnalysisCompleted struct {
	DocumentID   uuid.UUID `json:"document_id"`
	AnalysisID   uuid.UUID `json:"analysis_id,omitempty"`
	Succeeded    bool      `json:"succeeded"`
	Error        string    `json:"error,omitempty"`
	DocumentType string    `json:"document_type,omitempty"`
	RiskScore    float64   `json:"risk_score,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Validate checks required fields before publishing.
func (m AnalysisRequested) Validate() error {
	if m.DocumentID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeValidation, "document_id is required")
	}
	if m.StorageKey == "" {
		return apperrors.New(apperrors.ErrCodeValidation, "storage_key is required")
	}
	return nil
}

// Validate checks required fields before publishing.
func (m AnalysisCompleted) Validate() error {
	if m.DocumentID == uuid.Nil {
		return apperrors.New(apperrors.ErrCodeValidation, "document_id is required")
	}
	if !m.Succeeded && m.Error == "" {
		return apperrors.New(apperrors.ErrCodeValidation, "failed completions must carry an error")
	}
	return nil
}

// EncodeMessage serializes a message and returns the partition key.
func EncodeMessage(documentID uuid.UUID, payload interface{}) (key, value []byte, err error) {
	value, err = json.Marshal(payload)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode message")
	}
	return []byte(documentID.String()), value, nil
}

// DecodeAnalysisRequested parses an AnalysisRequested payload.
func DecodeAnalysisRequested(value []byte) (AnalysisRequested, error) {
	var m AnalysisRequested
	if err := json.Unmarshal(value, &m); err != nil {
		return m, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode analysis request")
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// DecodeAnalysisCompleted parses an AnalysisCompleted payload.
func DecodeAnalysisCompleted(value []byte) (AnalysisCompleted, error) {
	var m AnalysisCompleted
	if err := json.Unmarshal(value, &m); err != nil {
		return m, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode analysis completion")
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}
