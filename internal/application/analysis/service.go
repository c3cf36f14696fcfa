// Package analysis is the application service for document analysis: it
// validates input, orchestrates the pipeline, and fans results out to
// storage, cache, search, and the event stream.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/document"
	"github.com/clauselens/clauselens/internal/infrastructure/database/redis"
	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/search/opensearch"
	"github.com/clauselens/clauselens/internal/infrastructure/storage/minio"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Publisher emits analysis workflow events.
type Publisher interface {
	PublishAnalysisRequested(ctx context.Context, msg kafka.AnalysisRequested) error
	PublishAnalysisCompleted(ctx context.Context, msg kafka.AnalysisCompleted) error
}

// SearchIndex maintains the searchable document projection.
type SearchIndex interface {
	Index(ctx context.Context, doc opensearch.IndexedDocument) error
	Delete(ctx context.Context, documentID uuid.UUID) error
	Search(ctx context.Context, query, ownerID string, limit int) ([]opensearch.SearchHit, error)
}

// Recorder counts completed analyses; satisfied by the prometheus metrics.
type Recorder interface {
	RecordAnalysis(documentType string, riskScore float64, succeeded bool)
}

// Service is the document analysis application service.
type Service struct {
	cfg       config.AnalysisConfig
	documents document.Repository
	analyses  document.AnalysisRepository
	store     minio.DocumentStore
	cache     redis.Cache
	publisher Publisher
	search    SearchIndex
	pipeline  *pipeline.Pipeline
	recorder  Recorder
	logger    logging.Logger
}

// Deps bundles the service dependencies.
type Deps struct {
	Config    config.AnalysisConfig
	Documents document.Repository
	Analyses  document.AnalysisRepository
	Store     minio.DocumentStore
	Cache     redis.Cache
	Publisher Publisher
	Search    SearchIndex
	Pipeline  *pipeline.Pipeline
	Recorder  Recorder
	Logger    logging.Logger
}

// NewService builds the analysis service.
func NewService(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		cfg:       deps.Config,
		documents: deps.Documents,
		analyses:  deps.Analyses,
		store:     deps.Store,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		search:    deps.Search,
		pipeline:  deps.Pipeline,
		recorder:  deps.Recorder,
		logger:    log.Named("analysis.service"),
	}
}

// UploadInput describes a document upload.
type UploadInput struct {
	Title       string
	Filename    string
	ContentType string
	OwnerID     string
	Content     []byte
}

func (s *Service) validateSize(n int) error {
	if n == 0 {
		return apperrors.New(apperrors.ErrCodeUnsupportedInput, "document is empty")
	}
	if max := s.cfg.MaxDocumentBytes; max > 0 && int64(n) > max {
		return apperrors.Newf(apperrors.ErrCodeDocumentTooLarge,
			"document size %d exceeds limit %d", n, max)
	}
	return nil
}

// UploadDocument stores the blob and creates the document record.
func (s *Service) UploadDocument(ctx context.Context, input UploadInput) (*document.Document, error) {
	if err := s.validateSize(len(input.Content)); err != nil {
		return nil, err
	}
	if input.Title == "" {
		input.Title = input.Filename
	}
	if input.Title == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "title or filename is required")
	}

	doc := document.New(input.Title, input.Filename, input.ContentType, input.OwnerID, int64(len(input.Content)))
	if err := s.store.Put(ctx, doc.StorageKey, input.Content, input.ContentType); err != nil {
		return nil, err
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		// Best effort cleanup of the orphaned blob.
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				logging.String("key", doc.StorageKey), logging.Err(delErr))
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		logging.String("document_id", doc.ID.String()),
		logging.Int64("size", doc.SizeBytes))
	return doc, nil
}

// GetDocument loads a document record.
func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return s.documents.GetByID(ctx, id)
}

// ListDocuments lists document records.
func (s *Service) ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, int, error) {
	return s.documents.List(ctx, filter)
}

// DeleteDocument removes the record, blob, index entry, and cached report.
func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}

	// The record is gone; everything else is cleanup.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("failed to delete blob", logging.String("key", doc.StorageKey), logging.Err(err))
	}
	if err := s.search.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete search entry", logging.String("document_id", id.String()), logging.Err(err))
	}
	if err := s.cache.Delete(ctx, reportCacheKey(id)); err != nil {
		s.logger.Warn("failed to evict cached report", logging.String("document_id", id.String()), logging.Err(err))
	}
	return nil
}

// SubmitAnalysis enqueues an async analysis of a stored document.
func (s *Service) SubmitAnalysis(ctx context.Context, id uuid.UUID, requestedBy string) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == document.StatusProcessing {
		return apperrors.Newf(apperrors.ErrCodeConflict, "document %s is already being analyzed", id)
	}
	return s.publisher.PublishAnalysisRequested(ctx, kafka.AnalysisRequested{
		DocumentID:  id,
		StorageKey:  doc.StorageKey,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	})
}

// GetAnalysis returns the latest stored analysis, preferring the cache.
func (s *Service) GetAnalysis(ctx context.Context, documentID uuid.UUID) (*document.Analysis, error) {
	var a document.Analysis
	err := s.cache.GetOrSet(ctx, reportCacheKey(documentID), &a, s.cfg.CacheTTL,
		func(ctx context.Context) (interface{}, error) {
			stored, err := s.analyses.GetLatestByDocument(ctx, documentID)
			if err != nil {
				return nil, err
			}
			return stored, nil
		})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AnalyzeText runs the pipeline on raw text without persisting a document.
// Identical inputs share a content-addressed cache entry.
func (s *Service) AnalyzeText(ctx context.Context, text string) (*pipeline.Report, error) {
	if err := s.validateSize(len(text)); err != nil {
		return nil, err
	}

	var report pipeline.Report
	key := textCacheKey(text)
	err := s.cache.GetOrSet(ctx, key, &report, s.cfg.CacheTTL,
		func(ctx context.Context) (interface{}, error) {
			r, err := s.pipeline.AnalyzeDocument(ctx, text)
			if err != nil {
				return nil, err
			}
			if s.recorder != nil {
				s.recorder.RecordAnalysis(string(r.Classification.PrimaryType), r.Risk.OverallScore, true)
			}
			return r, nil
		})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ProcessAnalysisRequest is the worker entrypoint: it loads the stored
// document, runs the pipeline, persists and indexes the result, and
// publishes the completion event.
func (s *Service) ProcessAnalysisRequest(ctx context.Context, msg kafka.AnalysisRequested) error {
	doc, err := s.documents.GetByID(ctx, msg.DocumentID)
	if err != nil {
		return err
	}
	if err := s.documents.UpdateStatus(ctx, doc.ID, document.StatusProcessing); err != nil {
		return err
	}

	report, runErr := s.runAnalysis(ctx, doc, msg.StorageKey)
	if runErr != nil {
		if err := s.documents.UpdateStatus(ctx, doc.ID, document.StatusFailed); err != nil {
			s.logger.Error("failed to mark document failed",
				logging.String("document_id", doc.ID.String()), logging.Err(err))
		}
		if s.recorder != nil {
			s.recorder.RecordAnalysis("", 0, false)
		}
		s.publishCompleted(ctx, kafka.AnalysisCompleted{
			DocumentID: doc.ID,
			Succeeded:  false,
			Error:      runErr.Error(),
		})
		return runErr
	}

	analysis := &document.Analysis{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		Report:     report,
		Provider:   report.Provider,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.analyses.Save(ctx, analysis); err != nil {
		return err
	}
	if err := s.documents.UpdateStatus(ctx, doc.ID, document.StatusCompleted); err != nil {
		return err
	}

	if err := s.cache.Set(ctx, reportCacheKey(doc.ID), analysis, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache analysis", logging.String("document_id", doc.ID.String()), logging.Err(err))
	}
	if err := s.search.Index(ctx, opensearch.IndexedDocument{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		OwnerID:      doc.OwnerID,
		DocumentType: string(report.Classification.PrimaryType),
		RiskScore:    report.Risk.OverallScore,
		Summary:      report.Summary.Executive,
	}); err != nil {
		s.logger.Warn("failed to index document", logging.String("document_id", doc.ID.String()), logging.Err(err))
	}

	if s.recorder != nil {
		s.recorder.RecordAnalysis(string(report.Classification.PrimaryType), report.Risk.OverallScore, true)
	}
	s.publishCompleted(ctx, kafka.AnalysisCompleted{
		DocumentID:   doc.ID,
		AnalysisID:   analysis.ID,
		Succeeded:    true,
		DocumentType: string(report.Classification.PrimaryType),
		RiskScore:    report.Risk.OverallScore,
	})

	s.logger.Info("analysis completed",
		logging.String("document_id", doc.ID.String()),
		logging.String("document_type", string(report.Classification.PrimaryType)),
		logging.Float64("risk_score", report.Risk.OverallScore))
	return nil
}

func (s *Service) runAnalysis(ctx context.Context, doc *document.Document, storageKey string) (*pipeline.Report, error) {
	if storageKey == "" {
		storageKey = doc.StorageKey
	}
	text, err := s.store.GetText(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if err := s.validateSize(len(text)); err != nil {
		return nil, err
	}
	return s.pipeline.AnalyzeDocument(ctx, text)
}

func (s *Service) publishCompleted(ctx context.Context, msg kafka.AnalysisCompleted) {
	if err := s.publisher.PublishAnalysisCompleted(ctx, msg); err != nil {
		s.logger.Warn("failed to publish completion event",
			logging.String("document_id", msg.DocumentID.String()), logging.Err(err))
	}
}

// SearchDocuments runs a full-text search over analyzed documents.
func (s *Service) SearchDocuments(ctx context.Context, query, ownerID string, limit int) ([]opensearch.SearchHit, error) {
	if query == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "search query is required")
	}
	return s.search.Search(ctx, query, ownerID, limit)
}

func reportCacheKey(documentID uuid.UUID) string {
	return "analysis:document:" + documentID.String()
}

func textCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "analysis:text:" + hex.EncodeToString(sum[:])
}
