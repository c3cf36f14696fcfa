package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/domain/document"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// AnalysisRepository stores analysis reports as JSONB rows.
type AnalysisRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAnalysisRepository builds an AnalysisRepository.
func NewAnalysisRepository(pool *pgxpool.Pool, log logging.Logger) *AnalysisRepository {
	return &AnalysisRepository{pool: pool, logger: log}
}

var _ document.AnalysisRepository = (*AnalysisRepository)(nil)

func (r *AnalysisRepository) Save(ctx context.Context, a *document.Analysis) error {
	report, err := json.Marshal(a.Report)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode analysis report")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO analyses (id, document_id, report, provider, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.DocumentID, report, a.Provider, a.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to insert analysis")
	}
	return nil
}

func (r *AnalysisRepository) GetLatestByDocument(ctx context.Context, documentID uuid.UUID) (*document.Analysis, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, document_id, report, provider, created_at
		FROM analyses
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, documentID)

	var (
		a      document.Analysis
		report []byte
	)
	err := row.Scan(&a.ID, &a.DocumentID, &report, &a.Provider, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrCodeAnalysisNotFound,
			"no analysis for document %s", documentID)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load analysis")
	}

	a.Report = &pipeline.Report{}
	if err := json.Unmarshal(report, a.Report); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode analysis report")
	}
	return &a, nil
}
