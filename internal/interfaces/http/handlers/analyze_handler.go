package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// TextAnalyzer runs the pipeline on raw text.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) (*pipeline.Report, error)
}

// AnalyzeHandler serves synchronous text analysis.
type AnalyzeHandler struct {
	analyzer TextAnalyzer
}

// NewAnalyzeHandler builds an AnalyzeHandler.
func NewAnalyzeHandler(analyzer TextAnalyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze runs the full analysis pipeline on the posted text.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	report, err := h.analyzer.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
