package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/analysis/pipeline"
	"github.com/clauselens/clauselens/internal/provider"
)

func newAnalyzeRouter(analyzer TextAnalyzer) *gin.Engine {
	r := gin.New()
	r.POST("/analyze", NewAnalyzeHandler(analyzer).Analyze)
	return r
}

type pipelineAnalyzer struct {
	p *pipeline.Pipeline
}

func (a pipelineAnalyzer) AnalyzeText(ctx context.Context, text string) (*pipeline.Report, error) {
	return a.p.AnalyzeDocument(ctx, text)
}

func TestAnalyze_Success(t *testing.T) {
	r := newAnalyzeRouter(pipelineAnalyzer{p: pipeline.New(provider.NewHeuristic(), nil)})

	body, err := json.Marshal(map[string]string{
		"text": "The Employee shall not disclose confidential information. The Company shall pay a salary of $50,000.",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "heuristic", report.Provider)
	assert.NotEmpty(t, report.Clauses)
	assert.Positive(t, report.Statistics.WordCount)
}

func TestAnalyze_EmptyText(t *testing.T) {
	r := newAnalyzeRouter(pipelineAnalyzer{p: pipeline.New(provider.NewHeuristic(), nil)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DOC_001")
}

func TestAnalyze_MalformedBody(t *testing.T) {
	r := newAnalyzeRouter(pipelineAnalyzer{p: pipeline.New(provider.NewHeuristic(), nil)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
