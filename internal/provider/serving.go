package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const defaultServingTimeout = 30 * time.Second

// serving is the HTTP client for an external model-serving endpoint.  The
// protocol is one JSON POST per task:
//
//	POST {base}/v1/sentences   {"text": ...} → {"sentences": [{"text","start","end"}]}
//	POST {base}/v1/entities    {"text": ...} → {"entities": {"LABEL": [...]}}
//	POST {base}/v1/sentiment   {"text": ...} → {"polarity", "subjectivity"}
//	POST {base}/v1/readability {"text": ...} → readability metric object
//
// Any transport error, non-200 status, or undecodable body surfaces as
// ErrCodeProviderFailure.
type serving struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// NewServing builds the model-serving provider.  timeout of zero selects the
// default of 30s.
func NewServing(baseURL string, timeout time.Duration, logger logging.Logger) (Provider, error) {
	if baseURL == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "serving provider requires a base URL")
	}
	if timeout <= 0 {
		timeout = defaultServingTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serving{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("provider.serving"),
	}, nil
}

func (s *serving) Name() string { return "serving" }

type textRequest struct {
	Text string `json:"text"`
}

func (s *serving) call(ctx context.Context, path string, text string, out interface{}) error {
	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "failed to encode serving request")
	}

	url := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "failed to build serving request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("serving call failed",
			logging.String("path", path),
			logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "serving call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a bounded prefix for the error detail.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("serving returned non-OK status",
			logging.String("path", path),
			logging.Int("status", resp.StatusCode))
		return apperrors.Newf(apperrors.ErrCodeProviderFailure,
			"serving returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "failed to decode serving response")
	}

	s.logger.Debug("serving call completed",
		logging.String("path", path),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *serving) TokenizeSentences(ctx context.Context, text string) ([]SentenceSpan, error) {
	var resp struct {
		Sentences []SentenceSpan `json:"sentences"`
	}
	if err := s.call(ctx, "/v1/sentences", text, &resp); err != nil {
		return nil, err
	}
	for i, sp := range resp.Sentences {
		if sp.Start < 0 || sp.End > len(text) || sp.Start > sp.End {
			return nil, apperrors.Newf(apperrors.ErrCodeProviderFailure,
				"serving returned out-of-bounds sentence span %d [%d:%d]", i, sp.Start, sp.End)
		}
	}
	return resp.Sentences, nil
}

func (s *serving) ExtractEntities(ctx context.Context, text string) (map[string][]string, error) {
	var resp struct {
		Entities map[string][]string `json:"entities"`
	}
	if err := s.call(ctx, "/v1/entities", text, &resp); err != nil {
		return nil, err
	}
	if resp.Entities == nil {
		resp.Entities = map[string][]string{}
	}
	return resp.Entities, nil
}

func (s *serving) Sentiment(ctx context.Context, text string) (Sentiment, error) {
	var resp Sentiment
	if err := s.call(ctx, "/v1/sentiment", text, &resp); err != nil {
		return Sentiment{}, err
	}
	return resp, nil
}

func (s *serving) Readability(ctx context.Context, text string) (Readability, error) {
	var resp Readability
	if err := s.call(ctx, "/v1/readability", text, &resp); err != nil {
		return Readability{}, err
	}
	return resp, nil
}

// Healthy probes the serving endpoint's health route.  Not part of the
// Provider contract; the readiness handler uses it when the serving provider
// is configured.
func (s *serving) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthz", nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "failed to build health request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeProviderFailure, "serving health check failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.Newf(apperrors.ErrCodeProviderFailure, "serving health returned status %d", resp.StatusCode)
	}
	return nil
}
