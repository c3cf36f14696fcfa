// Package opensearch provides full-text indexing and search over analyzed
// documents.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// Client wraps the OpenSearch connection.
type Client struct {
	client *opensearch.Client
	cfg    config.OpenSearchConfig
	logger logging.Logger
}

// NewClient connects to the OpenSearch cluster and verifies the connection.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "opensearch addresses are required")
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{429, 502, 503, 504},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to create opensearch client")
	}

	c := &Client{client: osClient, cfg: cfg, logger: log}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("connected to OpenSearch", logging.Any("addresses", cfg.Addresses))
	return c, nil
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "opensearch ping failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return apperrors.Newf(apperrors.ErrCodeExternalService, "opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

// Raw returns the underlying OpenSearch client.
func (c *Client) Raw() *opensearch.Client { return c.client }

// IndexName prefixes idx with the configured index prefix.
func (c *Client) IndexName(idx string) string {
	prefix := c.cfg.IndexPrefix
	if prefix == "" {
		prefix = "clauselens"
	}
	return prefix + "-" + idx
}
