package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const documentsIndex = "documents"

// IndexedDocument is the searchable projection of an analyzed document.
type IndexedDocument struct {
	DocumentID   uuid.UUID `json:"document_id"`
	Title        string    `json:"title"`
	OwnerID      string    `json:"owner_id"`
	DocumentType string    `json:"document_type"`
	RiskScore    float64   `json:"risk_score"`
	Summary      string    `json:"summary"`
	Content      string    `json:"content"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// SearchHit is one search result.
type SearchHit struct {
	Document IndexedDocument `json:"document"`
	Score    float64         `json:"score"`
}

// documentsMapping keeps risk_score filterable and the text fields analyzed.
var documentsMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"document_id":   map[string]interface{}{"type": "keyword"},
			"title":         map[string]interface{}{"type": "text"},
			"owner_id":      map[string]interface{}{"type": "keyword"},
			"document_type": map[string]interface{}{"type": "keyword"},
			"risk_score":    map[string]interface{}{"type": "float"},
			"summary":       map[string]interface{}{"type": "text"},
			"content":       map[string]interface{}{"type": "text"},
			"indexed_at":    map[string]interface{}{"type": "date"},
		},
	},
}

// Indexer manages the documents index.
type Indexer struct {
	client *Client
	logger logging.Logger
}

// NewIndexer builds an Indexer and ensures the documents index exists.
func NewIndexer(ctx context.Context, client *Client, log logging.Logger) (*Indexer, error) {
	idx := &Indexer{client: client, logger: log.Named("search.indexer")}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Indexer) ensureIndex(ctx context.Context) error {
	name := i.client.IndexName(documentsIndex)

	existsReq := opensearchapi.IndicesExistsRequest{Index: []string{name}}
	resp, err := existsReq.Do(ctx, i.client.Raw())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to check index existence")
	}
	resp.Body.Close()
	if resp.StatusCode == 200 {
		return nil
	}

	body, err := json.Marshal(documentsMapping)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode index mapping")
	}
	createReq := opensearchapi.IndicesCreateRequest{Index: name, Body: bytes.NewReader(body)}
	resp, err = createReq.Do(ctx, i.client.Raw())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to create index")
	}
	defer resp.Body.Close()
	if resp.IsError() && resp.StatusCode != 400 { // 400: lost the creation race
		return apperrors.Newf(apperrors.ErrCodeExternalService, "index creation returned status %d", resp.StatusCode)
	}

	i.logger.Info("created search index", logging.String("index", name))
	return nil
}

// Index upserts the searchable projection of a document.
func (i *Indexer) Index(ctx context.Context, doc IndexedDocument) error {
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now().UTC()
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode document")
	}

	req := opensearchapi.IndexRequest{
		Index:      i.client.IndexName(documentsIndex),
		DocumentID: doc.DocumentID.String(),
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to index document")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return apperrors.Newf(apperrors.ErrCodeExternalService, "indexing returned status %d", resp.StatusCode)
	}

	i.logger.Debug("indexed document", logging.String("document_id", doc.DocumentID.String()))
	return nil
}

// Delete removes a document from the index; missing documents are not an error.
func (i *Indexer) Delete(ctx context.Context, documentID uuid.UUID) error {
	req := opensearchapi.DeleteRequest{
		Index:      i.client.IndexName(documentsIndex),
		DocumentID: documentID.String(),
	}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "failed to delete document from index")
	}
	defer resp.Body.Close()
	if resp.IsError() && resp.StatusCode != 404 {
		return apperrors.Newf(apperrors.ErrCodeExternalService, "index delete returned status %d", resp.StatusCode)
	}
	return nil
}

// Search runs a multi-field match query, optionally scoped to an owner.
func (i *Indexer) Search(ctx context.Context, query, ownerID string, limit int) ([]SearchHit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	must := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "summary", "content"},
			},
		},
	}
	if ownerID != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"owner_id": ownerID},
		})
	}
	body, err := json.Marshal(map[string]interface{}{
		"size":  limit,
		"query": map[string]interface{}{"bool": map[string]interface{}{"must": must}},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode search query")
	}

	index := i.client.IndexName(documentsIndex)
	resp, err := i.client.Raw().Search(
		i.client.Raw().Search.WithContext(ctx),
		i.client.Raw().Search.WithIndex(index),
		i.client.Raw().Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, apperrors.Newf(apperrors.ErrCodeExternalService, "search returned status %d", resp.StatusCode)
	}

	return decodeSearchResponse(resp.Body)
}

func decodeSearchResponse(r io.Reader) ([]SearchHit, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source IndexedDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode search response")
	}

	hits := make([]SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, SearchHit{Document: h.Source, Score: h.Score})
	}
	return hits, nil
}
