package opensearch

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/config"
)

func TestIndexName(t *testing.T) {
	c := &Client{cfg: config.OpenSearchConfig{IndexPrefix: "cl-test"}}
	assert.Equal(t, "cl-test-documents", c.IndexName(documentsIndex))

	// Default prefix.
	c = &Client{}
	assert.Equal(t, "clauselens-documents", c.IndexName(documentsIndex))
}

func TestDecodeSearchResponse(t *testing.T) {
	id := uuid.New()
	payload := `{
		"hits": {
			"hits": [
				{"_score": 2.5, "_source": {"document_id": "` + id.String() + `", "title": "NDA", "risk_score": 0.4}},
				{"_score": 1.1, "_source": {"title": "Lease"}}
			]
		}
	}`

	hits, err := decodeSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id, hits[0].Document.DocumentID)
	assert.Equal(t, "NDA", hits[0].Document.Title)
	assert.InDelta(t, 2.5, hits[0].Score, 0.001)
	assert.Equal(t, "Lease", hits[1].Document.Title)
}

func TestDecodeSearchResponse_Empty(t *testing.T) {
	hits, err := decodeSearchResponse(strings.NewReader(`{"hits":{"hits":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDecodeSearchResponse_Malformed(t *testing.T) {
	_, err := decodeSearchResponse(strings.NewReader(`{not json`))
	assert.Error(t, err)
}
