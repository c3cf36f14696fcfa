package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

func TestNew(t *testing.T) {
	doc := New("Offer Letter", "offer.txt", "text/plain", "user-1", 1234)

	assert.NotEqual(t, "", doc.ID.String())
	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, "documents/"+doc.ID.String(), doc.StorageKey)
	assert.Equal(t, int64(1234), doc.SizeBytes)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestTransition(t *testing.T) {
	doc := New("t", "t.txt", "text/plain", "u", 1)

	require.NoError(t, doc.Transition(StatusProcessing))
	require.NoError(t, doc.Transition(StatusCompleted))

	// Completed documents may be re-analyzed.
	require.NoError(t, doc.Transition(StatusProcessing))
	require.NoError(t, doc.Transition(StatusFailed))
	require.NoError(t, doc.Transition(StatusProcessing))
}

func TestTransition_Invalid(t *testing.T) {
	doc := New("t", "t.txt", "text/plain", "u", 1)

	err := doc.Transition(StatusCompleted)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
	assert.Equal(t, StatusPending, doc.Status)

	err = doc.Transition(Status("archived"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("bogus").Valid())
}
