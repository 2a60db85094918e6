package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/n8nhub/pkg/models"
)

func TestBlobRoundTrip(t *testing.T) {
	instances := []models.Instance{{ID: "a-co", Name: "A"}}

	raw, err := EncodeBlob(instances)
	require.NoError(t, err)

	var decoded []models.Instance
	require.NoError(t, DecodeBlob(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a-co", decoded[0].ID)
}

func TestDecodeBlobCorruptContentIsParse(t *testing.T) {
	var decoded []models.Instance

	err := DecodeBlob([]byte("{not json"), &decoded)
	require.Error(t, err)
	assert.True(t, IsParse(err))
}

func TestDecodeBlobNewerVersionIsParse(t *testing.T) {
	var decoded []models.Instance

	err := DecodeBlob([]byte(`{"version":99,"data":[]}`), &decoded)
	require.Error(t, err)
	assert.True(t, IsParse(err))
}

func TestBlobErrorClassification(t *testing.T) {
	parseErr := &BlobError{Op: "Workflows", Blob: BlobWorkflows, Err: ErrParse}
	assert.True(t, IsParse(parseErr))
	assert.True(t, errors.Is(parseErr, ErrParse))

	connErr := &BlobError{Op: "Workflows", Blob: BlobWorkflows, Err: ErrUnavailable}
	assert.False(t, IsParse(connErr))
	assert.True(t, errors.Is(connErr, ErrUnavailable))
}
