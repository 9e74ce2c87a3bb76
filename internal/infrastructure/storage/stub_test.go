package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubReceiptStorage_Upload(t *testing.T) {
	s := NewStubReceiptStorage()
	ctx := context.Background()

	t.Run("stores data and returns URL", func(t *testing.T) {
		url, err := s.Upload(ctx, "receipts/2024/08/r1.jpg", []byte("jpeg-bytes"), "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "https://storage.example.com/receipts/2024/08/r1.jpg", url)

		data, ok := s.Get("receipts/2024/08/r1.jpg")
		require.True(t, ok)
		assert.Equal(t, []byte("jpeg-bytes"), data)
	})

	t.Run("empty key returns error", func(t *testing.T) {
		_, err := s.Upload(ctx, "", []byte("data"), "image/jpeg")
		require.Error(t, err)
	})

	t.Run("empty data returns error", func(t *testing.T) {
		_, err := s.Upload(ctx, "receipts/r2.jpg", nil, "image/jpeg")
		require.Error(t, err)
	})
}

func TestStubReceiptStorage_DeleteObject(t *testing.T) {
	s := NewStubReceiptStorage()
	ctx := context.Background()

	_, err := s.Upload(ctx, "receipts/r.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)

	require.NoError(t, s.DeleteObject(ctx, "receipts/r.pdf"))
	_, ok := s.Get("receipts/r.pdf")
	assert.False(t, ok)

	// Deleting an absent key is not an error
	require.NoError(t, s.DeleteObject(ctx, "receipts/missing.pdf"))

	err = s.DeleteObject(ctx, "")
	require.Error(t, err)
}
