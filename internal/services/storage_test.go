package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredName(t *testing.T) {
	tests := []struct {
		original string
		suffix   string
	}{
		{"report.pdf", "_report.pdf"},
		{"../../etc/passwd", "_passwd"},
		{`C:\Users\me\scan.png`, "_scan.png"},
		{"", "_file"},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name := storedName(tt.original)
			assert.True(t, strings.HasSuffix(name, tt.suffix), name)
			assert.NotContains(t, name, "/")
			assert.Len(t, name, 36+len(tt.suffix))
		})
	}
}

func TestLocalStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "invoice.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, "_invoice.pdf"), url)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestStoreUploadsStopsOnFirstFailure(t *testing.T) {
	store := newMemoryStore()

	_, err := storeUploads(context.Background(), store, []Upload{
		textUpload("a.txt", "a", "A", ""),
		brokenUpload("b.txt"),
	})
	require.Error(t, err)

	documents, err := storeUploads(context.Background(), store, []Upload{
		textUpload("a.txt", "a", "A", "first"),
	})
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "A", documents[0].Title)
	assert.Equal(t, "first", documents[0].Description)
}
