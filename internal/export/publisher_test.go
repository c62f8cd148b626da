package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	lastKey         string
	lastPayload     []byte
	lastContentType string
	err             error
}

func (f *fakeObjectStore) Put(_ context.Context, key string, payload []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastKey = key
	f.lastPayload = payload
	f.lastContentType = contentType
	return "https://files.example.com/" + key, nil
}

func TestPublisher_Publish(t *testing.T) {
	store := &fakeObjectStore{}
	p := NewPublisher(store, "exports")

	enc := Encoded{
		Payload:     make([]byte, 2048),
		ContentType: "text/csv",
		Extension:   "csv",
	}
	encodedAt := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	artifact, err := p.Publish(context.Background(), "voters", enc, encodedAt)
	require.NoError(t, err)

	assert.Equal(t, "voters_export_2026-03-14_09-05.csv", artifact.FileName)
	assert.Equal(t, "https://files.example.com/exports/voters_export_2026-03-14_09-05.csv", artifact.FileURL)
	assert.Equal(t, 2, artifact.FileSizeKB)

	assert.Equal(t, "exports/voters_export_2026-03-14_09-05.csv", store.lastKey)
	assert.Equal(t, "text/csv", store.lastContentType)
}

func TestPublisher_SizeRounding(t *testing.T) {
	tests := []struct {
		name   string
		bytes  int
		wantKB int
	}{
		{name: "exactly 1 KB", bytes: 1024, wantKB: 1},
		{name: "rounds up", bytes: 1536, wantKB: 2},
		{name: "rounds down", bytes: 1400, wantKB: 1},
		{name: "small payload rounds to zero", bytes: 100, wantKB: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(&fakeObjectStore{}, "")

			artifact, err := p.Publish(context.Background(), "voters", Encoded{
				Payload:   make([]byte, tt.bytes),
				Extension: "csv",
			}, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.wantKB, artifact.FileSizeKB)
		})
	}
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	store := &fakeObjectStore{}
	p := NewPublisher(store, "")

	_, err := p.Publish(context.Background(), "voters", Encoded{Extension: "html"}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, store.lastKey, "exports/")
}

func TestPublisher_UploadError(t *testing.T) {
	p := NewPublisher(&fakeObjectStore{err: assert.AnError}, "exports")

	artifact, err := p.Publish(context.Background(), "voters", Encoded{Extension: "csv"}, time.Now())
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.Contains(t, err.Error(), "failed to upload artifact")
}
