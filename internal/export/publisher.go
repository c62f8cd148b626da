package export

import (
	"context"
	"fmt"
	"math"
	"path"
	"time"
)

// ObjectStore uploads artifact payloads and returns a durable URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (string, error)
}

// Artifact describes a published export file.
type Artifact struct {
	FileName   string
	FileURL    string
	FileSizeKB int
}

// Publisher names encoded artifacts and uploads them under a fixed prefix.
type Publisher struct {
	store  ObjectStore
	prefix string
}

// NewPublisher creates a Publisher. An empty prefix defaults to "exports".
func NewPublisher(store ObjectStore, prefix string) *Publisher {
	if prefix == "" {
		prefix = "exports"
	}
	return &Publisher{
		store:  store,
		prefix: prefix,
	}
}

// Publish uploads the encoded payload as {type}_export_{timestamp}.{ext}. The
// caller supplies the encoding time so the name reflects when the payload was
// rendered, not when the upload happened. Size is the payload length in KB
// rounded to the nearest integer.
func (p *Publisher) Publish(ctx context.Context, exportType string, enc Encoded, encodedAt time.Time) (*Artifact, error) {
	fileName := fmt.Sprintf("%s_export_%s.%s", exportType, encodedAt.Format("2006-01-02_15-04"), enc.Extension)
	key := path.Join(p.prefix, fileName)

	url, err := p.store.Put(ctx, key, enc.Payload, enc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload artifact: %w", err)
	}

	return &Artifact{
		FileName:   fileName,
		FileURL:    url,
		FileSizeKB: int(math.Round(float64(len(enc.Payload)) / 1024.0)),
	}, nil
}
