package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// Archiver serializes one evaluation cycle to JSONL and uploads it. Objects
// are keyed by date and cycle id so a day's cycles list together.
type Archiver struct {
	client   *Client
	uploader *manager.Uploader
	logger   *slog.Logger
}

// NewArchiver creates a cycle archiver over the given client.
func NewArchiver(client *Client, logger *slog.Logger) *Archiver {
	return &Archiver{
		client:   client,
		uploader: manager.NewUploader(client.S3()),
		logger:   logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveCycle uploads the cycle summary followed by one line per spread
// row and returns the object key. The first JSONL line is always the
// summary.
func (a *Archiver) ArchiveCycle(ctx context.Context, summary domain.CycleSummary, rows []domain.SpreadRow) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	if err := enc.Encode(summary); err != nil {
		return "", fmt.Errorf("s3blob: encode summary: %w", err)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return "", fmt.Errorf("s3blob: encode spread row: %w", err)
		}
	}

	key := fmt.Sprintf("cycles/%s/%s.jsonl",
		summary.StartedAt.UTC().Format("2006/01/02"), summary.ID)

	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.client.Bucket()),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: upload cycle %s: %w", summary.ID, err)
	}

	a.logger.InfoContext(ctx, "cycle archived",
		slog.String("key", key),
		slog.Int("rows", len(rows)),
	)
	return key, nil
}
