// Package archive snapshots a finalized bracket document to S3 once an
// entity's positions are set, giving operators an immutable audit copy
// outside the live document store (supplemented from original_source/'s
// archival-on-completion behavior; spec.md §7 lists this as a side effect).
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cuesports/progression/internal/domain"
)

// Archiver writes bracket snapshots to an S3 bucket.
type Archiver struct {
	client *s3.Client
	bucket string
}

func NewArchiver(client *s3.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

type snapshot struct {
	TournamentID string          `json:"tournamentId"`
	Level        domain.Level    `json:"level"`
	EntityID     string          `json:"entityId"`
	Positions    domain.Positions `json:"positions"`
	ArchivedAt   time.Time       `json:"archivedAt"`
}

// ArchivePositions uploads a snapshot of one entity's finalized positions.
// Failures are returned, not swallowed, so the caller can log them — but
// callers should never fail the finalize operation itself over an archive
// error, since the archive is a side effect, not a correctness requirement
// (spec.md §7).
func (a *Archiver) ArchivePositions(ctx context.Context, tournamentID string, level domain.Level, entityID string, pos domain.Positions, now time.Time) error {
	body, err := json.Marshal(snapshot{
		TournamentID: tournamentID,
		Level:        level,
		EntityID:     entityID,
		Positions:    pos,
		ArchivedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("brackets/%s/%s/%s/%d.json", tournamentID, level, entityID, now.Unix())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
