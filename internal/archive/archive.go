// Package archive stores sent outreach content in S3-compatible object storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"revenue_automation_backend/platform/config"
)

const htmlContentType = "text/html; charset=utf-8"

// Archive persists rendered email bodies under a caller-chosen key.
type Archive interface {
	Store(ctx context.Context, key, html string) error
}

type Noop struct{}

func (Noop) Store(context.Context, string, string) error { return nil }

// objectWriter is the subset of the MinIO client the archive uses.
type objectWriter interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader *strings.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioWriter struct {
	client *minio.Client
}

func (w minioWriter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return w.client.BucketExists(ctx, bucket)
}

func (w minioWriter) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return w.client.MakeBucket(ctx, bucket, opts)
}

func (w minioWriter) PutObject(ctx context.Context, bucket, object string, reader *strings.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.client.PutObject(ctx, bucket, object, reader, size, opts)
}

// MinIOArchive writes each body as one object in a single bucket.
type MinIOArchive struct {
	writer objectWriter
	bucket string
}

// New returns a MinIO-backed archive, or Noop when storage is not configured.
func New(ctx context.Context, cfg config.MinIOConfig) (Archive, error) {
	if !cfg.IsMinIOEnabled() {
		return Noop{}, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	a := &MinIOArchive{writer: minioWriter{client: client}, bucket: cfg.GetMinioBucketOutreachArchive()}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinIOArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.writer.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.writer.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

func (a *MinIOArchive) Store(ctx context.Context, key, html string) error {
	reader := strings.NewReader(html)
	_, err := a.writer.PutObject(ctx, a.bucket, key, reader, reader.Size(), minio.PutObjectOptions{
		ContentType: htmlContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive object %s: %w", key, err)
	}
	return nil
}

// OutreachKey is the object key for one sent sequence step.
func OutreachKey(workspaceID, leadID, sequenceID, stepID string) string {
	return path.Join(workspaceID, "outreach", leadID, sequenceID, stepID+".html")
}

// FollowUpKey is the object key for one completed follow-up task.
func FollowUpKey(workspaceID, leadID, taskID string) string {
	return path.Join(workspaceID, "followups", leadID, taskID+".html")
}
