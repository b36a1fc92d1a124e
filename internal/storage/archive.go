// Package storage retains inbound photos in an S3-compatible bucket for
// operator diagnostics. The archive is optional; the bot runs without it.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// PhotoArchive stores inbound photos in MinIO, keyed by date and turn id.
type PhotoArchive struct {
	client     *minio.Client
	bucketName string
}

// NewPhotoArchive creates a new MinIO-backed archive and makes sure the
// bucket exists.
func NewPhotoArchive(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*PhotoArchive, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := &PhotoArchive{
		client:     minioClient,
		bucketName: bucketName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Warn().Err(err).Msgf("Failed to check bucket existence for %s (will continue)", bucketName)
	} else if !exists {
		if err := minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Error().Err(err).Msgf("Failed to create bucket %s", bucketName)
		} else {
			log.Info().Msgf("Bucket %s created successfully", bucketName)
		}
	}

	log.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucketName).
		Msg("Photo archive initialized")

	return archive, nil
}

// ArchivePhoto stores one photo and returns its object key. Keys are
// prefixed with the upload date so old objects are easy to expire.
func (a *PhotoArchive) ArchivePhoto(ctx context.Context, turnID string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("photos/%s/%s%s", time.Now().Format("2006-01-02"), turnID, extensionFor(contentType))

	_, err := a.client.PutObject(
		ctx,
		a.bucketName,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to archive photo: %w", err)
	}

	log.Debug().
		Str("key", key).
		Int("size", len(data)).
		Msg("Photo archived")

	return key, nil
}

// HealthCheck verifies the MinIO connection.
func (a *PhotoArchive) HealthCheck(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", a.bucketName)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
