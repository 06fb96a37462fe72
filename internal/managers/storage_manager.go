package managers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StorageMgr stores profile images in an S3 compatible object storage.
type StorageMgr interface {
	UploadProfileImage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (url, key string, err error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Client is the part of *s3.Client the storage manager needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// StorageConfig holds the connection settings of the object storage.
type StorageConfig struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

type S3StorageManager struct {
	client    S3Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewStorageManager connects to the configured bucket. Without a bucket, profile
// image uploads are disabled and a NoopStorageManager is returned.
func NewStorageManager(ctx context.Context, cfg StorageConfig) (StorageMgr, error) {
	log.Info("Initializing storage manager")

	if cfg.Bucket == "" {
		log.Warn("No S3 bucket configured, profile image uploads are disabled")
		return &NoopStorageManager{}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	log.Info("Initialized storage manager")
	return NewS3StorageManager(client, cfg), nil
}

func NewS3StorageManager(client S3Client, cfg StorageConfig) *S3StorageManager {
	return &S3StorageManager{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBucketURL(cfg),
		now:       time.Now,
	}
}

// UploadProfileImage stores the image under a fresh key and returns its public URL and the key.
func (sm *S3StorageManager) UploadProfileImage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, string, error) {
	key := sm.profileImageKey(fileName)

	_, err := sm.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(sm.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: upload %s: %w", ErrStorageUnavailable, key, err)
	}

	return sm.publicURL + "/" + key, key, nil
}

func (sm *S3StorageManager) DeleteObject(ctx context.Context, key string) error {
	_, err := sm.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(sm.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// profileImageKey returns profiles/<yyyy>/<mm>/<uuid><ext>, keeping the extension of the upload.
func (sm *S3StorageManager) profileImageKey(fileName string) string {
	d := sm.now()
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("profiles/%04d/%02d/%s%s", d.Year(), int(d.Month()), uuid.New(), ext)
}

func publicBucketURL(cfg StorageConfig) string {
	if cfg.BaseEndpoint != "" {
		return strings.TrimRight(cfg.BaseEndpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// NoopStorageManager is used when no bucket is configured.
type NoopStorageManager struct{}

func (n *NoopStorageManager) UploadProfileImage(context.Context, string, string, io.Reader, int64) (string, string, error) {
	return "", "", ErrStorageUnavailable
}

func (n *NoopStorageManager) DeleteObject(context.Context, string) error {
	return nil
}
