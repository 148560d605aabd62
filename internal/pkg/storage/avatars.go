package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/LucasFarias/ZapLink/internal/pkg/env"
)

// AvatarStorage issues presigned upload URLs for page avatars. The actual
// bytes never pass through the app; clients PUT directly to the bucket and
// the page only stores the resulting public URL.
type AvatarStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewAvatarStorageFromEnv builds the S3-compatible avatar storage client.
func NewAvatarStorageFromEnv(ctx context.Context) (*AvatarStorage, error) {
	bucket := strings.TrimSpace(env.GetEnv("S3_AVATAR_BUCKET", ""))
	if bucket == "" {
		return nil, fmt.Errorf("S3_AVATAR_BUCKET is not configured")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(env.GetEnv("S3_REGION", "us-east-1")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			env.GetEnv("S3_ACCESS_KEY_ID", ""),
			env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(env.GetEnv("S3_ENDPOINT_URL", "")); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &AvatarStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		publicURL: strings.TrimRight(env.GetEnv("S3_PUBLIC_URL", ""), "/"),
	}, nil
}

// AvatarUpload is a presigned PUT target plus the public URL the page
// should store once the upload succeeded.
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
}

// PresignAvatarUpload creates a time-limited upload slot for a user avatar.
func (s *AvatarStorage) PresignAvatarUpload(ctx context.Context, userID uint, contentType string) (*AvatarUpload, error) {
	ext := extensionFor(contentType)
	if ext == "" {
		return nil, fmt.Errorf("unsupported avatar content type %q", contentType)
	}

	key := path.Join("avatars", fmt.Sprintf("%d-%s%s", userID, uuid.NewString(), ext))
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to presign avatar upload: %w", err)
	}

	return &AvatarUpload{
		UploadURL: req.URL,
		PublicURL: s.publicURL + "/" + key,
		Key:       key,
	}, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
