package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3 stores objects public-read in a single bucket and serves them
// through a CDN base URL.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3FromEnv builds the S3 store from S3_REGION/AWS_REGION, S3_BUCKET
// and CDN_URL. It exits on a broken AWS config, same as the rest of the
// process bootstrap.
func NewS3FromEnv() *S3 {
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION") // fallback
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("Unable to load AWS config for S3: %v", err)
	}

	return &S3{
		client:  s3.NewFromConfig(cfg),
		bucket:  os.Getenv("S3_BUCKET"),
		baseURL: strings.TrimSuffix(os.Getenv("CDN_URL"), "/"),
	}
}

func (s *S3) Store(ctx context.Context, r io.Reader, size int64, contentType, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

func (s *S3) URL(path string) string {
	return s.baseURL + "/" + path
}

func (s *S3) Remove(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", path, err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
		return "." + parts[1]
	}
	return ""
}
