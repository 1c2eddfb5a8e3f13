package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ImageStore uploads oracle-generated task and boss images to an S3-style
// object store and hands back public URLs. Empty payloads are skipped.
type ImageStore struct {
	client    *s3.Client
	bucket    string
	region    string
	imageRoot string
}

func NewImageStore(key, secret, region, bucket, imageRoot string) (*ImageStore, error) {
	if key == "" || bucket == "" {
		return nil, nil // unconfigured: callers treat a nil store as disabled
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object store config: %w", err)
	}

	return &ImageStore{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		imageRoot: strings.Trim(imageRoot, "/"),
	}, nil
}

// Store uploads image bytes under kind/id.png and returns the public URL.
// A nil store or empty payload returns an empty URL without error.
func (s *ImageStore) Store(ctx context.Context, kind, id string, data []byte) (string, error) {
	if s == nil || len(data) == 0 {
		return "", nil
	}

	key := fmt.Sprintf("%s/%s/%s.png", s.imageRoot, kind, id)
	contentType := "image/png"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, key), nil
}
