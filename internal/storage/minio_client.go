package storage

import (
	"bytes"
	"context"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"listing-service/internal/config"
)

// NewMinioClient initializes a MinIO client and ensures the bucket exists.
func NewMinioClient(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	minioClient, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, err
	}
	// Ensure the bucket exists (create if not present)
	exists, errBucket := minioClient.BucketExists(ctx, cfg.MinioBucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		err = minioClient.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: ""})
		if err != nil {
			return nil, err
		}
		log.Printf("Created bucket %s\n", cfg.MinioBucket)
	}
	return minioClient, nil
}

// MinioObjectStore stores image objects in one MinIO bucket.
type MinioObjectStore struct {
	Client     *minio.Client
	BucketName string
	PublicURL  string
}

// NewMinioObjectStore builds the object store. publicURL defaults to the client's endpoint URL.
func NewMinioObjectStore(client *minio.Client, bucketName, publicURL string) *MinioObjectStore {
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &MinioObjectStore{Client: client, BucketName: bucketName, PublicURL: strings.TrimRight(publicURL, "/")}
}

// Put uploads data under key and returns the public location of the object.
func (s *MinioObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.Client.PutObject(
		ctx,
		s.BucketName,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to upload to MinIO")
	}
	return s.PublicURL + "/" + s.BucketName + "/" + key, nil
}

// Delete removes the object stored under key.
func (s *MinioObjectStore) Delete(ctx context.Context, key string) error {
	if err := s.Client.RemoveObject(ctx, s.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, "failed to remove from MinIO")
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (s *MinioObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Client.StatObject(ctx, s.BucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat MinIO object")
}
