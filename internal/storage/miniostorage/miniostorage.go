// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultBucket = "watermarks"

// Settings describes how to reach MinIO.
type Settings struct {
	Endpoint string
	User     string
	Password string
	Bucket   string
	Secure   bool
}

type MinioObjectStorage struct {
	bucket string
	client *minio.Client
}

func NewMinioClient(ctx context.Context, s Settings) (*MinioObjectStorage, error) {
	if s.Bucket == "" {
		s.Bucket = defaultBucket
		log.Printf("Bucket name is empty. Using default value %q...", s.Bucket)
	}

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.User, s.Password, ""),
		Secure: s.Secure,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(ctx, strg, s.Bucket); err != nil {
		log.Println("Failed to create bucket in MinIO:", err)
		return nil, err
	}

	return &MinioObjectStorage{bucket: s.Bucket, client: strg}, nil
}

func (s *MinioObjectStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

func (s *MinioObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	res, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	resStat, err := res.Stat()
	if err != nil {
		if cErr := res.Close(); cErr != nil {
			log.Println("Failed to close object after failed Stat:", cErr)
		}
		return nil, "", err
	}

	return res, resStat.ContentType, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
