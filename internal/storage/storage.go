// Package storage connects the app to object storage for source, watermark and result files
package storage

import (
	"context"
	"log"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

// SettingsFromConfig reads MinIO connection values from env-config.
func SettingsFromConfig(cfg *config.Config) miniostorage.Settings {
	return miniostorage.Settings{
		Endpoint: cfg.GetString("MINIO_CONTAINER_NAME") + ":9000",
		User:     cfg.GetString("MINIO_USER"),
		Password: cfg.GetString("MINIO_PASS"),
		Bucket:   cfg.GetString("BUCKET_NAME"),
	}
}

// NewObjectStorage keeps retrying until MinIO answers or ctx is canceled.
func NewObjectStorage(ctx context.Context, cfg *config.Config, delay time.Duration) *miniostorage.MinioObjectStorage {
	settings := SettingsFromConfig(cfg)

	for {
		log.Println("Connecting to object storage...")
		client, err := miniostorage.NewMinioClient(ctx, settings)
		if err == nil {
			log.Println("Successfully connected object storage!")
			return client
		}
		log.Printf("Failed to init connection to object storage: %v\nNext retry in %v...", err, delay)

		select {
		case <-ctx.Done():
			log.Fatalln("Object storage connection canceled. Exiting...")
		case <-time.After(delay):
		}
	}
}
