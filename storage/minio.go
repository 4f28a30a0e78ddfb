package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/toriisent/yeezyplayer-store/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	minioCfg    *config.Config
)

// InitMinio initializes the MinIO client and makes sure the bucket
// exists.
func InitMinio(cfg *config.Config) error {
	log.Printf("Connecting to MinIO at %s (bucket %s)...", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		log.Printf("Created bucket %s", cfg.MinioBucket)
	}

	minioClient = client
	minioCfg = cfg
	return nil
}

// GetMinioClient returns the shared client, or nil before InitMinio.
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadAudio stores an audio stream under audio/<name> and returns
// the public URL that becomes the track's audio_url.
func UploadAudio(ctx context.Context, name string, reader io.Reader, size int64) (string, error) {
	return upload(ctx, path.Join("audio", name), reader, size, contentTypeFor(name))
}

// UploadCover stores cover art under covers/<name> and returns its
// public URL.
func UploadCover(ctx context.Context, name string, reader io.Reader, size int64) (string, error) {
	return upload(ctx, path.Join("covers", name), reader, size, contentTypeFor(name))
}

func upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, minioCfg.MinioBucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	return PublicURL(objectPath), nil
}

// PublicURL maps an object path to the URL clients fetch it from.
func PublicURL(objectPath string) string {
	return strings.TrimRight(minioCfg.MinioPublicURL, "/") + "/" + objectPath
}

// GetObject opens an object for streaming through the read proxy.
func GetObject(ctx context.Context, objectPath string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	return minioClient.GetObject(ctx, minioCfg.MinioBucket, objectPath, minio.GetObjectOptions{})
}

// contentTypeFor guesses a content type from the file extension.
func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".aac":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
