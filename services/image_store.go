package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LocalImagePrefix is the URL path local images are served under
const LocalImagePrefix = "/images"

// ImageStore keeps product images and hands back the URL to render them with
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// NewImageStore picks the backend named by IMAGE_STORE
func NewImageStore(cfg *config.AppConfig) (ImageStore, error) {
	if cfg.ImageStore == "s3" {
		return NewS3ImageStore(cfg)
	}
	return NewLocalImageStore(cfg.UploadDir)
}

// LocalImageStore writes images to a directory served at /images
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

// Dir is the directory images are written to
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	img, err := utils.PrepareImage(file)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, img.Name), img.Data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return LocalImagePrefix + "/" + img.Name, nil
}

// Delete removes the file behind url; unknown or foreign URLs are ignored
func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, LocalImagePrefix+"/") {
		return nil
	}
	name := utils.CleanFilename(strings.TrimPrefix(url, LocalImagePrefix+"/"))
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// S3ImageStore keeps images in an S3 compatible bucket
type S3ImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewS3ImageStore(cfg *config.AppConfig) (*S3ImageStore, error) {
	if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required when IMAGE_STORE=s3")
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.S3UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.S3Endpoint, cfg.S3Bucket)
	}

	log.Printf("Storing product images in bucket %s", cfg.S3Bucket)
	return &S3ImageStore{client: client, bucket: cfg.S3Bucket, publicURL: publicURL}, nil
}

func (s *S3ImageStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	img, err := utils.PrepareImage(file)
	if err != nil {
		return "", err
	}

	key := s.objectKey(img.Name)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (s *S3ImageStore) objectKey(name string) string {
	return path.Join("products", name)
}
