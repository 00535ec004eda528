package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"donation_platform/internal/models"
)

// DocumentStore persists uploaded files and returns their public URL
type DocumentStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}

// Upload is a file received from a client, with optional title and description
type Upload struct {
	Name        string
	Open        func() (io.ReadCloser, error)
	Title       string
	Description string
}

// storedName builds a collision-free object name keeping the original base name
func storedName(originalName string) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return uuid.New().String() + "_" + base
}

// LocalStore writes files under a directory served as static content
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the upload directory if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save copies r into a new file and returns its URL
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	name := storedName(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	url := s.baseURL + "/" + name
	log.Printf("Stored upload %s", url)
	return url, nil
}

// S3Store uploads files to an S3 bucket
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store loads the default AWS configuration for region
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket not configured")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// Save uploads r under documents/ and returns the object URL
func (s *S3Store) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	key := "documents/" + storedName(originalName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// storeUploads saves every file before any record is touched. On failure
// nothing is returned and the caller leaves its record unchanged.
func storeUploads(ctx context.Context, store DocumentStore, uploads []Upload) ([]models.Document, error) {
	documents := make([]models.Document, 0, len(uploads))
	for _, u := range uploads {
		url, err := saveUpload(ctx, store, u)
		if err != nil {
			return nil, err
		}
		documents = append(documents, models.Document{
			URL:         url,
			Title:       u.Title,
			Description: u.Description,
		})
	}
	return documents, nil
}

func saveUpload(ctx context.Context, store DocumentStore, u Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", u.Name, err)
	}
	defer rc.Close()
	return store.Save(ctx, u.Name, rc)
}
