package sections

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/dossier-backend/internal/clients/gcp"
)

// bucketStore persists sections as objects in the section bucket.
type bucketStore struct {
	bucket gcp.BucketService
}

func NewBucketStore(bucket gcp.BucketService) Store {
	return &bucketStore{bucket: bucket}
}

func (s *bucketStore) Save(ctx context.Context, key string, content string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return s.bucket.UploadFile(ctx, gcp.BucketCategorySection, key, strings.NewReader(content))
}

func (s *bucketStore) Get(ctx context.Context, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategorySection, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read section %q: %w", key, err)
	}
	return string(raw), nil
}

func (s *bucketStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.bucket.ListKeys(ctx, gcp.BucketCategorySection, prefix)
}
