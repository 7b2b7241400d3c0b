package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sof-extractor/backend/internal/models"
)

const loadConcurrency = 4

// LoadFiles reads paths from disk concurrently and returns them in the same
// order, typed by file name.
func LoadFiles(ctx context.Context, paths []string) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			name := filepath.Base(path)
			files[i] = models.UploadFile{
				Name:        name,
				ContentType: models.ContentTypeForName(name),
				Data:        data,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
