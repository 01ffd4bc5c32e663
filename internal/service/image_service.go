package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"image_editor/internal/errs"
	"image_editor/internal/metrics"
	"image_editor/internal/storage"
)

// UploadResult describes a stored upload.
type UploadResult struct {
	FilePath string `json:"file_path"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
}

// ImageService stores uploaded images and reports their pixel dimensions.
type ImageService struct {
	store    storage.ImageStore
	projects *ProjectService
	maxBytes int64
}

func NewImageService(store storage.ImageStore, projects *ProjectService, maxBytes int64) *ImageService {
	return &ImageService{store: store, projects: projects, maxBytes: maxBytes}
}

// Upload stores the file under a sanitised version of filename. When projectID is
// non-zero the project must belong to userID and the upload is recorded as one of
// its saved images.
func (s *ImageService) Upload(ctx context.Context, userID uint, filename string, r io.Reader, projectID uint) (*UploadResult, error) {
	if filename == "" || r == nil {
		return nil, errs.ErrNoFileProvided
	}
	name := storage.SecureFilename(filename)
	if name == "" {
		return nil, errs.ErrNoFileProvided
	}

	content, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", errs.ErrUpload, err)
	}
	if int64(len(content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: file larger than %d bytes", errs.ErrUpload, s.maxBytes)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errs.ErrUpload, err)
	}

	if projectID != 0 {
		if err := s.projects.EnsureOwned(ctx, userID, projectID); err != nil {
			return nil, err
		}
	}

	existed, err := s.store.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: store: %v", errs.ErrUpload, err)
	}
	size := int64(len(content))
	path, err := s.store.Save(ctx, name, bytes.NewReader(content), size, http.DetectContentType(content))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,
			"filename": name,
			"error":    err.Error(),
		}).Error("Store upload failed")
		return nil, fmt.Errorf("%w: store: %v", errs.ErrUpload, err)
	}

	if projectID != 0 {
		if _, err := s.projects.RecordSavedImage(ctx, userID, projectID, path, size, format); err != nil {
			// A replaced file may still back another project's saved image.
			if !existed {
				if rmErr := s.store.Remove(ctx, path); rmErr != nil {
					logrus.WithField("error", rmErr.Error()).Warn("Remove unrecorded upload failed")
				}
			}
			if errors.Is(err, errs.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: record: %v", errs.ErrUpload, err)
		}
	}

	metrics.UploadBytes.Observe(float64(size))
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"project_id": projectID,
		"file_path":  path,
		"format":     format,
		"width":      cfg.Width,
		"height":     cfg.Height,
	}).Info("Image uploaded")
	return &UploadResult{FilePath: path, Width: cfg.Width, Height: cfg.Height, Format: format, Size: size}, nil
}
