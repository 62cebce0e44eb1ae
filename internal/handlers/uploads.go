package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"

	"github.com/shopmate/shopmate/internal/service"
)

const (
	imageField    = "files"
	maxImageFiles = 10
	maxImageSize  = 5 << 20 // 5MB per file
)

// Some clients send images as application/octet-stream; those are
// accepted when the filename extension looks like an image.
var allowedImageTypes = map[string]bool{
	"image/jpeg":               true,
	"image/jpg":                true,
	"image/png":                true,
	"image/gif":                true,
	"image/webp":               true,
	"application/octet-stream": true,
}

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// collectImages reads the multipart "files" field into memory, applying
// the same filter the upload endpoints have always had: image types
// only, at most 10 files, 5MB each.
func collectImages(r *http.Request) ([]service.ImageUpload, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		return nil, fmt.Errorf("invalid multipart body")
	}

	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[imageField]
	if len(headers) > maxImageFiles {
		return nil, fmt.Errorf("too many files, maximum is %d", maxImageFiles)
	}

	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := readImage(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	return uploads, nil
}

func readImage(header *multipart.FileHeader) (service.ImageUpload, error) {
	if header.Size > maxImageSize {
		return service.ImageUpload{}, fmt.Errorf("file too large, maximum size is 5MB")
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] && !imageExtPattern.MatchString(header.Filename) {
		return service.ImageUpload{}, fmt.Errorf("invalid file type: %s", contentType)
	}

	file, err := header.Open()
	if err != nil {
		return service.ImageUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return service.ImageUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxImageSize {
		return service.ImageUpload{}, fmt.Errorf("file too large, maximum size is 5MB")
	}

	return service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        bytes.NewReader(data),
	}, nil
}
