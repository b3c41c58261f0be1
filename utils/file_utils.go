package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Maximum upload size (5MB)
	MaxImageSize = 5 * 1024 * 1024
	// Images wider than this are scaled down on upload
	MaxImageWidth = 1200
	// Decoding is refused above this many pixels
	MaxImagePixels = 40_000_000
	// Longest cleaned upload name kept in a stored image name
	MaxFilenameLength = 100
)

var (
	ErrInvalidImageType = errors.New("Attached file is not an image. Only png, jpg and jpeg are allowed")
	ErrImageTooLarge    = fmt.Errorf("Image is too large. Maximum size is %d MB", MaxImageSize/(1024*1024))
	ErrImageDimensions  = fmt.Errorf("Image dimensions are too large. Maximum is %d megapixels", MaxImagePixels/1_000_000)

	allowedImageTypes = map[string]imaging.Format{
		"image/png":  imaging.PNG,
		"image/jpg":  imaging.JPEG,
		"image/jpeg": imaging.JPEG,
	}
	allowedImageExts = map[string]bool{
		".png":  true,
		".jpg":  true,
		".jpeg": true,
	}
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// PreparedImage is an upload that passed validation and is ready to be stored
type PreparedImage struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsValidImageFile checks the declared type and the extension of an upload
func IsValidImageFile(file *multipart.FileHeader) bool {
	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	if _, ok := allowedImageTypes[contentType]; !ok {
		return false
	}
	return allowedImageExts[strings.ToLower(filepath.Ext(file.Filename))]
}

// CleanFilename removes any potentially dangerous characters from the filename
// and shortens it to MaxFilenameLength, keeping the extension.
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	if len(filename) <= MaxFilenameLength {
		return filename
	}
	ext := filepath.Ext(filename)
	if len(ext) >= MaxFilenameLength {
		return filename[:MaxFilenameLength]
	}
	return filename[:MaxFilenameLength-len(ext)] + ext
}

// UniqueImageName prefixes the cleaned upload name with a uuid
func UniqueImageName(filename string) string {
	return fmt.Sprintf("%s-%s", uuid.New().String(), CleanFilename(filename))
}

// PrepareImage validates an uploaded image, decodes it and scales it down when it
// is wider than MaxImageWidth.
func PrepareImage(file *multipart.FileHeader) (*PreparedImage, error) {
	if !IsValidImageFile(file) {
		return nil, ErrInvalidImageType
	}
	if file.Size > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	raw, err := io.ReadAll(io.LimitReader(src, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}

	data, err := ResizeImage(raw, allowedImageTypes[contentType])
	if err != nil {
		return nil, err
	}

	return &PreparedImage{
		Name:        UniqueImageName(file.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ResizeImage decodes raw and re-encodes it at most MaxImageWidth wide.
// Images already narrow enough are returned unchanged; images above
// MaxImagePixels are rejected from their header alone.
func ResizeImage(raw []byte, format imaging.Format) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrInvalidImageType
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, ErrImageDimensions
	}
	if cfg.Width <= MaxImageWidth {
		return raw, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageType
	}
	resized := imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
