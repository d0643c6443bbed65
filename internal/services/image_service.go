package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"
)

// ImageService bounds proof images to a maximum dimension and
// re-encodes them as JPEG at a fixed quality. Orientation from EXIF is
// baked into the pixels so the reference image displays upright.
type ImageService struct {
	maxDimension int
	jpegQuality  int
}

// NewImageService creates an ImageService with the given bounds
func NewImageService(maxDimension, jpegQuality int) *ImageService {
	if maxDimension <= 0 {
		maxDimension = 1600
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 85
	}
	return &ImageService{maxDimension: maxDimension, jpegQuality: jpegQuality}
}

// Recompress decodes, orients, bounds and re-encodes an image.
// Returns the JPEG bytes. Callers treating compression as best-effort
// should fall back to the original bytes on error.
func (s *ImageService) Recompress(data []byte, filename string) ([]byte, error) {
	img, err := decodeImage(data, filename)
	if err != nil {
		return nil, err
	}

	img = applyOrientation(img, orientationOf(data))

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Bound the longest edge, preserving aspect ratio
	if width > s.maxDimension || height > s.maxDimension {
		if width > height {
			img = imaging.Resize(img, s.maxDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, s.maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeImage handles the standard formats plus HEIC/HEIF
func decodeImage(data []byte, filename string) (image.Image, error) {
	if isHEIC(filename) {
		img, err := goheif.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Filename extension can lie; try HEIC as a last resort
		if himg, herr := goheif.Decode(bytes.NewReader(data)); herr == nil {
			return himg, nil
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// orientationOf reads the EXIF orientation tag, defaulting to 1
func orientationOf(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// applyOrientation corrects image orientation based on EXIF data
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Rotate270(imaging.FlipH(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Rotate90(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func isHEIC(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}

// IsImageMIME reports whether a content type names an image
func IsImageMIME(contentType string) bool {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return strings.HasPrefix(mime, "image/")
}
