package imgutil

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Load decodes a PNG, JPEG, or WebP file into an NRGBA buffer.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".webp":
		img, err = webp.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return ToNRGBA(img), nil
}

// LoadSubject decodes a foreground upload and debug-logs any EXIF metadata it
// carries (camera and capture date are handy when triaging bad mattes).
func LoadSubject(path string) (*image.NRGBA, error) {
	logSubjectMeta(path)
	return Load(path)
}

func logSubjectMeta(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	exif, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Str("path", path).Msg("No EXIF metadata in subject image")
		return
	}
	log.Debug().
		Str("path", path).
		Str("camera_make", strings.TrimSpace(exif.Make)).
		Str("camera_model", strings.TrimSpace(exif.Model)).
		Time("date_taken", exif.DateTimeOriginal()).
		Msg("Subject image metadata")
}

// Save encodes img to path; the format is chosen from the file extension
// (PNG, JPEG, or WebP).
func Save(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case ".webp":
		err = webp.Encode(f, img, &webp.Options{Quality: 90, Lossless: false})
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	log.Debug().Str("path", path).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("Image written")
	return nil
}
