package media

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// ProcessResult carries the artifact produced for upload. ProcessedSize
// never exceeds OriginalSize; when re-encoding would grow the file the
// original bytes are kept.
type ProcessResult struct {
	Data          []byte
	OriginalSize  int64
	ProcessedSize int64
	Resized       bool
}

// Process produces the upload artifact for one image. Oversized images
// are scaled down so their longest edge is maxDimension, then the image
// is re-encoded as JPEG at the given quality. Undecodable input passes
// through untouched.
func Process(data []byte, quality float64) ProcessResult {
	result := ProcessResult{
		Data:          data,
		OriginalSize:  int64(len(data)),
		ProcessedSize: int64(len(data)),
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return result
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if max(w, h) > maxDimension {
		if w >= h {
			img = resize.Resize(maxDimension, 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, maxDimension, img, resize.Lanczos3)
		}
		result.Resized = true
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return result
	}
	// Keep the original whenever re-encoding would grow the file.
	if int64(buf.Len()) <= result.OriginalSize {
		result.Data = buf.Bytes()
		result.ProcessedSize = int64(buf.Len())
	} else {
		result.Resized = false
	}
	return result
}

// jpegQuality maps the configured (0,1] quality onto the encoder's
// 1..100 scale.
func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		return jpeg.DefaultQuality
	}
	n := int(q * 100)
	if n < 1 {
		n = 1
	}
	return n
}
