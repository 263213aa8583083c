// Package media analyses and processes product images for the bulk
// upload pipeline.
package media

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Quality is a coarse estimate derived from bytes per pixel.
type Quality string

const (
	QualityVeryLow Quality = "very_low"
	QualityLow     Quality = "low"
	QualityMedium  Quality = "medium"
	QualityHigh    Quality = "high"
	QualityUnknown Quality = "unknown"
)

// maxDimension is the edge length above which an image is flagged for
// resizing before upload.
const maxDimension = 2000

// Analysis describes one image file. Undecodable files are still
// analysed: they carry zero dimensions and QualityUnknown rather than
// failing the batch.
type Analysis struct {
	FileName        string
	Format          string
	Size            int64
	Width           int
	Height          int
	Aspect          float64
	Megapixels      float64
	NeedsResize     bool
	IsSquare        bool
	QualityEstimate Quality
}

// Analyse inspects a single image file.
func Analyse(name string, data []byte) Analysis {
	a := Analysis{
		FileName:        name,
		Format:          http.DetectContentType(data),
		Size:            int64(len(data)),
		QualityEstimate: QualityUnknown,
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return a
	}
	a.Format = "image/" + format
	a.Width = cfg.Width
	a.Height = cfg.Height
	if cfg.Height > 0 {
		a.Aspect = float64(cfg.Width) / float64(cfg.Height)
	}
	a.Megapixels = float64(cfg.Width) * float64(cfg.Height) / 1e6
	a.NeedsResize = max(cfg.Width, cfg.Height) > maxDimension
	a.IsSquare = abs(cfg.Width-cfg.Height) < 50
	a.QualityEstimate = estimateQuality(int64(len(data)), cfg.Width, cfg.Height)
	return a
}

// AnalyseAll analyses files preserving input order.
func AnalyseAll(files []File) []Analysis {
	out := make([]Analysis, 0, len(files))
	for _, f := range files {
		out = append(out, Analyse(f.Name, f.Data))
	}
	return out
}

// File is an in-memory image file.
type File struct {
	Name string
	Data []byte
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// MaxUploadSize bounds a single image file.
const MaxUploadSize = 20 << 20

// ValidateFile rejects files the pipeline cannot accept. Failures are
// ValidationErrors surfaced to the user, not fatal.
func ValidateFile(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%s: file is empty", name)
	}
	if len(data) > MaxUploadSize {
		return fmt.Errorf("%s: file exceeds %d MB limit", name, MaxUploadSize>>20)
	}
	ct := http.DetectContentType(data)
	// DetectContentType cannot sniff every container; fall back to the
	// extension for webp and friends.
	if !allowedTypes[ct] && !allowedExtension(name) {
		return fmt.Errorf("%s: unsupported content type %s", name, ct)
	}
	return nil
}

func allowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func estimateQuality(size int64, w, h int) Quality {
	pixels := w * h
	if pixels == 0 {
		return QualityUnknown
	}
	bpp := float64(size) / float64(pixels)
	switch {
	case bpp < 0.5:
		return QualityVeryLow
	case bpp < 1.5:
		return QualityLow
	case bpp < 3.0:
		return QualityMedium
	default:
		return QualityHigh
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
