// Package manifest parses and validates the delimited product manifests
// that drive the bulk media pipeline.
package manifest

import (
	"errors"
	"strconv"
	"strings"
)

// IndexKey is the synthetic column giving each row a stable identity
// independent of its key value.
const IndexKey = "_index"

// Mode reflects what the manifest supports. A manifest with an image
// column drives explicit record-to-file assignments.
type Mode string

const (
	ModeSimple       Mode = "simple"
	ModeProfessional Mode = "professional"
)

var ErrEmpty = errors.New("manifest has no content")

// Manifest is a parsed manifest with its detected columns.
type Manifest struct {
	Headers []string
	Rows    []Row

	KeyColumn   string
	ImageColumn string
	NameColumn  string
	Mode        Mode

	// KeyDetected reports whether KeyColumn was found by name. When
	// false the first header is used as a stand-in and validation
	// flags the manifest.
	KeyDetected bool
}

// Row is one data row. Values is the header to cell mapping plus the
// synthetic IndexKey entry.
type Row struct {
	Index  int
	Values map[string]string
}

// Key returns the row's value in the manifest's key column.
func (m *Manifest) Key(r Row) string {
	return r.Values[m.KeyColumn]
}

// Name returns the row's display name, falling back to its key.
func (m *Manifest) Name(r Row) string {
	if m.NameColumn != "" {
		if v := r.Values[m.NameColumn]; v != "" {
			return v
		}
	}
	return m.Key(r)
}

var (
	keyHints   = []string{"sku", "reference", "ref"}
	imageHints = []string{"image", "filename", "file"}
	nameHints  = []string{"name", "title", "product_name"}
)

// Parse reads a manifest blob. Blank lines are stripped, the first
// remaining line is the header row, and values are split on commas.
// Quoted fields are not supported; cells containing commas will split.
func Parse(input string) (*Manifest, error) {
	var lines []string
	for _, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	headers := splitRow(lines[0])
	if len(headers) == 0 {
		return nil, ErrEmpty
	}

	m := &Manifest{
		Headers:     headers,
		KeyColumn:   detectColumn(headers, keyHints, ""),
		ImageColumn: detectColumn(headers, imageHints, ""),
		NameColumn:  detectColumn(headers, nameHints, ""),
		Mode:        ModeSimple,
	}
	m.KeyDetected = m.KeyColumn != ""
	if !m.KeyDetected {
		m.KeyColumn = headers[0]
	}
	if m.ImageColumn != "" {
		m.Mode = ModeProfessional
	}

	for i, line := range lines[1:] {
		cells := splitRow(line)
		values := make(map[string]string, len(headers)+1)
		for j, h := range headers {
			if j < len(cells) {
				values[h] = cells[j]
			} else {
				values[h] = ""
			}
		}
		values[IndexKey] = strconv.Itoa(i)
		m.Rows = append(m.Rows, Row{Index: i, Values: values})
	}
	return m, nil
}

func splitRow(line string) []string {
	parts := strings.Split(line, ",")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// detectColumn returns the first header whose lowercased form contains
// any of the hints, or fallback when none does.
func detectColumn(headers, hints []string, fallback string) string {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return h
			}
		}
	}
	return fallback
}
