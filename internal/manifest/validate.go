package manifest

import "fmt"

// Report is the outcome of validating a parsed manifest. Warnings do
// not block the pipeline; errors do.
type Report struct {
	IsValid      bool
	Warnings     []string
	Errors       []string
	Suggestions  []string
	QualityScore int
}

// Validate checks a manifest for pipeline readiness and scores its
// quality from 0 to 100.
func Validate(m *Manifest) Report {
	r := Report{IsValid: true, QualityScore: 100}

	if !m.KeyDetected {
		r.IsValid = false
		r.Errors = append(r.Errors, "no key column detected (expected a header containing sku, reference or ref)")
		r.QualityScore -= 50
	}
	if len(m.Rows) == 0 {
		r.IsValid = false
		r.Errors = append(r.Errors, "manifest has no data rows")
	}

	empty := 0
	duplicates := 0
	seen := make(map[string]int, len(m.Rows))
	totalKeyLen := 0
	for _, row := range m.Rows {
		key := m.Key(row)
		if key == "" {
			empty++
			r.Warnings = append(r.Warnings, fmt.Sprintf("row %d has an empty key", row.Index+1))
			continue
		}
		totalKeyLen += len(key)
		if prev, ok := seen[key]; ok {
			duplicates++
			r.Warnings = append(r.Warnings, fmt.Sprintf("row %d duplicates key %q from row %d", row.Index+1, key, prev+1))
		} else {
			seen[key] = row.Index
		}
	}

	// Deduct in proportion to how much of the manifest is affected.
	if n := len(m.Rows); n > 0 {
		r.QualityScore -= (25 * empty) / n
		r.QualityScore -= (25 * duplicates) / n
	}
	if r.QualityScore < 0 {
		r.QualityScore = 0
	}

	if m.NameColumn == "" {
		r.Suggestions = append(r.Suggestions, "add a name or title column for readable progress reporting")
	}
	if m.ImageColumn == "" {
		r.Suggestions = append(r.Suggestions, "add an image or filename column to enable explicit file assignment")
	}
	if keyed := len(m.Rows) - empty; keyed > 0 && totalKeyLen/keyed < 4 {
		r.Suggestions = append(r.Suggestions, "keys are very short; longer keys improve match reliability")
	}
	return r
}
