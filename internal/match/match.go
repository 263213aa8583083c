// Package match pairs manifest records with image files using a ladder
// of strategies ordered by confidence.
package match

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/merchdeck/merchdeck/internal/manifest"
)

// Strategy identifies how a match was found.
type Strategy string

const (
	StrategyExact      Strategy = "exact"
	StrategyNormalized Strategy = "normalized"
	StrategyPartial    Strategy = "partial"
	StrategyFuzzy      Strategy = "fuzzy"
)

// Settings tunes the matcher. Zero values fall back to defaults.
type Settings struct {
	MultipleImages bool
	MinKeyLength   int
	PartialLength  int
	FuzzyThreshold float64
}

// DefaultSettings returns the matcher defaults.
func DefaultSettings() Settings {
	return Settings{
		MultipleImages: true,
		MinKeyLength:   5,
		PartialLength:  30,
		FuzzyThreshold: 0.7,
	}
}

func (s Settings) normalized() Settings {
	if s.MinKeyLength <= 0 {
		s.MinKeyLength = 5
	}
	if s.PartialLength <= 0 {
		s.PartialLength = 30
	}
	if s.FuzzyThreshold <= 0 {
		s.FuzzyThreshold = 0.7
	}
	return s
}

// Match is one record-to-image pairing.
type Match struct {
	RecordIndex          int
	RecordKey            string
	RecordName           string
	FileName             string
	Strategy             Strategy
	Confidence           float64
	ImageIndex           int
	TotalImagesForRecord int
}

// Stats summarizes a matcher run.
type Stats struct {
	ByStrategy        map[Strategy]int
	HighConfidence    int // >= 0.9
	MediumConfidence  int // >= 0.7
	LowConfidence     int // < 0.7
	AverageConfidence float64
	MatchedRecords    int
}

// Result is the full matcher output.
type Result struct {
	Matches          []Match
	UnmatchedRecords []string
	UnmatchedImages  []string
	Stats            Stats
	Recommendations  []string
}

// Run matches every manifest row against the image list. Rows are
// visited in manifest order and each image is consumed by at most one
// record.
func Run(m *manifest.Manifest, images []string, settings Settings) *Result {
	settings = settings.normalized()
	consumed := make([]bool, len(images))
	result := &Result{Stats: Stats{ByStrategy: make(map[Strategy]int)}}

	for _, row := range m.Rows {
		key := m.Key(row)
		if key == "" {
			result.UnmatchedRecords = append(result.UnmatchedRecords, rowLabel(m, row))
			continue
		}

		found := matchRow(key, images, consumed, settings)
		if len(found) == 0 {
			result.UnmatchedRecords = append(result.UnmatchedRecords, key)
			continue
		}

		result.Stats.MatchedRecords++
		for idx, f := range found {
			consumed[f.image] = true
			result.Matches = append(result.Matches, Match{
				RecordIndex:          row.Index,
				RecordKey:            key,
				RecordName:           m.Name(row),
				FileName:             images[f.image],
				Strategy:             f.strategy,
				Confidence:           f.confidence,
				ImageIndex:           idx,
				TotalImagesForRecord: len(found),
			})
		}
	}

	for i, name := range images {
		if !consumed[i] {
			result.UnmatchedImages = append(result.UnmatchedImages, name)
		}
	}

	finishStats(result)
	return result
}

type found struct {
	image      int
	strategy   Strategy
	confidence float64
}

// matchRow walks the strategy ladder for one record. Once a strategy
// yields a match the ladder stops; with MultipleImages the scan keeps
// collecting further images at that same strategy.
func matchRow(key string, images []string, consumed []bool, s Settings) []found {
	strategies := []struct {
		name Strategy
		test func(key, image string) (float64, bool)
	}{
		{StrategyExact, matchExact},
		{StrategyNormalized, matchNormalized},
		{StrategyPartial, func(k, img string) (float64, bool) { return matchPartial(k, img, s) }},
		{StrategyFuzzy, func(k, img string) (float64, bool) { return matchFuzzy(k, img, s) }},
	}

	for _, strat := range strategies {
		var hits []found
		for i, img := range images {
			if consumed[i] {
				continue
			}
			if conf, ok := strat.test(key, img); ok {
				hits = append(hits, found{image: i, strategy: strat.name, confidence: conf})
				if !s.MultipleImages {
					return hits
				}
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func matchExact(key, image string) (float64, bool) {
	lowerImage := strings.ToLower(image)
	lowerKey := strings.ToLower(key)
	base := strings.ToLower(basename(image))
	if strings.Contains(lowerImage, lowerKey) || strings.Contains(lowerKey, base) {
		return 1.0, true
	}
	return 0, false
}

func matchNormalized(key, image string) (float64, bool) {
	nk := norm(key)
	nb := norm(basename(image))
	if nk == "" || nb == "" {
		return 0, false
	}
	if strings.Contains(nb, nk) || strings.Contains(nk, nb) {
		return 0.9, true
	}
	return 0, false
}

func matchPartial(key, image string, s Settings) (float64, bool) {
	nk := norm(key)
	nb := norm(basename(image))
	shared := commonPrefixLen(nk, nb)
	if shared >= s.MinKeyLength && shared <= s.PartialLength {
		return 0.8, true
	}
	return 0, false
}

func matchFuzzy(key, image string, s Settings) (float64, bool) {
	nk := norm(key)
	nb := norm(basename(image))
	maxLen := len(nk)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 0, false
	}
	dist := levenshtein.ComputeDistance(nk, nb)
	similarity := float64(maxLen-dist) / float64(maxLen)
	if similarity >= s.FuzzyThreshold {
		return similarity, true
	}
	return 0, false
}

// norm lowercases and strips every non-alphanumeric rune.
func norm(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func basename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func rowLabel(m *manifest.Manifest, row manifest.Row) string {
	if name := m.Name(row); name != "" {
		return name
	}
	return fmt.Sprintf("row %d", row.Index+1)
}

func finishStats(r *Result) {
	total := len(r.Matches)
	if total == 0 {
		if len(r.UnmatchedImages) > 0 {
			r.Recommendations = append(r.Recommendations, "unmatched_images")
		}
		return
	}

	sum := 0.0
	for _, m := range r.Matches {
		r.Stats.ByStrategy[m.Strategy]++
		sum += m.Confidence
		switch {
		case m.Confidence >= 0.9:
			r.Stats.HighConfidence++
		case m.Confidence >= 0.7:
			r.Stats.MediumConfidence++
		default:
			r.Stats.LowConfidence++
		}
	}
	r.Stats.AverageConfidence = sum / float64(total)

	if r.Stats.MatchedRecords > 0 &&
		float64(len(r.UnmatchedRecords)) > 0.3*float64(r.Stats.MatchedRecords) {
		r.Recommendations = append(r.Recommendations, "high_unmatched_records")
	}
	if float64(r.Stats.LowConfidence) > 0.2*float64(total) {
		r.Recommendations = append(r.Recommendations, "low_confidence_matches")
	}
	if len(r.UnmatchedImages) > 0 {
		r.Recommendations = append(r.Recommendations, "unmatched_images")
	}
}
