package match

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdeck/merchdeck/internal/manifest"
)

func mustManifest(t *testing.T, blob string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(blob)
	require.NoError(t, err)
	return m
}

func TestMatchLadderEndToEnd(t *testing.T) {
	// Two records, three images. Neither filename contains the raw key
	// so both matches land on the normalized strategy.
	m := mustManifest(t, "SKU,Name\nABC-001,Widget\nABC-002,Gadget\n")
	images := []string{"abc001_1.jpg", "abc_001.jpg", "xyz.png"}

	result := Run(m, images, DefaultSettings())

	require.Len(t, result.Matches, 2)
	first := result.Matches[0]
	assert.Equal(t, "ABC-001", first.RecordKey)
	assert.Equal(t, "abc001_1.jpg", first.FileName)
	assert.Equal(t, StrategyNormalized, first.Strategy)
	assert.InDelta(t, 0.9, first.Confidence, 1e-9)
	assert.Equal(t, 0, first.ImageIndex)
	assert.Equal(t, 2, first.TotalImagesForRecord)

	second := result.Matches[1]
	assert.Equal(t, "abc_001.jpg", second.FileName)
	assert.Equal(t, 1, second.ImageIndex)
	assert.Equal(t, 2, second.TotalImagesForRecord)

	assert.Equal(t, []string{"ABC-002"}, result.UnmatchedRecords)
	assert.Equal(t, []string{"xyz.png"}, result.UnmatchedImages)
}

func TestMatchStrategies(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		image    string
		strategy Strategy
		conf     float64
	}{
		{"exact filename contains key", "ABC-001", "shot_ABC-001_front.jpg", StrategyExact, 1.0},
		{"exact key contains basename", "WIDGET-PRO-X", "widget-pro-x.jpg", StrategyExact, 1.0},
		{"normalized", "ABC-001", "abc001.jpg", StrategyNormalized, 0.9},
		{"partial prefix", "ABCDE-99", "abcde-77.jpg", StrategyPartial, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustManifest(t, "sku\n"+tt.key+"\n")
			result := Run(m, []string{tt.image}, DefaultSettings())
			require.Len(t, result.Matches, 1)
			assert.Equal(t, tt.strategy, result.Matches[0].Strategy)
			assert.InDelta(t, tt.conf, result.Matches[0].Confidence, 1e-9)
		})
	}
}

func TestMatchFuzzy(t *testing.T) {
	// One substitution in a 7-char normalized key: similarity 6/7.
	m := mustManifest(t, "sku\nWDG-1234\n")
	result := Run(m, []string{"wdg1235.jpg"}, Settings{FuzzyThreshold: 0.7, MinKeyLength: 7})

	require.Len(t, result.Matches, 1)
	assert.Equal(t, StrategyFuzzy, result.Matches[0].Strategy)
	assert.InDelta(t, 6.0/7.0, result.Matches[0].Confidence, 1e-9)
}

func TestEarlierStrategyWins(t *testing.T) {
	// Both images would pass normalized; the exact candidate must win
	// and the ladder must not fall through for it.
	m := mustManifest(t, "sku\nABC-001\n")
	result := Run(m, []string{"abc001.jpg", "ABC-001.jpg"}, Settings{MultipleImages: false})

	require.Len(t, result.Matches, 1)
	assert.Equal(t, "ABC-001.jpg", result.Matches[0].FileName)
	assert.Equal(t, StrategyExact, result.Matches[0].Strategy)
}

func TestSingleImageMode(t *testing.T) {
	m := mustManifest(t, "sku\nABC-001\n")
	result := Run(m, []string{"abc001_1.jpg", "abc001_2.jpg"}, Settings{MultipleImages: false})

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 1, result.Matches[0].TotalImagesForRecord)
	assert.Equal(t, []string{"abc001_2.jpg"}, result.UnmatchedImages)
}

func TestImagesConsumedGlobally(t *testing.T) {
	// Identical keys: the first row consumes the image, the second goes
	// unmatched rather than sharing it.
	m := mustManifest(t, "sku\nABC-001\nABC-001\n")
	result := Run(m, []string{"abc001.jpg"}, Settings{MultipleImages: false})

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 0, result.Matches[0].RecordIndex)
	assert.Equal(t, []string{"ABC-001"}, result.UnmatchedRecords)
	assert.Empty(t, result.UnmatchedImages)
}

func TestStatsAndRecommendations(t *testing.T) {
	m := mustManifest(t, "sku\nABC-001\nZZZ-999\nYYY-888\n")
	result := Run(m, []string{"abc001.jpg", "stray.png"}, DefaultSettings())

	assert.Equal(t, 1, result.Stats.MatchedRecords)
	assert.Equal(t, 1, result.Stats.ByStrategy[StrategyNormalized])
	assert.Equal(t, 1, result.Stats.HighConfidence)
	assert.InDelta(t, 0.9, result.Stats.AverageConfidence, 1e-9)

	assert.Contains(t, result.Recommendations, "high_unmatched_records")
	assert.Contains(t, result.Recommendations, "unmatched_images")
	assert.NotContains(t, result.Recommendations, "low_confidence_matches")
}

func TestMatchPartitionProperty(t *testing.T) {
	// Every image lands in exactly one of matched/unmatched, and
	// per-record image indices are contiguous from zero.
	rng := rand.New(rand.NewSource(11))
	keys := []string{"ABC-1001", "DEF-2002", "GHI-3003", "JKL-4004"}
	stems := []string{"abc1001", "def_2002", "ghi-3003", "unrelated", "jkl4004x"}

	for run := 0; run < 50; run++ {
		blob := "sku\n"
		for _, k := range keys {
			if rng.Intn(2) == 0 {
				blob += k + "\n"
			}
		}
		var images []string
		for i, s := range stems {
			if rng.Intn(2) == 0 {
				images = append(images, fmt.Sprintf("%s_%d.jpg", s, i))
			}
		}

		m, err := manifest.Parse(blob)
		if err != nil {
			continue // no rows this round
		}
		result := Run(m, images, DefaultSettings())

		matched := make(map[string]bool)
		for _, mm := range result.Matches {
			assert.False(t, matched[mm.FileName], "image %s matched twice", mm.FileName)
			matched[mm.FileName] = true
		}
		assert.Equal(t, len(images), len(result.Matches)+len(result.UnmatchedImages))
		for _, name := range result.UnmatchedImages {
			assert.False(t, matched[name])
		}

		perRecord := make(map[int][]int)
		totals := make(map[int]int)
		for _, mm := range result.Matches {
			perRecord[mm.RecordIndex] = append(perRecord[mm.RecordIndex], mm.ImageIndex)
			totals[mm.RecordIndex] = mm.TotalImagesForRecord
		}
		for rec, indices := range perRecord {
			assert.Len(t, indices, totals[rec])
			for want, got := range indices {
				assert.Equal(t, want, got, "record %d image indices not contiguous", rec)
			}
		}
	}
}
