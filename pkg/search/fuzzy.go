package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/n8nhub/n8nhub/pkg/models"
)

// Field weights. Title dominates, then instance name, tags, subtitle. Scores
// are distances: 0 is a perfect match, 1 is no match, so a weaker field
// inflates the distance of an otherwise identical hit.
const (
	weightTitle    = 1.0
	weightInstance = 0.6
	weightTags     = 0.4
	weightSubtitle = 0.2
)

// primaryThreshold tightens as the query gets shorter: short queries are
// inherently ambiguous and must be filtered more strictly.
func primaryThreshold(queryLen int) float64 {
	threshold := 0.3 + 0.05*float64(queryLen)
	if threshold > 0.6 {
		return 0.6
	}

	return threshold
}

// secondaryCutoff discards marginal hits even when they passed the primary
// threshold.
func secondaryCutoff(queryLen int) float64 {
	if queryLen <= 2 {
		return 0.4
	}

	return 0.8
}

// fuzzyRank is the second tier: weighted multi-field distance scoring. Any
// internal failure of the ranking falls back silently to the substring tier;
// fuzzy search never surfaces an error.
func (e *Engine) fuzzyRank(items []models.WorkflowItem, query string) (ranked []models.WorkflowItem) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Fuzzy ranking failed, falling back to substring match", "panic", r)

			ranked = substringFilter(items, query)
		}
	}()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	accept := primaryThreshold(len(needle))
	cutoff := secondaryCutoff(len(needle))

	for _, item := range items {
		score := scoreItem(item, needle)
		if score <= accept && score <= cutoff {
			ranked = append(ranked, item)
		}
	}

	return ranked
}

// scoreItem takes the best weighted field distance for the item.
func scoreItem(item models.WorkflowItem, needle string) float64 {
	best := fieldScore(item.Title, needle, weightTitle)

	if s := fieldScore(item.InstanceName, needle, weightInstance); s < best {
		best = s
	}

	for _, tag := range item.Tags {
		if s := fieldScore(tag, needle, weightTags); s < best {
			best = s
		}
	}

	if s := fieldScore(item.Subtitle, needle, weightSubtitle); s < best {
		best = s
	}

	return best
}

// fieldScore computes the distance of one field, divided by the field weight
// so low-weight fields must match much more exactly to count.
func fieldScore(text, needle string, weight float64) float64 {
	distance := fieldDistance(strings.ToLower(text), needle)

	weighted := distance / weight
	if weighted > 1 {
		return 1
	}

	return weighted
}

// fieldDistance grades how far a field is from the query: exact, prefix, and
// substring matches are near-perfect; a scattered subsequence match degrades
// with how widely the matched characters spread.
func fieldDistance(text, needle string) float64 {
	if text == "" {
		return 1
	}

	if text == needle {
		return 0
	}

	if strings.HasPrefix(text, needle) {
		return 0.1
	}

	if strings.Contains(text, needle) {
		return 0.2
	}

	matches := fuzzy.Find(needle, []string{text})
	if len(matches) == 0 || len(matches[0].MatchedIndexes) == 0 {
		return 1
	}

	indexes := matches[0].MatchedIndexes
	span := indexes[len(indexes)-1] - indexes[0] + 1

	density := float64(len(needle)) / float64(span)

	return 0.3 + 0.4*(1-density)
}
