package content

import (
	"strings"
	"unicode"
)

// ShortContentThreshold is the word count under which density expectations
// are relaxed: thin pages cannot reasonably hit full density targets.
const ShortContentThreshold = 300

// AdequateSecondaryDensity is the minimum density (percent) for a secondary
// keyword to count as "effective" without title or heading placement.
const AdequateSecondaryDensity = 0.2

// DensityThresholds define the density bands (in percent of total words)
// used to classify keyword usage.
type DensityThresholds struct {
	OptimalMin float64 // below this: underused
	OptimalMax float64 // above this: overused
	StuffingAt float64 // at or above this: stuffing
}

// DefaultDensityThresholds match common on-page SEO guidance.
var DefaultDensityThresholds = DensityThresholds{
	OptimalMin: 0.5,
	OptimalMax: 2.5,
	StuffingAt: 4.5,
}

// Relaxed returns the thresholds applied to short content: the lower bound
// is halved, the upper bounds stay put since overuse is overuse regardless
// of length.
func (t DensityThresholds) Relaxed() DensityThresholds {
	t.OptimalMin /= 2
	return t
}

// Words splits text into lowercase words. Splitting is rune-based so
// multibyte scripts count correctly.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// phraseOccurrences counts occurrences of a (possibly multi-word) keyword
// in the word stream and records the word index of each match.
func phraseOccurrences(words []string, keyword string) (int, []int) {
	phrase := Words(keyword)
	if len(phrase) == 0 || len(words) < len(phrase) {
		return 0, nil
	}
	count := 0
	var positions []int
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			count++
			positions = append(positions, i)
		}
	}
	return count, positions
}

// distribution scores how evenly the match positions spread across the
// content: the fraction of content thirds containing at least one match.
// Zero matches score 0.
func distribution(positions []int, totalWords int) float64 {
	if len(positions) == 0 || totalWords <= 0 {
		return 0
	}
	var thirds [3]bool
	for _, pos := range positions {
		idx := pos * 3 / totalWords
		if idx > 2 {
			idx = 2
		}
		thirds[idx] = true
	}
	hit := 0
	for _, b := range thirds {
		if b {
			hit++
		}
	}
	return float64(hit) / 3.0
}

// classifyDensity maps a density value onto a status and a 0-1 score.
func classifyDensity(density float64, t DensityThresholds) (string, float64) {
	switch {
	case density <= 0:
		return StatusUnderused, 0
	case density < t.OptimalMin:
		return StatusUnderused, 0.7 * (density / t.OptimalMin)
	case density <= t.OptimalMax:
		return StatusOptimal, 1.0
	case density < t.StuffingAt:
		return StatusOverused, 1.0 - 0.7*((density-t.OptimalMax)/(t.StuffingAt-t.OptimalMax))
	default:
		return StatusStuffing, 0.1
	}
}

// analyzeKeyword performs the full density analysis for one keyword. title
// and headings are the already-extracted page title and heading texts used
// for placement checks.
func analyzeKeyword(keyword, cleanContent, title string, headings []string,
	totalWords int, shortContent, primary bool, t DensityThresholds) KeywordAnalysis {

	a := KeywordAnalysis{
		Keyword:      keyword,
		Primary:      primary,
		ShortContent: shortContent,
	}
	if strings.TrimSpace(keyword) == "" {
		a.Status = StatusMissing
		return a
	}

	if shortContent {
		t = t.Relaxed()
	}

	words := Words(cleanContent)
	count, positions := phraseOccurrences(words, keyword)
	a.Occurrences = count
	if totalWords > 0 {
		a.Density = float64(count) / float64(totalWords) * 100
	}
	a.Status, a.Score = classifyDensity(a.Density, t)
	a.Distribution = distribution(positions, totalWords)
	a.InTitle = containsPhrase(title, keyword)
	for _, h := range headings {
		if containsPhrase(h, keyword) {
			a.InHeadings = true
			break
		}
	}
	return a
}

func containsPhrase(text, keyword string) bool {
	words := Words(text)
	n, _ := phraseOccurrences(words, keyword)
	return n > 0
}

// EffectiveSecondaryCount counts secondary keywords that are actually doing
// work: adequate density, or placement in the title or a heading.
func EffectiveSecondaryCount(secondary []KeywordAnalysis) int {
	n := 0
	for _, s := range secondary {
		if s.Density >= AdequateSecondaryDensity || s.InTitle || s.InHeadings {
			n++
		}
	}
	return n
}

// overallBalance scores the relationship between primary and secondary
// keyword usage. A dominant primary (density ratio above 5) or fewer than
// two effective secondaries drags the score down.
func overallBalance(primary KeywordAnalysis, secondary []KeywordAnalysis) float64 {
	if len(secondary) == 0 {
		if primary.Status == StatusOptimal {
			return 0.6
		}
		return 0.4
	}

	score := 1.0
	sum := 0.0
	for _, s := range secondary {
		sum += s.Density
	}
	avg := sum / float64(len(secondary))
	if avg <= 0 {
		score = 0.3
	} else if ratio := primary.Density / avg; ratio > 5 {
		score -= (ratio - 5) * 0.05
		if score < 0.3 {
			score = 0.3
		}
	}

	if EffectiveSecondaryCount(secondary) < 2 {
		score -= 0.3
	}

	if score < 0 {
		score = 0
	}
	return score
}
