package questions

import (
	"strings"

	"precificador/internal/textclean"
)

// InferCategory picks the category whose keywords occur most often in text.
// Ties go to the earlier category; no hit yields "".
func InferCategory(text string) string {
	folded := " " + strings.Join(textclean.Words(text), " ") + " "
	best, bestScore := "", 0
	for _, c := range categories {
		score := 0
		for _, kw := range c.Keywords {
			needle := " " + strings.Join(textclean.Words(kw), " ") + " "
			if strings.Contains(folded, needle) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.ID, score
		}
	}
	return best
}

// LoopDetector flags a question repeated at least threshold times within the
// last window questions, the current one included.
type LoopDetector struct {
	Window    int
	Threshold int
}

func (d LoopDetector) Repeated(history []string, current string) bool {
	if d.Threshold < 1 || d.Window < 1 {
		return false
	}
	if n := d.Window - 1; len(history) > n {
		history = history[len(history)-n:]
	}
	key := normalizeQuestion(current)
	count := 1
	for _, h := range history {
		if normalizeQuestion(h) == key {
			count++
		}
	}
	return count >= d.Threshold
}

func normalizeQuestion(s string) string {
	return strings.Join(textclean.Words(s), " ")
}
