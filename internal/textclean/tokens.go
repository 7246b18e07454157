package textclean

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Luva Cirúrgica" -> "luva cirurgica").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Words splits folded text on anything that is not a letter or digit.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// WordSet is the set of folded words of s.
func WordSet(s string) map[string]struct{} {
	words := Words(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard is |A∩B| / |A∪B| over the word sets of a and b; 0 when both are empty.
func Jaccard(a, b string) float64 {
	sa, sb := WordSet(a), WordSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 0
	}
	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// ContainsFold reports whether needle occurs in haystack ignoring case and accents.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := strings.TrimSpace(Fold(needle))
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}

var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"e": {}, "ou": {}, "em": {}, "no": {}, "na": {}, "nos": {}, "nas": {}, "com": {}, "sem": {},
	"para": {}, "por": {}, "tipo": {}, "um": {}, "uma": {}, "ao": {}, "aos": {}, "item": {},
	"material": {}, "produto": {}, "catmat": {}, "cod": {}, "codigo": {}, "ca": {}, "ref": {},
	"referencia": {}, "marca": {}, "modelo": {}, "similar": {}, "equivalente": {}, "qualidade": {},
	"the": {}, "of": {}, "and": {}, "for": {}, "with": {},
}

// maxQualifiers bounds the qualifiers kept after the principal noun.
const maxQualifiers = 3

// SemanticQuery reduces a description to its principal noun plus a few
// qualifiers, after the default cleaning pipeline.
func SemanticQuery(text string) string {
	cleaned := Default().Run(text)
	var picked []string
	for _, w := range Words(cleaned) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if len(picked) == 0 && (len([]rune(w)) < 3 || !isAlpha(w)) {
			continue
		}
		if len(picked) > 0 && !isAlpha(w) {
			continue
		}
		picked = append(picked, w)
		if len(picked) == 1+maxQualifiers {
			break
		}
	}
	return strings.Join(picked, " ")
}
