// Package textclean holds the ordered text cleaning steps applied to item
// descriptions before semantic search and display, plus the tokenizer and
// similarity used to rank semantic candidates.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Step is one named transformation with a single responsibility.
type Step struct {
	Name  string
	Apply func(string) string
}

// Pipeline applies its steps in order.
type Pipeline []Step

func (p Pipeline) Run(s string) string {
	for _, st := range p {
		s = st.Apply(s)
	}
	return s
}

// Names lists the steps in execution order.
func (p Pipeline) Names() []string {
	out := make([]string, len(p))
	for i, st := range p {
		out[i] = st.Name
	}
	return out
}

// Default is the pipeline used for semantic queries and open-search descriptions.
func Default() Pipeline {
	return Pipeline{
		{Name: "normalize", Apply: Normalize},
		{Name: "strip_currency", Apply: StripCurrency},
		{Name: "strip_legal_boilerplate", Apply: StripLegalBoilerplate},
		{Name: "strip_warranty", Apply: StripWarranty},
		{Name: "dedupe_tokens", Apply: DedupeTokens},
		{Name: "tidy", Apply: Tidy},
	}
}

var (
	reCurrency = regexp.MustCompile(`(?i)(?:\bpre[çc]o|\bvalor)?(?:\s+(?:unit[aá]rio|total|estimado|m[aá]ximo))?\s*:?\s*(?:r\$|brl)\s*\d[\d.]*(?:,\d{1,2})?|\b\d[\d.]*(?:,\d{1,2})?\s+reais\b`)

	reLegal = regexp.MustCompile(`(?i)\b(?:conforme|de acordo com|nos termos d[oa]|segundo)\s+(?:o\s+|a\s+)?(?:edital|termo de refer[eê]ncia|anexo\s+[ivx\d]+|especifica[çc][õo]es(?:\s+t[eé]cnicas)?|lei\s+(?:n[º°o.]?\s*)?[\d.]+(?:/\d{2,4})?)[^.;,]*`)

	reWarrantyTerm    = regexp.MustCompile(`(?i)\b(?:com\s+)?(?:prazo\s+de\s+)?garantia(?:\s+m[ií]nima)?(?:\s+de)?\s+\d+\s*(?:\([^)]*\)\s*)?(?:dias|meses|m[eê]s|anos?)(?:\s+(?:contra\s+defeitos\s+de\s+fabrica[çc][ãa]o|do\s+fabricante))?`)
	reWarrantyMaker   = regexp.MustCompile(`(?i)\b(?:com\s+)?garantia\s+d[oe]\s+fabricante\b`)
	reSpaceBeforePunc = regexp.MustCompile(`\s+([,.;:])`)
	reRepeatedPunc    = regexp.MustCompile(`([,;:.])(?:\s*[,;:.])+`)
)

// Normalize applies NFKC, drops control characters and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// StripCurrency removes monetary amounts and their value/price labels.
func StripCurrency(s string) string {
	return reCurrency.ReplaceAllString(s, " ")
}

// StripLegalBoilerplate removes references to the tender, annexes and statutes.
func StripLegalBoilerplate(s string) string {
	return reLegal.ReplaceAllString(s, " ")
}

// StripWarranty removes warranty clauses.
func StripWarranty(s string) string {
	s = reWarrantyTerm.ReplaceAllString(s, " ")
	return reWarrantyMaker.ReplaceAllString(s, " ")
}

// DedupeTokens drops repeated words (three or more letters), keeping the first occurrence.
func DedupeTokens(s string) string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		key := Fold(strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }))
		if len([]rune(key)) >= 3 && isAlpha(key) {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// Tidy collapses whitespace and the punctuation left behind by removals.
func Tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = reSpaceBeforePunc.ReplaceAllString(s, "$1")
	s = reRepeatedPunc.ReplaceAllString(s, "$1")
	return strings.Trim(s, " ,;:-")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
