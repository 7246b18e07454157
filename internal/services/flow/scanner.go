package flow

import (
	"regexp"
	"strings"

	"precificador/internal/domain"
)

var (
	// Label tokens for catalog codes: "CATMAT", "cód. CATMAT", "código do material", "item CATMAT".
	reCatmatCode = regexp.MustCompile(`(?i)\b(?:item\s+catmat|c[oó]d(?:igo|\.)?\s*catmat|catmat|c[oó]d(?:igo|\.)?\s*(?:do\s+)?material)\s*(?:n[º°o.]{0,2}\s*)?[:#-]?\s*(\d{6,})`)

	// "CA 12345", "C.A. nº 12345".
	reCACode = regexp.MustCompile(`(?i)\bC\.?\s?A\.?\s*(?:n[º°o.]{0,2}\s*)?[:#-]?\s*(\d{3,6})\b`)
)

// Scanner derives codes embedded in a description when the caller did not
// supply them. It never rewrites the description.
type Scanner struct {
	// ScanCA also derives CA numbers from the text. Off by default: an
	// embedded CA alone routes to open search.
	ScanCA bool
}

type ScanResult struct {
	Description  string
	CodeA        string
	CodeB        string
	CodeADerived bool
	CodeBDerived bool
}

func (s Scanner) Scan(req domain.AnalysisRequest) ScanResult {
	out := ScanResult{
		Description: req.Description,
		CodeA:       strings.TrimSpace(req.CodeA),
		CodeB:       strings.TrimSpace(req.CodeB),
	}
	if out.CodeB == "" {
		if code, ok := firstCode(reCatmatCode, req.Description); ok {
			out.CodeB, out.CodeBDerived = code, true
		}
	}
	if s.ScanCA && out.CodeA == "" {
		if code, ok := firstCode(reCACode, req.Description); ok {
			out.CodeA, out.CodeADerived = code, true
		}
	}
	return out
}

func firstCode(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
