package consolidate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"precificador/internal/domain"
	"precificador/internal/textclean"
)

// SearchRight is what a search result may do to a field.
type SearchRight int

const (
	// Never: the search result cannot touch the field.
	Never SearchRight = iota
	// FillEmpty: the search value is used only when the registry left it empty.
	FillEmpty
	// AppendOnly: search values are appended after registry content.
	AppendOnly
)

type FieldRule struct {
	Field  string
	Owner  domain.FieldOwner
	Search SearchRight
}

// Ownership is the field-ownership table of a consolidated description.
var Ownership = []FieldRule{
	{Field: "name", Owner: domain.OwnerRegistry, Search: Never},
	{Field: "category", Owner: domain.OwnerRegistry, Search: Never},
	{Field: "description", Owner: domain.OwnerRegistry, Search: Never},
	{Field: "unit", Owner: domain.OwnerRegistry, Search: FillEmpty},
	{Field: "details", Owner: domain.OwnerSearch, Search: AppendOnly},
}

var presentationPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Unidade", regexp.MustCompile(`(?i)\b(?:unidade(?:\s+de\s+fornecimento)?|unit)\s*:\s*([^;\n:]+)`)},
	{"Embalagem", regexp.MustCompile(`(?i)\b(?:embalagem|packaging)\s*:\s*([^;\n:]+)`)},
	{"Apresentação", regexp.MustCompile(`(?i)(?:\bforma\s+de\s+apresenta[çc][ãa]o|\bapresenta[çc][ãa]o|\bpresentation\s+form)\s*:\s*([^;\n:]+)`)},
}

const maxDetailLen = 80

// ExtractPresentation pulls presentation/usage details out of raw search text.
// Only the fixed labels above are recognized.
func ExtractPresentation(raw string) []domain.PresentationDetail {
	var out []domain.PresentationDetail
	for _, p := range presentationPatterns {
		loc := p.re.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		value := raw[loc[2]:loc[3]]
		if loc[1] < len(raw) && raw[loc[1]] == ':' {
			// The capture ran into the next label; cut it off.
			if i := strings.LastIndex(value, ","); i >= 0 {
				value = value[:i]
			}
		}
		if i := strings.Index(value, ". "); i >= 0 {
			value = value[:i]
		}
		value = textclean.Tidy(textclean.StripCurrency(value))
		value = strings.TrimRight(value, ".")
		if value == "" {
			continue
		}
		if utf8.RuneCountInString(value) > maxDetailLen {
			value = string([]rune(value)[:maxDetailLen])
		}
		out = append(out, domain.PresentationDetail{Label: p.label, Value: value})
	}
	return out
}

// Nucleus builds a description from registry data alone.
func Nucleus(rec domain.RegistryRecord) domain.ConsolidatedDescription {
	d := domain.ConsolidatedDescription{
		Name:     strings.TrimSpace(rec.Name),
		Category: strings.TrimSpace(rec.Category),
		Unit:     strings.TrimSpace(rec.Unit),
		Owners:   map[string]domain.FieldOwner{},
	}
	for _, r := range Ownership {
		if r.Owner == domain.OwnerRegistry {
			d.Owners[r.Field] = domain.OwnerRegistry
		}
	}
	if d.Unit == "" {
		delete(d.Owners, "unit")
	}
	d.Text = d.Name
	desc := strings.TrimSpace(rec.Description)
	if desc != "" && textclean.Fold(desc) != textclean.Fold(d.Name) {
		d.Text += " - " + desc
	}
	return d
}

// Merge consolidates a found registry record with a non-conflicting search
// result. The registry nucleus is never overwritten; the search result only
// fills an empty unit and appends presentation details.
func Merge(rec domain.RegistryRecord, top *domain.SearchResult) (domain.ConsolidatedDescription, error) {
	if !rec.Authoritative() {
		return domain.ConsolidatedDescription{}, domain.NewAppError("NOT_FOUND", fmt.Sprintf("registry record %s not found", rec.Code), domain.ErrNotFound)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return domain.ConsolidatedDescription{}, domain.NewAppError("NOT_FOUND", fmt.Sprintf("registry record %s has no name", rec.Code), domain.ErrNotFound)
	}
	if report := DetectConflict(rec, top); report != nil {
		return domain.ConsolidatedDescription{}, domain.NewAppError("CATEGORY_CONFLICT", report.Reason, domain.ErrConflict)
	}
	d := Nucleus(rec)
	if top == nil {
		return d, nil
	}
	for _, r := range Ownership {
		switch r.Search {
		case FillEmpty:
			if r.Field == "unit" && d.Unit == "" && strings.TrimSpace(top.Unit) != "" {
				d.Unit = strings.TrimSpace(top.Unit)
				d.Owners["unit"] = domain.OwnerSearch
			}
		case AppendOnly:
			if r.Field == "details" {
				d.Details = append(d.Details, ExtractPresentation(top.RawDescription)...)
			}
		case Never:
		}
	}
	if len(d.Details) > 0 {
		d.Owners["details"] = domain.OwnerSearch
		parts := make([]string, 0, len(d.Details)+1)
		parts = append(parts, d.Text)
		for _, det := range d.Details {
			parts = append(parts, det.Label+": "+det.Value)
		}
		d.Text = strings.Join(parts, "; ")
	}
	return d, nil
}
