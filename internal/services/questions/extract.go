package questions

import (
	"fmt"
	"strconv"
	"strings"

	"precificador/internal/domain"
	"precificador/internal/textclean"
)

// maxEvidence bounds the supporting items cited per answer.
const maxEvidence = 3

const missingMarker = "SEM DADOS NO ARQUIVO"

// supportItem is one piece of agent data normalized for rendering and citing.
type supportItem struct {
	Text     string
	Excerpt  string
	Document string
	Page     int
}

// items reads agent[field] as a list. A scalar value is a single item; empty
// strings and nulls are skipped.
func items(agent map[string]any, field string, render func(map[string]any) string) []supportItem {
	raw, ok := agent[field]
	if !ok || raw == nil {
		return nil
	}
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	default:
		list = []any{v}
	}
	out := make([]supportItem, 0, len(list))
	for _, el := range list {
		var it supportItem
		switch v := el.(type) {
		case map[string]any:
			if render != nil {
				it.Text = render(v)
			} else {
				it.Text = itemText(v)
			}
			it.Excerpt = str(v, "trecho", "trecho_literal", "excerpt")
			it.Document = str(v, "documento", "documento_a", "fonte", "arquivo", "document")
			it.Page = num(v, "pagina", "pagina_a", "page")
		default:
			it.Text = scalar(v)
		}
		it.Text = strings.TrimSpace(it.Text)
		if it.Text == "" {
			continue
		}
		if it.Excerpt == "" {
			it.Excerpt = it.Text
		}
		out = append(out, it)
	}
	return out
}

// itemText picks the descriptive text of a structured item.
func itemText(m map[string]any) string {
	text := str(m, "descricao", "texto", "exigencia", "item", "valor", "description", "text")
	if text == "" {
		return ""
	}
	if q := str(m, "quantidade"); q != "" {
		if u := str(m, "unidade"); u != "" {
			return fmt.Sprintf("%s (%s %s)", text, q, u)
		}
		return fmt.Sprintf("%s (%s)", text, q)
	}
	return text
}

// evidence cites the first supporting items. Missing document/page are looked
// up in the corpus pages by literal excerpt.
func evidence(snap domain.Snapshot, fieldPrefix string, its []supportItem) []domain.Evidence {
	n := min(len(its), maxEvidence)
	out := make([]domain.Evidence, 0, n)
	for i := 0; i < n; i++ {
		it := its[i]
		ev := domain.Evidence{
			Field:          fmt.Sprintf("%s[%d]", fieldPrefix, i),
			SourceDocument: it.Document,
			Page:           it.Page,
			LiteralExcerpt: it.Excerpt,
		}
		if ev.SourceDocument == "" || ev.Page == 0 {
			if doc, page, ok := locate(snap.Corpus, it.Excerpt); ok {
				if ev.SourceDocument == "" {
					ev.SourceDocument = doc
				}
				if ev.Page == 0 {
					ev.Page = page
				}
			}
		}
		out = append(out, ev)
	}
	return out
}

// locate finds the first corpus page whose text contains excerpt.
// The corpus shape is {documents: [{nome|name, paginas|pages: [{numero|page, texto|text}]}]}.
func locate(corpus map[string]any, excerpt string) (string, int, bool) {
	if strings.TrimSpace(excerpt) == "" {
		return "", 0, false
	}
	docs, _ := firstOf(corpus, "documents", "documentos").([]any)
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		name := str(doc, "nome", "name", "arquivo")
		pages, _ := firstOf(doc, "paginas", "pages").([]any)
		for i, p := range pages {
			page, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if textclean.ContainsFold(str(page, "texto", "text"), excerpt) {
				number := num(page, "numero", "page", "pagina")
				if number == 0 {
					number = i + 1
				}
				return name, number, true
			}
		}
	}
	return "", 0, false
}

// confidence reads agent.confianca; ok is false when absent.
func confidence(agent map[string]any) (float64, bool) {
	switch v := firstOf(agent, "confianca", "confidence").(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(scalar(m[k])); s != "" {
			return s
		}
	}
	return ""
}

func num(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingMarker
	}
	return s
}
