package search

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"precificador/internal/domain"
)

// Field aliases seen across marketplace and price-database payloads, in
// preference order.
var (
	descriptionKeys = []string{"descricao", "descricaoItem", "description", "title", "titulo", "nome", "name"}
	unitKeys        = []string{"unidade", "siglaUnidadeFornecimento", "siglaUnidadeMedida", "unit", "unidadeFornecimento"}
	priceKeys       = []string{"precoUnitario", "valorUnitario", "preco", "price", "unitPrice", "valor"}
	quantityKeys    = []string{"quantidade", "quantity", "qtd", "quantidadeItem"}
	sourceKeys      = []string{"url", "link", "permalink", "source", "fonte", "idCompra", "id"}
	listKeys        = []string{"resultado", "results", "items", "itens", "data", "produtos"}
)

// decodeItems accepts a bare array or an object wrapping one under a known key.
func decodeItems(raw []byte) ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	for _, k := range listKeys {
		inner, ok := obj[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, nil
}

// Normalize maps one raw item to a SearchResult. Items without a description
// are dropped.
func Normalize(item map[string]any) (domain.SearchResult, bool) {
	desc := strings.TrimSpace(firstString(item, descriptionKeys))
	if desc == "" {
		return domain.SearchResult{}, false
	}
	r := domain.SearchResult{
		RawDescription: desc,
		Unit:           strings.TrimSpace(firstString(item, unitKeys)),
		SourceID:       SourceID(firstString(item, sourceKeys)),
		MatchType:      domain.MatchLiteral,
	}
	if v, ok := firstNumber(item, priceKeys); ok && v > 0 {
		r.UnitPrice = &v
	}
	if v, ok := firstNumber(item, quantityKeys); ok && v > 0 {
		r.Quantity = &v
	}
	return r, true
}

func firstString(item map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(item map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		switch v := item[k].(type) {
		case float64:
			return v, true
		case string:
			if f, ok := ParseBRL(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

var reAmount = regexp.MustCompile(`\d[\d.,]*`)

// ParseBRL parses amounts like "R$ 1.234,56", "1234,56" or "12.5".
func ParseBRL(s string) (float64, bool) {
	m := reAmount.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.TrimRight(m, ".,")
	switch {
	case strings.Contains(m, ","):
		m = strings.ReplaceAll(m, ".", "")
		m = strings.Replace(m, ",", ".", 1)
	case strings.Count(m, ".") > 1:
		m = strings.ReplaceAll(m, ".", "")
	case strings.Count(m, ".") == 1 && len(m)-strings.Index(m, ".")-1 == 3:
		// "1.234" is a thousands separator.
		m = strings.ReplaceAll(m, ".", "")
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// SourceID reduces a listing URL to its registrable domain plus path; other
// identifiers pass through trimmed.
func SourceID(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	path := strings.TrimRight(u.Path, "/")
	return registrable + path
}
