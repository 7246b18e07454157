package questions

import (
	"fmt"
	"strings"

	"precificador/internal/domain"
)

// draftFields are the placeholders of the legal draft, in template order.
var draftFields = []struct {
	key   string
	label string
}{
	{"orgao", "Órgão"},
	{"modalidade", "Modalidade"},
	{"numero", "Número"},
	{"processo", "Processo"},
	{"objeto", "Objeto"},
	{"prazo_esclarecimento", "Prazo para pedidos"},
}

const draftTemplate = `%s

Ao(À) %s
Agente de Contratação / Pregoeiro(a)

Referência: %s nº %s
Processo: %s
Objeto: %s

A interessada, com fundamento no art. 164 da Lei nº 14.133/2021, vem apresentar %s quanto ao seguinte ponto:

Questionamento: %s

Fundamentação: %s

Prazo para pedidos: %s

Nestes termos, pede deferimento.

[Local], [data].
[Representante legal]`

// legalDraft fills a fixed template. Every unavailable field gets the missing
// marker so the skeleton is always complete.
func (r *Router) legalDraft(snap domain.Snapshot, cat *category, q domain.Question) domain.Answer {
	edital := snap.Agent(cat.Agent)
	values := make(map[string]string, len(draftFields))
	var ev []domain.Evidence
	for _, f := range draftFields {
		v := str(edital, f.key)
		field := cat.Agent + "." + f.key
		if v == "" {
			v = str(snap.Context, f.key)
			field = "context." + f.key
		}
		if v == "" {
			values[f.key] = missingMarker
			continue
		}
		values[f.key] = v
		if len(ev) < maxEvidence {
			e := domain.Evidence{Field: field, LiteralExcerpt: v}
			if doc, page, ok := locate(snap.Corpus, v); ok {
				e.SourceDocument, e.Page = doc, page
			}
			ev = append(ev, e)
		}
	}

	grounds := missingMarker
	if div := items(snap.Agent("divergencias"), "divergencias", renderDivergence); len(div) > 0 {
		grounds = "Constatou-se divergência entre documentos do certame: " + div[0].Text + "."
	}

	title, act := "PEDIDO DE ESCLARECIMENTO", "pedido de esclarecimento"
	if isChallenge(q) {
		title, act = "IMPUGNAÇÃO AO EDITAL", "impugnação"
	}
	question := strings.TrimSpace(q.Text)
	if question == "" {
		question = missingMarker
	}

	text := fmt.Sprintf(draftTemplate, title,
		values["orgao"], values["modalidade"], values["numero"], values["processo"], values["objeto"],
		act, question, grounds, values["prazo_esclarecimento"])

	status := domain.AnswerOK
	if len(ev) == 0 {
		status = domain.AnswerNoData
	} else if edital != nil {
		status = r.status(edital)
	}
	return domain.Answer{Text: text, Status: status, Format: domain.FormatLegalDraft, Evidence: ev}
}

func isChallenge(q domain.Question) bool {
	if c, ok := lookupCategory(q.Category); ok && c.ID == "esclarecimento" && strings.Contains(strings.ToLower(q.Category), "impugna") {
		return true
	}
	return strings.Contains(strings.ToLower(q.Text), "impugna")
}
