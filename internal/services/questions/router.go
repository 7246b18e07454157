// Package questions answers categorized questions against a stored analysis
// snapshot. Answers are derived from the snapshot only and always carry an
// explicit status.
package questions

import (
	"fmt"
	"strings"

	"precificador/internal/domain"
)

// DefaultLowConfidence is the agent confidence below which answers are flagged.
const DefaultLowConfidence = 0.5

type Router struct {
	lowConfidence float64
}

func NewRouter(lowConfidence float64) *Router {
	if lowConfidence <= 0 {
		lowConfidence = DefaultLowConfidence
	}
	return &Router{lowConfidence: lowConfidence}
}

// Route answers one question. It never consults anything but snap.
func (r *Router) Route(snap domain.Snapshot, q domain.Question) domain.Answer {
	cat, ok := lookupCategory(q.Category)
	if !ok {
		return uncategorized(q)
	}
	return r.answer(snap, cat, q)
}

func (r *Router) answer(snap domain.Snapshot, cat *category, q domain.Question) domain.Answer {
	var a domain.Answer
	switch cat.Kind {
	case kindList:
		a = r.list(snap, cat)
	case kindDecision:
		a = r.decision(snap, cat)
	case kindLegalDraft:
		a = r.legalDraft(snap, cat, q)
	default:
		return uncategorized(q)
	}
	a.QuestionID = q.ID
	a.Category = cat.ID
	if a.Evidence == nil || a.Status == domain.AnswerNoData {
		a.Evidence = []domain.Evidence{}
	}
	return a
}

func uncategorized(q domain.Question) domain.Answer {
	return domain.Answer{
		QuestionID: q.ID,
		Category:   q.Category,
		Text:       "Não foi possível categorizar a pergunta. Informe uma das categorias: " + strings.Join(Categories(), ", ") + ".",
		Status:     domain.AnswerNoData,
		Format:     domain.FormatText,
		Evidence:   []domain.Evidence{},
	}
}

func noData(cat *category, reason string) domain.Answer {
	return domain.Answer{
		Text:   fmt.Sprintf("%s: %s.", cat.Label, reason),
		Status: domain.AnswerNoData,
		Format: domain.FormatText,
	}
}

func (r *Router) status(agent map[string]any) domain.AnswerStatus {
	if c, ok := confidence(agent); ok && c < r.lowConfidence {
		return domain.AnswerLowConfidence
	}
	return domain.AnswerOK
}

func (r *Router) list(snap domain.Snapshot, cat *category) domain.Answer {
	agent := snap.Agent(cat.Agent)
	if agent == nil {
		return noData(cat, "a análise não produziu estes dados")
	}
	its := items(agent, cat.Field, cat.render)
	if len(its) == 0 {
		return noData(cat, "nenhuma informação encontrada no arquivo")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):", cat.Label, len(its))
	for i, it := range its {
		fmt.Fprintf(&b, "\n%d. %s", i+1, it.Text)
	}
	return domain.Answer{
		Text:     b.String(),
		Status:   r.status(agent),
		Format:   domain.FormatText,
		Evidence: evidence(snap, cat.Agent+"."+cat.Field, its),
	}
}

func (r *Router) decision(snap domain.Snapshot, cat *category) domain.Answer {
	agent := snap.Agent(cat.Agent)
	if agent == nil {
		return noData(cat, "a análise não produziu estes dados")
	}
	rec := str(agent, "recomendacao", "decisao")
	if rec == "" {
		return noData(cat, "nenhuma recomendação registrada no arquivo")
	}
	its := items(agent, cat.Field, nil)
	var b strings.Builder
	fmt.Fprintf(&b, "Recomendação: %s.", rec)
	if len(its) > 0 {
		b.WriteString("\nJustificativas:")
		for i, it := range its {
			fmt.Fprintf(&b, "\n%d. %s", i+1, it.Text)
		}
	}
	ev := evidence(snap, cat.Agent+"."+cat.Field, its)
	if len(ev) == 0 {
		ev = []domain.Evidence{{Field: cat.Agent + ".recomendacao", LiteralExcerpt: rec}}
	}
	return domain.Answer{Text: b.String(), Status: r.status(agent), Format: domain.FormatText, Evidence: ev}
}
