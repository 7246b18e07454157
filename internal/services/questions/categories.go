package questions

import (
	"fmt"
	"strings"

	"precificador/internal/textclean"
)

type kind int

const (
	kindList kind = iota
	kindDecision
	kindLegalDraft
)

// category binds a question category to the agent output it reads.
type category struct {
	ID       string
	Aliases  []string
	Label    string
	Agent    string
	Field    string
	Kind     kind
	Keywords []string
	render   func(item map[string]any) string
}

var categories = []category{
	{ID: "habilitacao", Label: "Exigências de habilitação", Agent: "habilitacao", Field: "exigencias_habilitacao",
		Keywords: []string{"habilitacao", "habilitar", "certidao", "certidoes", "regularidade fiscal", "qualificacao economica", "balanco"}},
	{ID: "capacidade_tecnica", Aliases: []string{"qualificacao_tecnica"}, Label: "Exigências de capacidade técnica", Agent: "capacidade_tecnica", Field: "exigencias_tecnicas",
		Keywords: []string{"capacidade tecnica", "atestado", "atestados", "qualificacao tecnica", "acervo"}},
	{ID: "itens", Aliases: []string{"objeto"}, Label: "Itens do objeto", Agent: "itens", Field: "itens",
		Keywords: []string{"itens", "item", "objeto", "lote", "lotes", "quantidade"}},
	{ID: "marca", Aliases: []string{"equivalencia"}, Label: "Marca e equivalência", Agent: "marca", Field: "exigencias_marca",
		Keywords: []string{"marca", "equivalente", "equivalencia", "similar", "fabricante"}},
	{ID: "divergencias", Label: "Divergências entre documentos", Agent: "divergencias", Field: "divergencias",
		Keywords: []string{"divergencia", "divergencias", "inconsistencia", "contradicao", "diferenca"}, render: renderDivergence},
	{ID: "esclarecimento", Aliases: []string{"impugnacao", "minuta"}, Label: "Pedido de esclarecimento", Agent: "edital", Kind: kindLegalDraft,
		Keywords: []string{"esclarecimento", "impugnacao", "impugnar", "minuta", "pedido"}},
	{ID: "go_no_go", Aliases: []string{"recomendacao", "decisao"}, Label: "Recomendação de participação", Agent: "decisao", Field: "justificativas", Kind: kindDecision,
		Keywords: []string{"participar", "vale a pena", "recomendacao", "go", "decisao", "devo"}},
	{ID: "prazos", Label: "Prazos", Agent: "prazos", Field: "prazos",
		Keywords: []string{"prazo", "prazos", "entrega", "vigencia", "cronograma"}},
	{ID: "garantia", Label: "Exigências de garantia", Agent: "garantia", Field: "exigencias_garantia",
		Keywords: []string{"garantia", "caucao", "seguro garantia"}},
	{ID: "pagamento", Label: "Condições de pagamento", Agent: "pagamento", Field: "condicoes_pagamento",
		Keywords: []string{"pagamento", "pagar", "nota fiscal", "faturamento", "reajuste"}},
	{ID: "penalidades", Label: "Penalidades", Agent: "penalidades", Field: "penalidades",
		Keywords: []string{"multa", "multas", "penalidade", "penalidades", "sancao", "sancoes"}},
	{ID: "amostras", Label: "Exigências de amostra", Agent: "amostras", Field: "exigencias_amostra",
		Keywords: []string{"amostra", "amostras", "prova de conceito", "catalogo"}},
	{ID: "visita_tecnica", Label: "Visita técnica", Agent: "visita_tecnica", Field: "exigencias_visita",
		Keywords: []string{"visita", "vistoria"}},
	{ID: "sessao", Label: "Sessão pública", Agent: "sessao", Field: "informacoes_sessao",
		Keywords: []string{"sessao", "abertura", "data da disputa", "horario", "lances"}},
	{ID: "valor_estimado", Label: "Valor estimado", Agent: "valor_estimado", Field: "valores",
		Keywords: []string{"valor estimado", "orcamento", "preco maximo", "valor de referencia", "quanto"}},
	{ID: "criterio_julgamento", Label: "Critério de julgamento", Agent: "criterio_julgamento", Field: "criterios",
		Keywords: []string{"criterio", "julgamento", "menor preco", "maior desconto"}},
	{ID: "participacao_me_epp", Aliases: []string{"me_epp"}, Label: "Participação de ME/EPP", Agent: "participacao", Field: "beneficios_me_epp",
		Keywords: []string{"me/epp", "epp", "microempresa", "pequeno porte", "exclusivo"}},
	{ID: "consorcio", Label: "Participação em consórcio", Agent: "participacao", Field: "consorcio",
		Keywords: []string{"consorcio", "consorciadas"}},
	{ID: "subcontratacao", Label: "Subcontratação", Agent: "participacao", Field: "subcontratacao",
		Keywords: []string{"subcontratacao", "subcontratar", "terceirizar"}},
	{ID: "documentos_proposta", Label: "Documentos da proposta", Agent: "proposta", Field: "documentos_proposta",
		Keywords: []string{"proposta", "documentos da proposta", "planilha", "declaracao", "declaracoes"}},
}

var categoryIndex = func() map[string]*category {
	idx := make(map[string]*category, len(categories)*2)
	for i := range categories {
		c := &categories[i]
		idx[c.ID] = c
		for _, a := range c.Aliases {
			idx[a] = c
		}
	}
	return idx
}()

// lookupCategory resolves an id or alias, ignoring case and accents.
func lookupCategory(name string) (*category, bool) {
	key := strings.ReplaceAll(textclean.Fold(strings.TrimSpace(name)), " ", "_")
	c, ok := categoryIndex[key]
	return c, ok
}

// Categories lists the canonical category ids.
func Categories() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.ID
	}
	return out
}

func renderDivergence(item map[string]any) string {
	field := str(item, "campo", "field")
	a, b := str(item, "valor_a"), str(item, "valor_b")
	docA, docB := str(item, "documento_a"), str(item, "documento_b")
	if field == "" && a == "" && b == "" {
		return itemText(item)
	}
	return fmt.Sprintf("%s: %q (%s) x %q (%s)", orMissing(field), a, orMissing(docA), b, orMissing(docB))
}
