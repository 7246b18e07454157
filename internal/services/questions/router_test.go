package questions

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precificador/internal/domain"
)

const fixtureSnapshot = `{
  "corpus": {
    "documents": [
      {"nome": "edital.pdf", "paginas": [
        {"numero": 1, "texto": "Pregão Eletrônico 12/2025. Objeto: aquisição de luvas."},
        {"numero": 7, "texto": "8.2 Certidão negativa de débitos trabalhistas (CNDT). 8.3 Prova de regularidade com o FGTS."}
      ]},
      {"nome": "termo_referencia.pdf", "paginas": [
        {"numero": 3, "texto": "Prazo de entrega: 30 dias corridos."}
      ]}
    ]
  },
  "results": {
    "agents": {
      "habilitacao": {
        "confianca": 0.92,
        "exigencias_habilitacao": [
          {"descricao": "Certidão negativa de débitos trabalhistas (CNDT)"},
          {"descricao": "Prova de regularidade com o FGTS", "documento": "edital.pdf", "pagina": 7}
        ]
      },
      "prazos": {
        "confianca": 0.3,
        "prazos": ["Prazo de entrega: 30 dias corridos"]
      },
      "itens": {"itens": []},
      "divergencias": {
        "divergencias": [
          {"campo": "prazo de entrega", "documento_a": "edital.pdf", "valor_a": "15 dias", "documento_b": "termo_referencia.pdf", "valor_b": "30 dias", "pagina_a": 4}
        ]
      },
      "decisao": {
        "recomendacao": "PARTICIPAR",
        "justificativas": ["Exigências de habilitação usuais", "Prazo compatível", "Sem exigência de amostra", "Valor estimado atrativo"]
      },
      "edital": {"orgao": "Prefeitura Municipal de Exemplo", "modalidade": "Pregão Eletrônico", "numero": "12/2025"}
    }
  }
}`

func fixture(t *testing.T) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(fixtureSnapshot), &snap))
	return snap
}

func TestRoute_HabilitacaoTwoItems(t *testing.T) {
	r := NewRouter(0)
	a := r.Route(fixture(t), domain.Question{ID: "q1", Category: "habilitacao", Text: "Quais documentos de habilitação?"})

	assert.Equal(t, domain.AnswerOK, a.Status)
	assert.Equal(t, "habilitacao", a.Category)
	assert.Equal(t, domain.FormatText, a.Format)
	assert.Contains(t, a.Text, "Certidão negativa de débitos trabalhistas (CNDT)")
	assert.Contains(t, a.Text, "Prova de regularidade com o FGTS")
	require.Len(t, a.Evidence, 2)

	assert.Equal(t, "habilitacao.exigencias_habilitacao[0]", a.Evidence[0].Field)
	assert.Equal(t, "edital.pdf", a.Evidence[0].SourceDocument, "located in corpus")
	assert.Equal(t, 7, a.Evidence[0].Page)
	assert.Equal(t, "edital.pdf", a.Evidence[1].SourceDocument)
	assert.Equal(t, 7, a.Evidence[1].Page)
}

func TestRoute_EvidenceCappedAtThree(t *testing.T) {
	a := NewRouter(0).Route(fixture(t), domain.Question{Category: "go_no_go"})
	assert.Equal(t, domain.AnswerOK, a.Status)
	assert.True(t, strings.HasPrefix(a.Text, "Recomendação: PARTICIPAR."))
	assert.Contains(t, a.Text, "4. Valor estimado atrativo")
	assert.Len(t, a.Evidence, 3)
}

func TestRoute_LowConfidence(t *testing.T) {
	a := NewRouter(0.5).Route(fixture(t), domain.Question{Category: "prazos"})
	assert.Equal(t, domain.AnswerLowConfidence, a.Status)
	require.Len(t, a.Evidence, 1)
	assert.Equal(t, "termo_referencia.pdf", a.Evidence[0].SourceDocument)
	assert.Equal(t, 3, a.Evidence[0].Page)
}

func TestRoute_NoDataHasNoEvidence(t *testing.T) {
	snap := fixture(t)
	r := NewRouter(0)
	for _, cat := range []string{"garantia", "itens", "penalidades", "nao_existe", ""} {
		a := r.Route(snap, domain.Question{Category: cat, Text: "?"})
		assert.Equal(t, domain.AnswerNoData, a.Status, cat)
		assert.NotNil(t, a.Evidence, cat)
		assert.Empty(t, a.Evidence, cat)
	}
}

func TestRoute_AliasesAndUnknown(t *testing.T) {
	snap := fixture(t)
	r := NewRouter(0)

	a := r.Route(snap, domain.Question{Category: "Objeto"})
	assert.Equal(t, "itens", a.Category)

	a = r.Route(snap, domain.Question{Category: "Equivalência"})
	assert.Equal(t, "marca", a.Category)

	a = r.Route(snap, domain.Question{Category: "astrologia"})
	assert.Equal(t, "astrologia", a.Category)
	assert.Contains(t, a.Text, "Não foi possível categorizar")
}

func TestRoute_UnhandledKindIsNoData(t *testing.T) {
	r := NewRouter(0)
	q := domain.Question{ID: "q9", Category: "novo", Text: "?"}

	var a domain.Answer
	require.NotPanics(t, func() {
		a = r.answer(fixture(t), &category{ID: "novo", Kind: kind(99)}, q)
	})
	assert.Equal(t, "q9", a.QuestionID)
	assert.Equal(t, domain.AnswerNoData, a.Status)
	assert.NotNil(t, a.Evidence)
	assert.Empty(t, a.Evidence)
	assert.Contains(t, a.Text, "Não foi possível categorizar")
}

func TestRoute_Divergences(t *testing.T) {
	a := NewRouter(0).Route(fixture(t), domain.Question{Category: "divergencias"})
	assert.Equal(t, domain.AnswerOK, a.Status)
	assert.Contains(t, a.Text, `prazo de entrega: "15 dias" (edital.pdf) x "30 dias" (termo_referencia.pdf)`)
	require.Len(t, a.Evidence, 1)
	assert.Equal(t, "edital.pdf", a.Evidence[0].SourceDocument)
	assert.Equal(t, 4, a.Evidence[0].Page)
}

func TestRoute_LegalDraftMarksMissingFields(t *testing.T) {
	a := NewRouter(0).Route(fixture(t), domain.Question{Category: "esclarecimento", Text: "O prazo de entrega é de 15 ou 30 dias?"})
	assert.Equal(t, domain.FormatLegalDraft, a.Format)
	assert.Equal(t, domain.AnswerOK, a.Status)
	assert.True(t, strings.HasPrefix(a.Text, "PEDIDO DE ESCLARECIMENTO"))
	assert.Contains(t, a.Text, "Ao(À) Prefeitura Municipal de Exemplo")
	assert.Contains(t, a.Text, "Referência: Pregão Eletrônico nº 12/2025")
	assert.Contains(t, a.Text, "Processo: "+missingMarker)
	assert.Contains(t, a.Text, "Objeto: "+missingMarker)
	assert.Contains(t, a.Text, "Questionamento: O prazo de entrega é de 15 ou 30 dias?")
	assert.Contains(t, a.Text, "Fundamentação: Constatou-se divergência")
	assert.Len(t, a.Evidence, 3)
}

func TestRoute_LegalDraftWithoutData(t *testing.T) {
	a := NewRouter(0).Route(domain.Snapshot{}, domain.Question{Category: "impugnacao", Text: "Impugnar exigência de marca"})
	assert.Equal(t, domain.AnswerNoData, a.Status)
	assert.Empty(t, a.Evidence)
	assert.True(t, strings.HasPrefix(a.Text, "IMPUGNAÇÃO AO EDITAL"))
	assert.Equal(t, 7, strings.Count(a.Text, missingMarker))
}

func TestInferCategory(t *testing.T) {
	cases := map[string]string{
		"Quais certidões são exigidas para habilitação?": "habilitacao",
		"Qual o prazo de entrega?":                       "prazos",
		"Há multa por atraso?":                           "penalidades",
		"Posso ofertar marca similar?":                   "marca",
		"Precisa de visita técnica?":                     "visita_tecnica",
		"Qual é a cor do céu":                            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, InferCategory(in), in)
	}
}

func TestLoopDetector(t *testing.T) {
	d := LoopDetector{Window: 5, Threshold: 2}
	assert.False(t, d.Repeated(nil, "Qual o prazo?"))
	assert.True(t, d.Repeated([]string{"qual o PRAZO"}, "Qual o prazo?"))
	assert.False(t, d.Repeated([]string{"qual o prazo", "a", "b", "c", "d"}, "Qual o prazo?"), "outside the window")

	strict := LoopDetector{Window: 5, Threshold: 3}
	assert.False(t, strict.Repeated([]string{"qual o prazo"}, "Qual o prazo?"))
	assert.True(t, strict.Repeated([]string{"qual o prazo", "x", "qual o prazo"}, "Qual o prazo?"))
}
