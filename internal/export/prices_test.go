package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"precificador/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestPricesXLSX(t *testing.T) {
	a := domain.Analysis{
		ID: "a-1",
		Result: &domain.FlowResult{
			Flow:   domain.FlowB,
			Status: domain.StatusSemantic,
			Candidates: []domain.SearchResult{
				{RawDescription: "Luva nitrílica M", Unit: "CX", UnitPrice: fp(25.9), Similarity: fp(0.75), MatchType: domain.MatchSemantic, SourceID: "loja.com.br/luva"},
				{RawDescription: "Luva nitrílica G", Unit: "CX", MatchType: domain.MatchSemantic},
			},
			ConsolidatedDescription: &domain.ConsolidatedDescription{Text: "Luva nitrílica M"},
			PriceReference:          &domain.PriceReference{Samples: 1, Unit: "CX", Min: 25.9, Max: 25.9, Mean: 25.9, Median: 25.9, Sources: []string{"loja.com.br/luva"}},
		},
	}
	b, err := PricesXLSX(a)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(candidatesSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Luva nitrílica M", v)
	v, _ = f.GetCellValue(candidatesSheet, "E2")
	assert.Equal(t, "25.9", v)
	v, _ = f.GetCellValue(candidatesSheet, "E3")
	assert.Empty(t, v)
	v, _ = f.GetCellValue(summarySheet, "B2")
	assert.Equal(t, "FLOW_B", v)
	v, _ = f.GetCellValue(summarySheet, "B3")
	assert.Equal(t, "SEMANTIC", v)
}

func TestPricesXLSX_NoResult(t *testing.T) {
	_, err := PricesXLSX(domain.Analysis{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
