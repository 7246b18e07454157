// Package export renders analysis results as XLSX workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"precificador/internal/domain"
)

const (
	candidatesSheet = "Pesquisa de preços"
	summarySheet    = "Resumo"
)

// PricesXLSX writes the candidates of an analysis and its price reference.
func PricesXLSX(a domain.Analysis) ([]byte, error) {
	if a.Result == nil {
		return nil, fmt.Errorf("analysis %s has no result: %w", a.ID, domain.ErrNotFound)
	}
	res := a.Result

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", candidatesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	headers := []string{"#", "Descrição", "Unidade", "Quantidade", "Preço unitário", "Similaridade", "Correspondência", "Fonte"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(candidatesSheet, cell, h)
	}
	for i, c := range res.Candidates {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(candidatesSheet, cell, v)
		}
		write(1, i+1)
		write(2, truncate(c.RawDescription, 250))
		write(3, c.Unit)
		if c.Quantity != nil {
			write(4, *c.Quantity)
		}
		if c.UnitPrice != nil {
			write(5, *c.UnitPrice)
		}
		if c.Similarity != nil {
			write(6, *c.Similarity)
		}
		write(7, string(c.MatchType))
		write(8, c.SourceID)
	}
	_ = f.SetColWidth(candidatesSheet, "A", "A", 5)
	_ = f.SetColWidth(candidatesSheet, "B", "B", 60)
	_ = f.SetColWidth(candidatesSheet, "C", "G", 14)
	_ = f.SetColWidth(candidatesSheet, "H", "H", 40)

	summary := [][2]any{
		{"Análise", a.ID},
		{"Fluxo", res.Flow.String()},
		{"Status", string(res.Status)},
		{"Descrição", describe(res)},
	}
	if p := res.PriceReference; p != nil {
		summary = append(summary,
			[2]any{"Amostras", p.Samples},
			[2]any{"Unidade", p.Unit},
			[2]any{"Mínimo", p.Min},
			[2]any{"Mediana", p.Median},
			[2]any{"Média", p.Mean},
			[2]any{"Máximo", p.Max},
			[2]any{"Fontes", strings.Join(p.Sources, ", ")},
		)
	} else {
		summary = append(summary, [2]any{"Preço de referência", "sem preços nas correspondências"})
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func describe(res *domain.FlowResult) string {
	if res.ConsolidatedDescription != nil {
		return res.ConsolidatedDescription.Text
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
