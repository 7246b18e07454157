package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precificador/internal/domain"
	"precificador/internal/services/search"
)

func TestRoute_TruthTable(t *testing.T) {
	tests := []struct {
		hasA, hasB bool
		want       domain.Flow
	}{
		{true, false, domain.FlowA},
		{false, true, domain.FlowC},
		{false, false, domain.FlowB},
		{true, true, domain.FlowA},
	}
	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			assert.Equal(t, tt.want, Route(tt.hasA, tt.hasB), "hasA=%v hasB=%v", tt.hasA, tt.hasB)
		}
	}
}

func TestDecide_CAPrecedence(t *testing.T) {
	d := Decide(ScanResult{CodeA: "12345", CodeB: "477283"})
	assert.Equal(t, domain.FlowA, d.Flow)
	assert.NotEmpty(t, d.PrecedenceNote)

	d = Decide(ScanResult{CodeB: "477283"})
	assert.Equal(t, domain.FlowC, d.Flow)
	assert.Empty(t, d.PrecedenceNote)
}

func TestScanner_DerivesCatmatWithoutTouchingDescription(t *testing.T) {
	inputs := []struct {
		desc string
		want string
	}{
		{"CATMAT 477283 disposable ostomy ring", "477283"},
		{"Luva nitrílica, cód. CATMAT: 269942", "269942"},
		{"Papel A4 código do material nº 461777 resma", "461777"},
		{"Item CATMAT 150234 caneta", "150234"},
		{"catmat 12345 too short", ""},
		{"Bota de segurança CA 12345", ""},
		{"", ""},
	}
	s := Scanner{}
	for _, in := range inputs {
		req := domain.AnalysisRequest{Description: in.desc}
		before := req.Description
		out := s.Scan(req)
		assert.Equal(t, before, out.Description, in.desc)
		assert.Equal(t, before, req.Description, in.desc)
		assert.Equal(t, in.want, out.CodeB, in.desc)
		assert.Equal(t, in.want != "", out.CodeBDerived, in.desc)
	}
}

func TestScanner_ExplicitCodeWins(t *testing.T) {
	out := Scanner{}.Scan(domain.AnalysisRequest{Description: "CATMAT 477283", CodeB: " 999999 "})
	assert.Equal(t, "999999", out.CodeB)
	assert.False(t, out.CodeBDerived)
}

func TestScanner_EmbeddedCA(t *testing.T) {
	req := domain.AnalysisRequest{Description: "safety boot C.A. nº 12345"}
	assert.Empty(t, Scanner{}.Scan(req).CodeA)

	out := Scanner{ScanCA: true}.Scan(req)
	assert.Equal(t, "12345", out.CodeA)
	assert.True(t, out.CodeADerived)
}

type fakeRegistry struct {
	records map[string]domain.RegistryRecord
	err     error
	calls   []string
}

func (f *fakeRegistry) Lookup(_ context.Context, code string) (domain.RegistryRecord, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return domain.RegistryRecord{Code: code}, f.err
	}
	if rec, ok := f.records[code]; ok {
		return rec, nil
	}
	return domain.RegistryRecord{Code: code}, nil
}

type fakeIndex struct {
	results map[string][]domain.SearchResult
	queries []string
}

func (f *fakeIndex) Search(_ context.Context, query string, _ int) ([]domain.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results[query], nil
}

func price(v float64) *float64 { return &v }

func newEngine(scanner Scanner, ca, catmat *fakeRegistry, idx *fakeIndex) *Engine {
	return NewEngine(scanner, ca, catmat, search.New(idx, nil, search.Options{}, nil), nil)
}

func TestEngine_FlowA_FoundByExplicitCode(t *testing.T) {
	ca := &fakeRegistry{records: map[string]domain.RegistryRecord{
		"12345": {Code: "12345", Name: "Botina de segurança", Description: "Botina de couro com biqueira", Category: "Calçado", Found: true, Source: "ca", Validation: domain.ValidationAuthoritative},
	}}
	catmat := &fakeRegistry{}
	idx := &fakeIndex{}
	e := newEngine(Scanner{}, ca, catmat, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "safety boot CA 12345", CodeA: "12345"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowA, res.Flow)
	assert.Equal(t, domain.StatusOK, res.Status)
	require.NotNil(t, res.ConsolidatedDescription)
	assert.Equal(t, "Botina de segurança - Botina de couro com biqueira (CA nº 12345)", res.ConsolidatedDescription.Text)
	assert.Equal(t, domain.OwnerRegistry, res.ConsolidatedDescription.Owners["name"])
	assert.Empty(t, catmat.calls)
	assert.Nil(t, res.PriceReference)
}

func TestEngine_FlowA_BothCodesUsesCA(t *testing.T) {
	ca := &fakeRegistry{}
	catmat := &fakeRegistry{}
	e := newEngine(Scanner{}, ca, catmat, &fakeIndex{})

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "bota", CodeA: "12345", CodeB: "477283"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowA, res.Flow)
	assert.Equal(t, domain.StatusCANotFound, res.Status)
	assert.Nil(t, res.ConsolidatedDescription)
	assert.Equal(t, []string{"12345"}, ca.calls)
	assert.Empty(t, catmat.calls)
	assert.NotEmpty(t, res.Decision.PrecedenceNote)
}

func TestEngine_EmbeddedCAWithoutScanGoesToOpenSearch(t *testing.T) {
	ca := &fakeRegistry{}
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		"safety boot CA 12345": {{RawDescription: "Safety boot CA 12345 leather", SourceID: "shop.example", UnitPrice: price(120)}},
	}}
	e := newEngine(Scanner{}, ca, &fakeRegistry{}, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "safety boot CA 12345"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowB, res.Flow)
	assert.Equal(t, domain.StatusLiteral, res.Status)
	assert.Empty(t, ca.calls)
	require.NotNil(t, res.PriceReference)
	assert.InDelta(t, 120, res.PriceReference.Median, 1e-9)
}

func TestEngine_FlowC_DerivedCodeConsolidates(t *testing.T) {
	catmat := &fakeRegistry{records: map[string]domain.RegistryRecord{
		"477283": {Code: "477283", Name: "Ostomy ring", Description: "Disposable ostomy ring, adhesive", Category: "Ostomy supplies", Found: true, Source: "catmat", Validation: domain.ValidationAuthoritative},
	}}
	desc := "CATMAT 477283 disposable ostomy ring"
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		desc: {{RawDescription: "Disposable ostomy ring 57mm, packaging: box with 10 units", Unit: "CX", SourceID: "shop.example", UnitPrice: price(30)}},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, catmat, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: desc})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowC, res.Flow)
	assert.Equal(t, "477283", res.Decision.ResolvedCodeB)
	assert.True(t, res.Decision.CodeBDerived)
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Nil(t, res.ConflictDetails)
	require.NotNil(t, res.ConsolidatedDescription)
	assert.Equal(t, "Ostomy ring - Disposable ostomy ring, adhesive; Embalagem: box with 10 units", res.ConsolidatedDescription.Text)
	assert.Equal(t, "Ostomy supplies", res.ConsolidatedDescription.Category)
	assert.Equal(t, "CX", res.ConsolidatedDescription.Unit)
	assert.Equal(t, []string{desc}, idx.queries, "literal stage gets the request text unchanged")
}

func TestEngine_FlowC_ConflictBlocksConsolidation(t *testing.T) {
	catmat := &fakeRegistry{records: map[string]domain.RegistryRecord{
		"269942": {Code: "269942", Name: "Luva descartável", Category: "Luvas", Found: true, Validation: domain.ValidationAuthoritative},
	}}
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		"impressora": {{RawDescription: "Impressora laser industrial", SourceID: "shop.example"}},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, catmat, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "impressora", CodeB: "269942"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCategoryConflict, res.Status)
	require.NotNil(t, res.ConflictDetails)
	assert.Equal(t, "Luvas", res.ConflictDetails.RegistryCategory)
	assert.Nil(t, res.ConsolidatedDescription)
}

func TestEngine_FlowC_NotFoundNeverFabricates(t *testing.T) {
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		"luva": {{RawDescription: "Luva nitrílica", SourceID: "shop.example"}},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, &fakeRegistry{}, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "luva", CodeB: "111111"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCatmatNotFound, res.Status)
	assert.Nil(t, res.ConsolidatedDescription)
	assert.Empty(t, idx.queries)
}

func TestEngine_FlowC_SoftValidationUsesRequestText(t *testing.T) {
	catmat := &fakeRegistry{records: map[string]domain.RegistryRecord{
		"123456": {Code: "123456", Found: true, Source: "soft_validation", Validation: domain.ValidationSoft},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, catmat, &fakeIndex{})

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "Caneta azul, valor R$ 2,00", CodeB: "123456"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSoftValidated, res.Status)
	assert.NotEqual(t, domain.StatusOK, res.Status)
	assert.False(t, res.Registry.Authoritative())
	require.NotNil(t, res.ConsolidatedDescription)
	assert.Equal(t, "Caneta azul", res.ConsolidatedDescription.Text)
	assert.Equal(t, domain.OwnerRequest, res.ConsolidatedDescription.Owners["description"])
}

func TestEngine_RegistryTransportFailure(t *testing.T) {
	catmat := &fakeRegistry{err: domain.TransportError("catmat lookup", errors.New("connection refused"))}
	e := newEngine(Scanner{}, &fakeRegistry{}, catmat, &fakeIndex{})

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{CodeB: "477283"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowC, res.Flow)
	assert.Equal(t, domain.StatusRegistryUnavailable, res.Status)
	assert.Nil(t, res.ConsolidatedDescription)
}

func TestEngine_FlowB_NoSafeMatch(t *testing.T) {
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		"xyz obscure matches": {
			{RawDescription: "xyz connector cable", SourceID: "a.example"},
			{RawDescription: "obscure novel paperback", SourceID: "b.example"},
		},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, &fakeRegistry{}, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "XYZ obscure item with no matches"})
	require.NoError(t, err)
	assert.Equal(t, domain.FlowB, res.Flow)
	assert.Equal(t, domain.StatusNoMatch, res.Status)
	assert.Nil(t, res.ConsolidatedDescription)
	assert.Nil(t, res.Match)
	assert.Equal(t, []string{"XYZ obscure item with no matches", "xyz obscure matches"}, idx.queries)
}

func TestEngine_FlowB_SemanticDescriptionIsCleaned(t *testing.T) {
	desc := "Luva nitrílica azul tamanho M caixa"
	idx := &fakeIndex{results: map[string][]domain.SearchResult{
		"luva nitrilica azul tamanho": {
			{RawDescription: "Luva nitrílica azul tamanho M caixa R$ 25", Unit: "CX", SourceID: "shop.example"},
		},
	}}
	e := newEngine(Scanner{}, &fakeRegistry{}, &fakeRegistry{}, idx)

	res, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: desc})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSemantic, res.Status)
	require.NotNil(t, res.ConsolidatedDescription)
	assert.Equal(t, "Luva nitrílica azul tamanho M caixa", res.ConsolidatedDescription.Text)
	assert.Equal(t, domain.OwnerSearch, res.ConsolidatedDescription.Owners["description"])
}

func TestEngine_MalformedRequest(t *testing.T) {
	e := newEngine(Scanner{}, &fakeRegistry{}, &fakeRegistry{}, &fakeIndex{})
	_, err := e.Analyze(context.Background(), domain.AnalysisRequest{Description: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformed)
}
