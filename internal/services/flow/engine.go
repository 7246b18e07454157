package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
	"precificador/internal/services/consolidate"
	"precificador/internal/services/search"
	"precificador/internal/textclean"
)

// Engine runs one analysis request through the scanner, the router and the
// chosen flow.
type Engine struct {
	scanner  Scanner
	ca       ports.Registry
	catmat   ports.Registry
	search   *search.Consolidator
	pipeline textclean.Pipeline
	logger   *zap.Logger
}

func NewEngine(scanner Scanner, ca, catmat ports.Registry, consolidator *search.Consolidator, logger *zap.Logger) *Engine {
	return &Engine{
		scanner:  scanner,
		ca:       ca,
		catmat:   catmat,
		search:   consolidator,
		pipeline: textclean.Default(),
		logger:   logging.OrNop(logger).Named("flow"),
	}
}

var _ ports.Analyzer = (*Engine)(nil)

// Analyze always returns a FlowResult with an explicit status unless the
// request itself is malformed.
func (e *Engine) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.FlowResult, error) {
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.CodeA) == "" && strings.TrimSpace(req.CodeB) == "" {
		return domain.FlowResult{}, domain.Malformed("description, codeA or codeB is required")
	}
	scan := e.scanner.Scan(req)
	decision := Decide(scan)
	if decision.PrecedenceNote != "" {
		e.logger.Info("flow.precedence", zap.String("code_a", decision.ResolvedCodeA), zap.String("code_b", decision.ResolvedCodeB), zap.String("note", decision.PrecedenceNote))
	}
	e.logger.Debug("flow.decided", zap.Stringer("flow", decision.Flow), zap.Bool("code_b_derived", decision.CodeBDerived))

	var (
		res domain.FlowResult
		err error
	)
	switch decision.Flow {
	case domain.FlowA:
		res, err = e.runA(ctx, scan, decision)
	case domain.FlowB:
		res = e.runB(ctx, scan)
	case domain.FlowC:
		res, err = e.runC(ctx, scan, decision)
	default:
		return domain.FlowResult{}, fmt.Errorf("unhandled flow %d", int(decision.Flow))
	}
	if err != nil {
		return domain.FlowResult{}, err
	}
	res.Flow = decision.Flow
	res.Decision = decision
	e.logger.Info("flow.completed", zap.Stringer("flow", decision.Flow), zap.String("status", string(res.Status)))
	return res, nil
}

// runA resolves the CA registry. Search runs only to attach a price reference.
func (e *Engine) runA(ctx context.Context, scan ScanResult, d domain.FlowDecision) (domain.FlowResult, error) {
	rec, err := e.ca.Lookup(ctx, d.ResolvedCodeA)
	if res, handled := e.registryFailure(rec, err, "ca"); handled {
		return res, nil
	}
	if !rec.Found {
		return domain.FlowResult{Status: domain.StatusCANotFound, Registry: &rec}, nil
	}
	desc := consolidate.Nucleus(rec)
	desc.Text = fmt.Sprintf("%s (CA nº %s)", desc.Text, rec.Code)
	res := domain.FlowResult{Status: domain.StatusOK, Registry: &rec, ConsolidatedDescription: &desc}
	if query := priceQuery(rec, scan.Description); query != "" {
		c := e.search.Consolidate(ctx, query)
		res.Candidates = c.Candidates
		res.PriceReference = search.PriceReference(c)
	}
	return res, nil
}

// runB is the open search path; the description comes from the cleaned top result.
func (e *Engine) runB(ctx context.Context, scan ScanResult) domain.FlowResult {
	c := e.search.Consolidate(ctx, scan.Description)
	res := domain.FlowResult{Candidates: c.Candidates, PriceReference: search.PriceReference(c)}
	switch c.MatchType {
	case domain.MatchLiteral:
		res.Status = domain.StatusLiteral
	case domain.MatchSemantic:
		res.Status = domain.StatusSemantic
	default:
		e.logger.Info("flow.no_safe_match", zap.Error(domain.ErrNoSafeMatch))
		res.Status = domain.StatusNoMatch
		res.Candidates = nil
		res.PriceReference = nil
		return res
	}
	res.Match = c.Best
	res.ConsolidatedDescription = &domain.ConsolidatedDescription{
		Text:   e.pipeline.Run(c.Best.RawDescription),
		Unit:   c.Best.Unit,
		Owners: map[string]domain.FieldOwner{"description": domain.OwnerSearch, "unit": domain.OwnerSearch},
	}
	return res
}

// runC resolves the CATMAT registry, checks the top search result for a
// category conflict, then merges.
func (e *Engine) runC(ctx context.Context, scan ScanResult, d domain.FlowDecision) (domain.FlowResult, error) {
	rec, err := e.catmat.Lookup(ctx, d.ResolvedCodeB)
	if res, handled := e.registryFailure(rec, err, "catmat"); handled {
		return res, nil
	}
	if !rec.Found {
		return domain.FlowResult{Status: domain.StatusCatmatNotFound, Registry: &rec}, nil
	}
	if !rec.Authoritative() {
		// Soft-validated codes carry no nucleus; the request text stands in.
		e.logger.Info("flow.soft_validation", zap.String("code", rec.Code))
		desc := domain.ConsolidatedDescription{
			Text:   e.pipeline.Run(scan.Description),
			Owners: map[string]domain.FieldOwner{"description": domain.OwnerRequest},
		}
		return domain.FlowResult{Status: domain.StatusSoftValidated, Registry: &rec, ConsolidatedDescription: &desc}, nil
	}

	c := e.search.Consolidate(ctx, searchText(rec, scan.Description))
	res := domain.FlowResult{Registry: &rec, Match: c.Best, Candidates: c.Candidates, PriceReference: search.PriceReference(c)}
	if conflict := consolidate.DetectConflict(rec, c.Best); conflict != nil {
		e.logger.Warn("flow.category_conflict", zap.String("code", rec.Code), zap.String("category", rec.Category), zap.String("reason", conflict.Reason))
		res.Status = domain.StatusCategoryConflict
		res.ConflictDetails = conflict
		return res, nil
	}
	desc, err := consolidate.Merge(rec, c.Best)
	if err != nil {
		return domain.FlowResult{}, fmt.Errorf("merge catmat %s: %w", rec.Code, err)
	}
	res.Status = domain.StatusOK
	res.ConsolidatedDescription = &desc
	return res, nil
}

// registryFailure turns a transport error into REGISTRO_INDISPONIVEL.
func (e *Engine) registryFailure(rec domain.RegistryRecord, err error, registry string) (domain.FlowResult, bool) {
	if err == nil {
		return domain.FlowResult{}, false
	}
	e.logger.Warn("flow.registry_unavailable", zap.String("registry", registry), zap.String("code", rec.Code), zap.Error(err), zap.Bool("transport", errors.Is(err, domain.ErrTransport)))
	return domain.FlowResult{Status: domain.StatusRegistryUnavailable}, true
}

// searchText is the request text as given; a bare code request falls back to
// the registry name.
func searchText(rec domain.RegistryRecord, description string) string {
	if strings.TrimSpace(description) == "" {
		return rec.Name
	}
	return description
}

func priceQuery(rec domain.RegistryRecord, description string) string {
	if rec.Name != "" {
		return rec.Name
	}
	return strings.TrimSpace(description)
}
