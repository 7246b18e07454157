package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"precificador/internal/domain"
	"precificador/internal/logging"
	"precificador/internal/ports"
	"precificador/internal/textclean"
)

// DefaultThreshold is the minimum similarity a semantic candidate needs.
const DefaultThreshold = 0.7

type Options struct {
	Threshold     float64
	Limit         int
	AssistTimeout time.Duration
}

// Consolidator runs the literal then semantic search stages.
type Consolidator struct {
	index     ports.SearchIndex
	assistant ports.QueryAssistant
	opts      Options
	logger    *zap.Logger
}

// New builds a consolidator; assistant may be nil.
func New(index ports.SearchIndex, assistant ports.QueryAssistant, opts Options, logger *zap.Logger) *Consolidator {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.AssistTimeout <= 0 {
		opts.AssistTimeout = 20 * time.Second
	}
	return &Consolidator{index: index, assistant: assistant, opts: opts, logger: logging.OrNop(logger)}
}

type Consolidation struct {
	MatchType     domain.MatchType      `json:"matchType"`
	Best          *domain.SearchResult  `json:"best,omitempty"`
	Candidates    []domain.SearchResult `json:"candidates,omitempty"`
	SemanticQuery string                `json:"semanticQuery,omitempty"`
	QuerySource   string                `json:"querySource,omitempty"` // assist|tokenizer
}

// Consolidate always returns a decided outcome. The literal stage receives
// text exactly as given.
func (c *Consolidator) Consolidate(ctx context.Context, text string) Consolidation {
	literal := c.stage(ctx, "literal", text)
	if len(literal) > 0 {
		for i := range literal {
			literal[i].MatchType = domain.MatchLiteral
			literal[i].Similarity = nil
		}
		best := literal[0]
		return Consolidation{MatchType: domain.MatchLiteral, Best: &best, Candidates: literal}
	}

	query, source := c.semanticQuery(ctx, text)
	out := Consolidation{MatchType: domain.MatchNone, SemanticQuery: query, QuerySource: source}
	if query == "" {
		return out
	}
	kept := Rank(text, c.stage(ctx, "semantic", query), c.opts.Threshold)
	if len(kept) == 0 {
		c.logger.Info("search.no_safe_match", zap.String("query", query), zap.Float64("threshold", c.opts.Threshold))
		return out
	}
	best := kept[0]
	out.MatchType = domain.MatchSemantic
	out.Best = &best
	out.Candidates = kept
	return out
}

// stage runs one search; transport failures degrade to no results.
func (c *Consolidator) stage(ctx context.Context, name, query string) []domain.SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	results, err := c.index.Search(ctx, query, c.opts.Limit)
	if err != nil {
		c.logger.Warn("search.stage_failed", zap.String("stage", name), zap.Error(err))
		return nil
	}
	c.logger.Debug("search.stage", zap.String("stage", name), zap.Int("results", len(results)))
	return results
}

func (c *Consolidator) semanticQuery(ctx context.Context, text string) (string, string) {
	if c.assistant != nil {
		actx, cancel := context.WithTimeout(ctx, c.opts.AssistTimeout)
		q, err := c.assistant.SimplifyQuery(actx, text)
		cancel()
		switch {
		case err == nil && strings.TrimSpace(q) != "":
			return strings.TrimSpace(q), "assist"
		case errors.Is(err, context.DeadlineExceeded):
			c.logger.Warn("search.assist_timeout", zap.Error(errors.Join(domain.ErrAssistTimeout, err)), zap.Duration("bound", c.opts.AssistTimeout))
		case err != nil:
			c.logger.Warn("search.assist_failed", zap.Error(err))
		}
	}
	return textclean.SemanticQuery(text), "tokenizer"
}

// Rank scores candidates against the literal description, drops those below
// threshold and sorts the rest by descending similarity.
func Rank(literal string, candidates []domain.SearchResult, threshold float64) []domain.SearchResult {
	kept := make([]domain.SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		score := textclean.Jaccard(cand.RawDescription, literal)
		if score < threshold {
			continue
		}
		s := score
		cand.Similarity = &s
		cand.MatchType = domain.MatchSemantic
		kept = append(kept, cand)
	}
	sort.SliceStable(kept, func(i, j int) bool { return *kept[i].Similarity > *kept[j].Similarity })
	return kept
}
