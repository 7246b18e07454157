package domain

import "time"

// Core domain models. HTTP request/response shapes reuse these directly; the
// json tags are the wire contract of the analysis and question endpoints.

// AnalysisRequest is the immutable input of one analysis. Empty codes mean absent.
type AnalysisRequest struct {
	Description string `json:"description"`
	CodeA       string `json:"codeA,omitempty"` // CA (certificado de aprovação)
	CodeB       string `json:"codeB,omitempty"` // CATMAT
}

// Flow is the closed set of verification paths.
type Flow int

const (
	// FlowA is the identity-registry (CA) path.
	FlowA Flow = iota + 1
	// FlowB is the open-search path.
	FlowB
	// FlowC is the catalog-registry (CATMAT) path.
	FlowC
)

func (f Flow) String() string {
	switch f {
	case FlowA:
		return "FLOW_A"
	case FlowB:
		return "FLOW_B"
	case FlowC:
		return "FLOW_C"
	default:
		return "FLOW_UNKNOWN"
	}
}

func (f Flow) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Flow) UnmarshalText(b []byte) error {
	switch string(b) {
	case "FLOW_A":
		*f = FlowA
	case "FLOW_B":
		*f = FlowB
	case "FLOW_C":
		*f = FlowC
	default:
		return NewAppError("MALFORMED_REQUEST", "unknown flow "+string(b), ErrMalformed)
	}
	return nil
}

type FlowDecision struct {
	Flow           Flow   `json:"flow"`
	ResolvedCodeA  string `json:"resolvedCodeA,omitempty"`
	ResolvedCodeB  string `json:"resolvedCodeB,omitempty"`
	CodeBDerived   bool   `json:"codeBDerived,omitempty"`
	PrecedenceNote string `json:"precedenceNote,omitempty"`
}

// Validation tells authoritative registry data apart from soft-validated codes.
type Validation string

const (
	ValidationAuthoritative Validation = "AUTHORITATIVE"
	ValidationSoft          Validation = "SOFT"
)

// RegistryRecord is owned by the registry client that produced it and is only
// read downstream.
type RegistryRecord struct {
	Code        string     `json:"code"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Found       bool       `json:"found"`
	Source      string     `json:"source,omitempty"`
	Validation  Validation `json:"validation,omitempty"`
}

// Authoritative reports whether the record carries registry data that may
// seed a consolidated description.
func (r RegistryRecord) Authoritative() bool {
	return r.Found && r.Validation != ValidationSoft
}

type MatchType string

const (
	MatchLiteral  MatchType = "LITERAL"
	MatchSemantic MatchType = "SEMANTIC"
	MatchNone     MatchType = "NONE"
)

// SearchResult is the normalized view over heterogeneous search payloads.
// Similarity is only set for semantic matches.
type SearchResult struct {
	RawDescription string    `json:"rawDescription"`
	Unit           string    `json:"unit,omitempty"`
	UnitPrice      *float64  `json:"unitPrice,omitempty"`
	Quantity       *float64  `json:"quantity,omitempty"`
	SourceID       string    `json:"sourceId"`
	Similarity     *float64  `json:"similarity,omitempty"`
	MatchType      MatchType `json:"matchType"`
}

type ConflictReport struct {
	RegistryCategory  string `json:"registryCategory"`
	RegistryName      string `json:"registryName"`
	SearchDescription string `json:"searchDescription"`
	Reason            string `json:"reason"`
}

// FieldOwner names the subsystem that wrote a consolidated field.
type FieldOwner string

const (
	OwnerRegistry FieldOwner = "registry"
	OwnerSearch   FieldOwner = "search"
	OwnerRequest  FieldOwner = "request"
)

type PresentationDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ConsolidatedDescription is derived and read-only.
type ConsolidatedDescription struct {
	Text     string                `json:"text"`
	Name     string                `json:"name,omitempty"`
	Category string                `json:"category,omitempty"`
	Unit     string                `json:"unit,omitempty"`
	Details  []PresentationDetail  `json:"details,omitempty"`
	Owners   map[string]FieldOwner `json:"owners,omitempty"`
}

// PriceReference summarizes unit prices of the matched search results.
type PriceReference struct {
	MatchType MatchType `json:"matchType"`
	Samples   int       `json:"samples"`
	Unit      string    `json:"unit,omitempty"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Sources   []string  `json:"sources,omitempty"`
}

type FlowStatus string

const (
	StatusOK                  FlowStatus = "OK"
	StatusLiteral             FlowStatus = "LITERAL"
	StatusSemantic            FlowStatus = "SEMANTIC"
	StatusNoMatch             FlowStatus = "SEM_CORRESPONDENCIA"
	StatusCatmatNotFound      FlowStatus = "CATMAT_NAO_ENCONTRADO"
	StatusCategoryConflict    FlowStatus = "CONFLITO_CATEGORIA"
	StatusCANotFound          FlowStatus = "CA_NAO_ENCONTRADO"
	StatusRegistryUnavailable FlowStatus = "REGISTRO_INDISPONIVEL"
	// StatusSoftValidated is a CATMAT code accepted by format only; no registry data backs it.
	StatusSoftValidated       FlowStatus = "OK_VALIDACAO_SUAVE"
)

type FlowResult struct {
	Flow                    Flow                     `json:"flow"`
	Status                  FlowStatus               `json:"status"`
	Decision                FlowDecision             `json:"decision"`
	Registry                *RegistryRecord          `json:"registry,omitempty"`
	Match                   *SearchResult            `json:"match,omitempty"`
	Candidates              []SearchResult           `json:"candidates,omitempty"`
	ConsolidatedDescription *ConsolidatedDescription `json:"consolidatedDescription,omitempty"`
	ConflictDetails         *ConflictReport          `json:"conflictDetails,omitempty"`
	PriceReference          *PriceReference          `json:"priceReference,omitempty"`
}

// Analysis is a persisted request plus its result once processed.
type Analysis struct {
	ID         string          `json:"analysisId"`
	Request    AnalysisRequest `json:"request"`
	Status     string          `json:"status"` // queued|running|completed|failed
	Result     *FlowResult     `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}
