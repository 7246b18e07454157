package domain

// AnswerStatus is the confidence outcome of one answer.
type AnswerStatus string

const (
	AnswerOK            AnswerStatus = "OK"
	AnswerLowConfidence AnswerStatus = "LOW_CONFIDENCE"
	AnswerNoData        AnswerStatus = "NO_DATA"
)

type AnswerFormat string

const (
	FormatText       AnswerFormat = "TEXTO"
	FormatLegalDraft AnswerFormat = "MINUTA_JURIDICA"
)

type Question struct {
	ID       string `json:"questionId,omitempty"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

type Evidence struct {
	Field          string `json:"field"`
	SourceDocument string `json:"sourceDocument,omitempty"`
	Page           int    `json:"page,omitempty"`
	LiteralExcerpt string `json:"literalExcerpt"`
}

type Answer struct {
	QuestionID string       `json:"questionId"`
	Category   string       `json:"category"`
	Text       string       `json:"answerText"`
	Status     AnswerStatus `json:"status"`
	Format     AnswerFormat `json:"answerFormat"`
	Evidence   []Evidence   `json:"evidence"`
	Repeated   bool         `json:"repeated,omitempty"`
}

// Snapshot is a previously computed analysis consumed read-only by the
// question router. Agent payloads are extractor specific.
type Snapshot struct {
	ID      string         `json:"snapshotId,omitempty"`
	Corpus  map[string]any `json:"corpus"`
	Results Results        `json:"results"`
	Context map[string]any `json:"context,omitempty"`
}

type Results struct {
	Agents map[string]map[string]any `json:"agents"`
}

// Agent returns the agent sub-object, or nil when the analysis never produced it.
func (s Snapshot) Agent(id string) map[string]any {
	if s.Results.Agents == nil {
		return nil
	}
	return s.Results.Agents[id]
}

// AskMode selects how question categories are determined.
type AskMode string

const (
	// ModeCategorized requires every question to carry a category.
	ModeCategorized AskMode = "categorizada"
	// ModeAutomatic infers the category from the question text.
	ModeAutomatic AskMode = "automatica"
)

type AskRequest struct {
	Mode      AskMode    `json:"mode"`
	Questions []Question `json:"questions"`
}
