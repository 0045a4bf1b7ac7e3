package analysis

type SuggestionType string

const (
	SuggestionMergeNodes  SuggestionType = "MERGE_NODES"
	SuggestionChangeModel SuggestionType = "CHANGE_MODEL"
	SuggestionParallelize SuggestionType = "PARALLELIZE"
	SuggestionAddCache    SuggestionType = "ADD_CACHE"
	SuggestionRemoveNode  SuggestionType = "REMOVE_NODE"
)

type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Suggestion is an advisory improvement. Suggestions are never applied automatically.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      Impact         `json:"impact"`
	Difficulty  Difficulty     `json:"difficulty"`
	NodeID      string         `json:"node_id,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// SuggestionSet is the outcome of a suggest call. Issues holds collaborator
// failures that prevented some suggestions from being produced.
type SuggestionSet struct {
	WorkflowID  string       `json:"workflow_id,omitempty"`
	Suggestions []Suggestion `json:"suggestions"`
	Issues      []Issue      `json:"issues,omitempty"`
}
