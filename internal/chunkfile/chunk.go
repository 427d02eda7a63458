package chunkfile

import "time"

// Type classifies what kind of memory a chunk holds.
type Type string

const (
	TypeFramework Type = "framework"
	TypeInsight   Type = "insight"
	TypeFact      Type = "fact"
	TypeLog       Type = "log"
	TypeEmotional Type = "emotional"
	TypeGoal      Type = "goal"
	TypeQuestion  Type = "question"
)

// Epistemic classifies how settled a chunk's content is believed to be.
type Epistemic string

const (
	EpistemicEstablished Epistemic = "established"
	EpistemicWorking     Epistemic = "working"
	EpistemicSpeculative Epistemic = "speculative"
	EpistemicDeprecated  Epistemic = "deprecated"
)

// Status tracks a chunk's lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusDormant  Status = "dormant"
	StatusReview   Status = "review"
	StatusArchived Status = "archived"
)

// RelatedRef points at another chunk by ID, with a reason the link exists.
// The referenced ID need not resolve to a live chunk.
type RelatedRef struct {
	ID     string `yaml:"id"`
	Reason string `yaml:"reason"`
}

// Chunk is the atomic unit of memory: a header of structured metadata plus
// a free-form content body.
type Chunk struct {
	ID                string
	Content           string
	Summary           string
	Type              Type
	Epistemic         Epistemic
	Status            Status
	SurfaceTags       []string
	Related           []RelatedRef
	Created           time.Time
	Updated           time.Time
	Accessed          time.Time
	RetrievedCount    int
	RelevantCount     int
	LastRelevantDate  *time.Time
	Expires           *time.Time
	ContextNotes      string
}
