package quiz

import (
	"slices"
	"strings"

	"phrasebot/internal/models"
)

// Phase is the state of a session within one sentence
type Phase int

const (
	PhasePresenting Phase = iota // bank not yet exhausted
	PhaseAnswered                // bank exhausted and graded
)

func (p Phase) String() string {
	if p == PhaseAnswered {
		return "answered"
	}
	return "presenting"
}

// MessageRef identifies a sent message so it can be edited later
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the ref points at nothing
func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Session is one user's state for the sentence being drilled.
// Invariant: multiset(RemainingBank) + multiset(Selected) == multiset(TargetTokens).
type Session struct {
	ID     string
	UserID int64

	Topic         int
	TopicTitle    string
	SentenceIndex int
	SentenceCount int

	TargetTokens  []string
	RemainingBank []string
	Selected      []string

	BaseText   string
	Vocabulary []models.VocabularyPair
	Answer     string // canonical target sentence for display

	Phase   Phase
	Correct bool

	MessageRef MessageRef
}

// Clone returns a deep copy safe to hand out of the store
func (s *Session) Clone() *Session {
	c := *s
	c.TargetTokens = slices.Clone(s.TargetTokens)
	c.RemainingBank = slices.Clone(s.RemainingBank)
	c.Selected = slices.Clone(s.Selected)
	c.Vocabulary = slices.Clone(s.Vocabulary)
	return &c
}

// Built returns the answer constructed so far
func (s *Session) Built() string {
	return strings.Join(s.Selected, " ")
}
