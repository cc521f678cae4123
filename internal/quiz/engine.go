package quiz

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"slices"
	"strings"

	"github.com/google/uuid"

	"phrasebot/internal/curriculum"
	"phrasebot/internal/models"
	"phrasebot/internal/tokenizer"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStaleButton     = errors.New("button belongs to an earlier message")
)

// CurriculumSource hands out the loaded curriculum, or
// curriculum.ErrContentNotLoaded while it is still loading.
type CurriculumSource interface {
	Index(ctx context.Context) (*curriculum.Index, error)
}

// AttemptRecorder persists graded answers
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *models.Attempt) error
}

// Mode says what the transport should do with an instruction
type Mode int

const (
	ModeSend  Mode = iota // send a new message
	ModeEdit              // replace text and keyboard of Target
	ModeClear             // remove the keyboard of Target
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModeClear:
		return "clear"
	default:
		return "send"
	}
}

// RenderInstruction is one message operation for the transport
type RenderInstruction struct {
	Mode      Mode
	UserID    int64
	SessionID string // set when the message shows a session, for BindMessage
	Text      string
	Keyboard  *Keyboard
	Target    MessageRef
}

// Options configure engine behavior
type Options struct {
	WordsInRow  int
	AutoAdvance bool // move on right after a correct answer
}

// Engine runs the quiz state machine on top of a SessionStore
type Engine struct {
	store    *SessionStore
	content  CurriculumSource
	attempts AttemptRecorder
	logger   *slog.Logger
	opts     Options
	shuffle  func([]string)
	newID    func() string
}

// Option customizes an Engine
type Option func(*Engine)

// WithShuffle replaces the bank shuffler, mainly for deterministic tests
func WithShuffle(fn func([]string)) Option {
	return func(e *Engine) { e.shuffle = fn }
}

// WithAttemptRecorder stores every graded answer
func WithAttemptRecorder(r AttemptRecorder) Option {
	return func(e *Engine) { e.attempts = r }
}

// NewEngine creates a quiz engine
func NewEngine(store *SessionStore, content CurriculumSource, logger *slog.Logger, opts Options, options ...Option) *Engine {
	if opts.WordsInRow <= 0 {
		opts.WordsInRow = DefaultWordsInRow
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:   store,
		content: content,
		logger:  logger,
		opts:    opts,
		shuffle: func(words []string) {
			rand.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
		},
		newID: uuid.NewString,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Start puts the user on a sentence of a topic. Without an explicit index the
// user resumes where they were in that topic, or starts at the first
// sentence. An index past the end is clamped to the last sentence.
func (e *Engine) Start(ctx context.Context, userID int64, topic int, sentence *int) ([]RenderInstruction, error) {
	idx, err := e.content.Index(ctx)
	if err != nil {
		return nil, err
	}

	var out []RenderInstruction
	err = e.store.Update(userID, func(cur *Session) (*Session, error) {
		index := 0
		switch {
		case sentence != nil:
			index = *sentence
		case cur != nil && cur.Topic == topic:
			index = cur.SentenceIndex
		}

		next, err := e.newSession(idx, userID, topic, index)
		if err != nil {
			return nil, err
		}
		out = e.present(cur, next)
		return next, nil
	})
	return out, err
}

// Pick moves the word at a bank position to the end of the built answer.
func (e *Engine) Pick(ctx context.Context, userID int64, position int) ([]RenderInstruction, error) {
	return e.pick(ctx, userID, position, MessageRef{})
}

// DeleteLast returns the last picked word to the end of the bank.
func (e *Engine) DeleteLast(ctx context.Context, userID int64) ([]RenderInstruction, error) {
	return e.deleteLast(userID, MessageRef{})
}

// ShowAnswer re-renders the current sentence with the answer revealed.
func (e *Engine) ShowAnswer(ctx context.Context, userID int64) ([]RenderInstruction, error) {
	return e.showAnswer(userID, MessageRef{})
}

// ContinueNext advances to the next sentence, skipping empty topics.
func (e *Engine) ContinueNext(ctx context.Context, userID int64) ([]RenderInstruction, error) {
	return e.continueNext(ctx, userID, MessageRef{})
}

// HandleAction dispatches a decoded button press. Presses coming from a
// message other than the one the session currently shows fail with
// ErrStaleButton.
func (e *Engine) HandleAction(ctx context.Context, userID int64, action Action, source MessageRef) ([]RenderInstruction, error) {
	switch action.Kind {
	case ActionPick:
		return e.pick(ctx, userID, action.Position, source)
	case ActionDelete:
		return e.deleteLast(userID, source)
	case ActionShowAnswer:
		return e.showAnswer(userID, source)
	case ActionContinue:
		return e.continueNext(ctx, userID, source)
	default:
		return nil, ErrInvalidAction
	}
}

// BindMessage records which message shows a session, once the transport
// has sent it. Binding for a session that has since been replaced is ignored.
func (e *Engine) BindMessage(userID int64, sessionID string, ref MessageRef) {
	_ = e.store.Update(userID, func(cur *Session) (*Session, error) {
		if cur != nil && cur.ID == sessionID {
			cur.MessageRef = ref
		}
		return nil, nil
	})
}

// Session returns a copy of the user's current session
func (e *Engine) Session(userID int64) (*Session, bool) {
	return e.store.Get(userID)
}

// ActiveSessions counts users with a session
func (e *Engine) ActiveSessions() int {
	return e.store.Len()
}

func (e *Engine) pick(ctx context.Context, userID int64, position int, source MessageRef) ([]RenderInstruction, error) {
	var idx *curriculum.Index
	if e.opts.AutoAdvance {
		var err error
		if idx, err = e.content.Index(ctx); err != nil {
			e.logger.Warn("auto-advance unavailable", slog.Any("error", err))
		}
	}

	var (
		out     []RenderInstruction
		attempt *models.Attempt
	)
	err := e.store.Update(userID, func(cur *Session) (*Session, error) {
		if err := checkSource(cur, source); err != nil {
			return nil, err
		}
		if cur.Phase != PhasePresenting || position < 0 || position >= len(cur.RemainingBank) {
			return nil, nil
		}

		word := cur.RemainingBank[position]
		cur.RemainingBank = slices.Delete(cur.RemainingBank, position, position+1)
		cur.Selected = append(cur.Selected, word)

		if len(cur.RemainingBank) > 0 {
			out = []RenderInstruction{e.edit(cur, RenderOptions{})}
			return nil, nil
		}

		cur.Phase = PhaseAnswered
		cur.Correct = strings.Join(cur.Selected, " ") == strings.Join(cur.TargetTokens, " ")
		attempt = &models.Attempt{
			SessionID:     cur.ID,
			UserID:        userID,
			TopicNumber:   cur.Topic,
			SentenceIndex: cur.SentenceIndex,
			AnswerText:    cur.Built(),
			IsCorrect:     cur.Correct,
		}

		if cur.Correct && idx != nil {
			next, err := e.advance(idx, cur)
			if err == nil {
				out = []RenderInstruction{
					e.edit(cur, RenderOptions{NoKeyboard: true}),
					e.send(next),
				}
				return next, nil
			}
			e.logger.Warn("auto-advance failed", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		out = []RenderInstruction{e.edit(cur, RenderOptions{})}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if attempt != nil {
		e.record(ctx, attempt)
	}
	return out, nil
}

func (e *Engine) deleteLast(userID int64, source MessageRef) ([]RenderInstruction, error) {
	var out []RenderInstruction
	err := e.store.Update(userID, func(cur *Session) (*Session, error) {
		if err := checkSource(cur, source); err != nil {
			return nil, err
		}
		if len(cur.Selected) == 0 {
			return nil, nil
		}

		last := len(cur.Selected) - 1
		word := cur.Selected[last]
		cur.Selected = cur.Selected[:last]
		cur.RemainingBank = append(cur.RemainingBank, word)
		cur.Phase = PhasePresenting
		cur.Correct = false

		out = []RenderInstruction{e.edit(cur, RenderOptions{})}
		return nil, nil
	})
	return out, err
}

func (e *Engine) showAnswer(userID int64, source MessageRef) ([]RenderInstruction, error) {
	var out []RenderInstruction
	err := e.store.Update(userID, func(cur *Session) (*Session, error) {
		if err := checkSource(cur, source); err != nil {
			return nil, err
		}
		out = []RenderInstruction{e.edit(cur, RenderOptions{RevealAnswer: true})}
		return nil, nil
	})
	return out, err
}

func (e *Engine) continueNext(ctx context.Context, userID int64, source MessageRef) ([]RenderInstruction, error) {
	idx, err := e.content.Index(ctx)
	if err != nil {
		return nil, err
	}

	var out []RenderInstruction
	err = e.store.Update(userID, func(cur *Session) (*Session, error) {
		if err := checkSource(cur, source); err != nil {
			return nil, err
		}

		next, err := e.advance(idx, cur)
		if err != nil {
			return nil, err
		}
		out = e.present(cur, next)
		return next, nil
	})
	return out, err
}

// advance builds the session for the sentence after cur
func (e *Engine) advance(idx *curriculum.Index, cur *Session) (*Session, error) {
	pos, err := idx.NextNonEmpty(cur.Topic, cur.SentenceIndex)
	if errors.Is(err, curriculum.ErrInvalidTopic) {
		// the curriculum was reloaded with fewer topics
		pos, err = firstNonEmpty(idx)
	}
	if err != nil {
		return nil, err
	}
	return e.newSession(idx, cur.UserID, pos.Topic, pos.Sentence)
}

func (e *Engine) newSession(idx *curriculum.Index, userID int64, topic, index int) (*Session, error) {
	sentences, err := idx.SentencesOf(topic)
	if err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, curriculum.ErrEmptyTopic
	}
	if index < 0 {
		return nil, curriculum.ErrInvalidSentenceIndex
	}
	if index >= len(sentences) {
		index = len(sentences) - 1
	}
	title, _ := idx.TopicTitle(topic)

	sentence := sentences[index]
	base := tokenizer.ExtractBase(sentence.BaseText)
	vocabulary := sentence.Vocabulary
	if len(vocabulary) == 0 {
		vocabulary = base.Vocabulary
	}

	tokens := tokenizer.TokenizeTarget(sentence.TargetText)
	shuffled := slices.Clone(tokens)
	e.shuffle(shuffled)

	s := &Session{
		ID:            e.newID(),
		UserID:        userID,
		Topic:         topic,
		TopicTitle:    title,
		SentenceIndex: index,
		SentenceCount: len(sentences),
		TargetTokens:  tokens,
		RemainingBank: ArrangeBank(shuffled),
		Selected:      []string{},
		BaseText:      base.DisplayText,
		Vocabulary:    slices.Clone(vocabulary),
		Answer:        tokenizer.CanonicalAnswer(sentence.TargetText),
		Phase:         PhasePresenting,
	}
	if len(tokens) == 0 {
		s.Phase = PhaseAnswered
		s.Correct = true
	}
	return s, nil
}

// present retires the previous message's keyboard and sends the new session
func (e *Engine) present(prev, next *Session) []RenderInstruction {
	var out []RenderInstruction
	if prev != nil && !prev.MessageRef.IsZero() {
		out = append(out, RenderInstruction{Mode: ModeClear, UserID: prev.UserID, Target: prev.MessageRef})
	}
	return append(out, e.send(next))
}

func (e *Engine) send(s *Session) RenderInstruction {
	r := Render(s, RenderOptions{WordsInRow: e.opts.WordsInRow})
	return RenderInstruction{Mode: ModeSend, UserID: s.UserID, SessionID: s.ID, Text: r.Text, Keyboard: r.Keyboard}
}

func (e *Engine) edit(s *Session, opts RenderOptions) RenderInstruction {
	opts.WordsInRow = e.opts.WordsInRow
	r := Render(s, opts)
	return RenderInstruction{
		Mode:      ModeEdit,
		UserID:    s.UserID,
		SessionID: s.ID,
		Text:      r.Text,
		Keyboard:  r.Keyboard,
		Target:    s.MessageRef,
	}
}

func (e *Engine) record(ctx context.Context, attempt *models.Attempt) {
	if e.attempts == nil {
		return
	}
	if err := e.attempts.RecordAttempt(ctx, attempt); err != nil {
		e.logger.Error("failed to record attempt",
			slog.String("session_id", attempt.SessionID),
			slog.Int64("user_id", attempt.UserID),
			slog.Any("error", err))
	}
}

func checkSource(cur *Session, source MessageRef) error {
	if cur == nil {
		return ErrSessionNotFound
	}
	if source.IsZero() {
		return nil
	}
	// an unbound session was never shown, so no message can drive it
	if cur.MessageRef.IsZero() {
		return ErrStaleButton
	}
	if source.MessageID != cur.MessageRef.MessageID || source.ChatID != cur.MessageRef.ChatID {
		return ErrStaleButton
	}
	return nil
}

func firstNonEmpty(idx *curriculum.Index) (curriculum.Position, error) {
	for topic := 1; topic <= idx.TopicCount(); topic++ {
		if sentences, _ := idx.SentencesOf(topic); len(sentences) > 0 {
			return curriculum.Position{Topic: topic}, nil
		}
	}
	return curriculum.Position{}, curriculum.ErrEmptyTopic
}
