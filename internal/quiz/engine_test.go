package quiz

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasebot/internal/curriculum"
)

var threeByThree = [][]string{
	{"I see a cat.", "You see a dog.", "We see a bird."},
	{"He runs.", "She reads a book.", "They sing."},
	{"It rains.", "It snows.", "It is cold."},
}

func TestStartSendsSentence(t *testing.T) {
	e := newTestEngine(buildIndex(threeByThree...), Options{})

	out, err := e.Start(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)

	ins := out[0]
	assert.Equal(t, ModeSend, ins.Mode)
	assert.Equal(t, int64(7), ins.UserID)
	assert.NotEmpty(t, ins.SessionID)
	require.NotNil(t, ins.Keyboard)
	assert.Len(t, ins.Keyboard.Rows[len(ins.Keyboard.Rows)-1], 3)

	s, ok := e.Session(7)
	require.True(t, ok)
	assert.Equal(t, []string{"i", "see", "a", "cat"}, s.TargetTokens)
	assert.Equal(t, []string{"see", "cat", "i", "a"}, s.RemainingBank)
	assert.Empty(t, s.Selected)
	assert.Equal(t, "Я вижу кошку", s.BaseText)
	assert.Equal(t, "I see a cat.", s.Answer)
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, 3, s.SentenceCount)
}

func TestStartErrors(t *testing.T) {
	idx := buildIndex([]string{"I see a cat."}, nil)

	tests := []struct {
		name     string
		source   CurriculumSource
		topic    int
		sentence *int
		wantErr  error
	}{
		{name: "topic zero", source: staticSource{idx: idx}, topic: 0, wantErr: curriculum.ErrInvalidTopic},
		{name: "topic past end", source: staticSource{idx: idx}, topic: 3, wantErr: curriculum.ErrInvalidTopic},
		{name: "empty topic", source: staticSource{idx: idx}, topic: 2, wantErr: curriculum.ErrEmptyTopic},
		{name: "negative index", source: staticSource{idx: idx}, topic: 1, sentence: intPtr(-1), wantErr: curriculum.ErrInvalidSentenceIndex},
		{name: "not loaded", source: staticSource{err: curriculum.ErrContentNotLoaded}, topic: 1, wantErr: curriculum.ErrContentNotLoaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(NewSessionStore(), tt.source, nil, Options{})
			_, err := e.Start(context.Background(), 1, tt.topic, tt.sentence)
			assert.ErrorIs(t, err, tt.wantErr)
			_, ok := e.Session(1)
			assert.False(t, ok, "failed start must not create a session")
		})
	}
}

func TestStartClampsIndex(t *testing.T) {
	e := newTestEngine(buildIndex(threeByThree...), Options{})

	_, err := e.Start(context.Background(), 1, 2, intPtr(99))
	require.NoError(t, err)

	s, _ := e.Session(1)
	assert.Equal(t, 2, s.SentenceIndex)
}

func TestStartResumesWithinTopic(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})

	_, err := e.Start(ctx, 1, 1, intPtr(2))
	require.NoError(t, err)

	_, err = e.Start(ctx, 1, 1, nil)
	require.NoError(t, err)
	s, _ := e.Session(1)
	assert.Equal(t, 2, s.SentenceIndex, "same topic resumes")

	_, err = e.Start(ctx, 1, 2, nil)
	require.NoError(t, err)
	s, _ = e.Session(1)
	assert.Equal(t, 0, s.SentenceIndex, "other topic starts at the beginning")
}

func TestPickScenarios(t *testing.T) {
	tests := []struct {
		name        string
		order       []string
		wantBuilt   string
		wantCorrect bool
	}{
		{name: "wrong order", order: []string{"cat", "a", "see", "i"}, wantBuilt: "cat a see i", wantCorrect: false},
		{name: "right order", order: []string{"i", "see", "a", "cat"}, wantBuilt: "i see a cat", wantCorrect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &recordedAttempts{}
			e := newTestEngine(buildIndex(threeByThree...), Options{}, WithAttemptRecorder(recorder))
			_, err := e.Start(context.Background(), 1, 1, intPtr(0))
			require.NoError(t, err)

			var out []RenderInstruction
			for _, w := range tt.order {
				out = pickWord(t, e, 1, w)
			}

			s, _ := e.Session(1)
			assert.Equal(t, PhaseAnswered, s.Phase)
			assert.Equal(t, tt.wantCorrect, s.Correct)
			assert.Equal(t, tt.wantBuilt, s.Built())
			assert.Empty(t, s.RemainingBank)

			require.Len(t, out, 1)
			assert.Equal(t, ModeEdit, out[0].Mode)
			if tt.wantCorrect {
				assert.Contains(t, out[0].Text, MarkCorrect)
				assert.NotContains(t, out[0].Text, MarkWrong)
			} else {
				assert.Contains(t, out[0].Text, MarkWrong)
				assert.Contains(t, out[0].Text, "I see a cat")
			}

			require.Len(t, recorder.attempts, 1)
			assert.Equal(t, tt.wantCorrect, recorder.attempts[0].IsCorrect)
			assert.Equal(t, tt.wantBuilt, recorder.attempts[0].AnswerText)
			assert.Equal(t, s.ID, recorder.attempts[0].SessionID)
		})
	}
}

func TestPickKeepsMultiset(t *testing.T) {
	idx := buildIndex([]string{"the cat saw the other cat and the dog"})
	e := NewEngine(NewSessionStore(), staticSource{idx: idx}, nil, Options{})
	ctx := context.Background()

	_, err := e.Start(ctx, 1, 1, nil)
	require.NoError(t, err)

	s, _ := e.Session(1)
	want := slices.Clone(s.TargetTokens)
	slices.Sort(want)

	for step := 0; ; step++ {
		s, _ = e.Session(1)
		got := append(slices.Clone(s.RemainingBank), s.Selected...)
		slices.Sort(got)
		require.Equal(t, want, got, "multiset broken at step %d", step)
		if len(s.RemainingBank) == 0 {
			break
		}
		// alternate ends of the bank, with an occasional undo
		pos := 0
		if step%2 == 1 {
			pos = len(s.RemainingBank) - 1
		}
		_, err := e.Pick(ctx, 1, pos)
		require.NoError(t, err)
		if step%3 == 2 {
			_, err = e.DeleteLast(ctx, 1)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, PhaseAnswered, s.Phase)
}

func TestPickThenDeleteIsNotInverse(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	_, err := e.Start(ctx, 1, 1, intPtr(0))
	require.NoError(t, err)

	_, err = e.Pick(ctx, 1, 0)
	require.NoError(t, err)
	out, err := e.DeleteLast(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)

	s, _ := e.Session(1)
	assert.Equal(t, []string{"cat", "i", "a", "see"}, s.RemainingBank)
	assert.Empty(t, s.Selected)
}

func TestPickNoOps(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	_, err := e.Start(ctx, 1, 2, intPtr(0)) // "He runs."
	require.NoError(t, err)

	for _, pos := range []int{-1, 2, 100} {
		out, err := e.Pick(ctx, 1, pos)
		require.NoError(t, err)
		assert.Nil(t, out, "position %d", pos)
	}
	s, _ := e.Session(1)
	assert.Len(t, s.RemainingBank, 2)

	pickWord(t, e, 1, "he")
	pickWord(t, e, 1, "runs")
	s, _ = e.Session(1)
	require.Equal(t, PhaseAnswered, s.Phase)

	out, err := e.Pick(ctx, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, out, "pick after answering is ignored")
}

func TestDeleteLast(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	_, err := e.Start(ctx, 1, 2, intPtr(0))
	require.NoError(t, err)

	out, err := e.DeleteLast(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, out, "nothing selected is a no-op")

	pickWord(t, e, 1, "runs")
	pickWord(t, e, 1, "he")
	s, _ := e.Session(1)
	require.Equal(t, PhaseAnswered, s.Phase)
	require.False(t, s.Correct)

	out, err = e.DeleteLast(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ModeEdit, out[0].Mode)

	s, _ = e.Session(1)
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.False(t, s.Correct)
	assert.Equal(t, []string{"runs"}, s.Selected)
	assert.Equal(t, []string{"he"}, s.RemainingBank)
}

func TestShowAnswerDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	_, err := e.Start(ctx, 1, 1, intPtr(0))
	require.NoError(t, err)
	pickWord(t, e, 1, "i")

	before, _ := e.Session(1)
	out, err := e.ShowAnswer(ctx, 1)
	require.NoError(t, err)
	after, _ := e.Session(1)

	assert.Equal(t, before, after)
	require.Len(t, out, 1)
	assert.Equal(t, ModeEdit, out[0].Mode)
	assert.Contains(t, out[0].Text, LabelShowAnswer+" I see a cat")
}

func TestContinueNext(t *testing.T) {
	tests := []struct {
		name      string
		topics    [][]string
		wantTopic int
	}{
		{name: "advances to next topic", topics: threeByThree, wantTopic: 3},
		{name: "wraps after last topic", topics: threeByThree[:2], wantTopic: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newTestEngine(buildIndex(tt.topics...), Options{})

			out, err := e.Start(ctx, 1, 2, intPtr(2))
			require.NoError(t, err)
			ref := MessageRef{ChatID: 1, MessageID: 41}
			e.BindMessage(1, out[0].SessionID, ref)

			out, err = e.ContinueNext(ctx, 1)
			require.NoError(t, err)
			require.Len(t, out, 2)
			assert.Equal(t, ModeClear, out[0].Mode)
			assert.Equal(t, ref, out[0].Target)
			assert.Equal(t, ModeSend, out[1].Mode)

			s, _ := e.Session(1)
			assert.Equal(t, tt.wantTopic, s.Topic)
			assert.Equal(t, 0, s.SentenceIndex)
			assert.True(t, s.MessageRef.IsZero(), "new session is not bound yet")
		})
	}
}

func TestContinueNextSkipsEmptyTopics(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex([]string{"One."}, nil, []string{"Three."}), Options{})
	_, err := e.Start(ctx, 1, 1, nil)
	require.NoError(t, err)

	out, err := e.ContinueNext(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1, "unbound previous message needs no clear")

	s, _ := e.Session(1)
	assert.Equal(t, 3, s.Topic)
}

func TestUnknownUser(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})

	ops := map[string]func() ([]RenderInstruction, error){
		"pick":     func() ([]RenderInstruction, error) { return e.Pick(ctx, 5, 0) },
		"delete":   func() ([]RenderInstruction, error) { return e.DeleteLast(ctx, 5) },
		"answer":   func() ([]RenderInstruction, error) { return e.ShowAnswer(ctx, 5) },
		"continue": func() ([]RenderInstruction, error) { return e.ContinueNext(ctx, 5) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			_, err := op()
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestHandleActionRejectsStaleButtons(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	out, err := e.Start(ctx, 1, 1, intPtr(0))
	require.NoError(t, err)

	current := MessageRef{ChatID: 1, MessageID: 10}
	e.BindMessage(1, out[0].SessionID, current)
	e.BindMessage(1, "some-older-session", MessageRef{ChatID: 1, MessageID: 3})

	_, err = e.HandleAction(ctx, 1, Pick(0), MessageRef{ChatID: 1, MessageID: 9})
	assert.ErrorIs(t, err, ErrStaleButton)

	out, err = e.HandleAction(ctx, 1, Pick(0), current)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, current, out[0].Target)
}

func TestUnboundSessionIgnoresMessageButtons(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})
	out, err := e.Start(ctx, 1, 2, intPtr(0))
	require.NoError(t, err)
	e.BindMessage(1, out[0].SessionID, MessageRef{ChatID: 1, MessageID: 1})

	// the next sentence is never bound, as when sending it fails
	_, err = e.HandleAction(ctx, 1, ContinueAction, MessageRef{ChatID: 1, MessageID: 1})
	require.NoError(t, err)

	tests := []struct {
		name   string
		action Action
	}{
		{name: "continue", action: ContinueAction},
		{name: "pick", action: Pick(0)},
		{name: "delete", action: DeleteAction},
		{name: "show answer", action: ShowAnswerAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.HandleAction(ctx, 1, tt.action, MessageRef{ChatID: 1, MessageID: 1})
			assert.ErrorIs(t, err, ErrStaleButton)
		})
	}

	s, ok := e.Session(1)
	require.True(t, ok)
	assert.Equal(t, 2, s.Topic)
	assert.Equal(t, 1, s.SentenceIndex, "stale presses must not advance")
	assert.Empty(t, s.Selected)

	// commands carry no source and still reach the session
	out, err = e.Start(ctx, 1, 2, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ModeSend, out[0].Mode)
	s, _ = e.Session(1)
	assert.Equal(t, 1, s.SentenceIndex)
}

func TestAutoAdvance(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{AutoAdvance: true})
	_, err := e.Start(ctx, 1, 2, intPtr(0))
	require.NoError(t, err)

	pickWord(t, e, 1, "runs")
	out := pickWord(t, e, 1, "he")
	require.Len(t, out, 1, "wrong answers wait for the user")

	_, err = e.DeleteLast(ctx, 1)
	require.NoError(t, err)
	_, err = e.DeleteLast(ctx, 1)
	require.NoError(t, err)

	pickWord(t, e, 1, "he")
	out = pickWord(t, e, 1, "runs")
	require.Len(t, out, 2)
	assert.Equal(t, ModeEdit, out[0].Mode)
	assert.Nil(t, out[0].Keyboard)
	assert.Contains(t, out[0].Text, MarkCorrect)
	assert.Equal(t, ModeSend, out[1].Mode)

	s, _ := e.Session(1)
	assert.Equal(t, 2, s.Topic)
	assert.Equal(t, 1, s.SentenceIndex)
	assert.Equal(t, out[1].SessionID, s.ID)
}

func TestConcurrentPicksForOneUser(t *testing.T) {
	ctx := context.Background()
	idx := buildIndex([]string{"one two three four five six seven eight nine ten eleven twelve"})
	e := newTestEngine(idx, Options{})
	_, err := e.Start(ctx, 1, 1, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Pick(ctx, 1, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, _ := e.Session(1)
	assert.Empty(t, s.RemainingBank)
	assert.Len(t, s.Selected, 12)
	assert.Equal(t, PhaseAnswered, s.Phase)
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(buildIndex(threeByThree...), Options{})

	var wg sync.WaitGroup
	for user := int64(1); user <= 20; user++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := e.Start(ctx, user, int(user%3)+1, nil)
			assert.NoError(t, err)
			_, err = e.Pick(ctx, user, 0)
			assert.NoError(t, err)
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 20, e.ActiveSessions())
	s, _ := e.Session(4)
	assert.Equal(t, 2, s.Topic)
	assert.Len(t, s.Selected, 1)
}
