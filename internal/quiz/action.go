package quiz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAction is returned when callback data cannot be decoded
var ErrInvalidAction = errors.New("invalid action token")

// ActionKind enumerates the button actions
type ActionKind int

const (
	ActionPick ActionKind = iota + 1
	ActionDelete
	ActionShowAnswer
	ActionContinue
)

const (
	pickPrefix     = "pick:"
	deleteToken    = "del"
	showToken      = "ans"
	continueToken  = "next"
	maxTokenLength = 64 // Telegram callback_data limit
)

// Action is the decoded form of a button token
type Action struct {
	Kind     ActionKind
	Position int // bank index, only for ActionPick
}

// Pick returns the action for choosing the word at a bank position
func Pick(position int) Action {
	return Action{Kind: ActionPick, Position: position}
}

var (
	DeleteAction     = Action{Kind: ActionDelete}
	ShowAnswerAction = Action{Kind: ActionShowAnswer}
	ContinueAction   = Action{Kind: ActionContinue}
)

// Encode serializes the action into a compact token
func (a Action) Encode() string {
	switch a.Kind {
	case ActionPick:
		return pickPrefix + strconv.Itoa(a.Position)
	case ActionDelete:
		return deleteToken
	case ActionShowAnswer:
		return showToken
	case ActionContinue:
		return continueToken
	default:
		return ""
	}
}

func (a Action) String() string {
	return a.Encode()
}

// DecodeAction parses and validates a button token
func DecodeAction(token string) (Action, error) {
	if token == "" || len(token) > maxTokenLength {
		return Action{}, ErrInvalidAction
	}

	switch token {
	case deleteToken:
		return DeleteAction, nil
	case showToken:
		return ShowAnswerAction, nil
	case continueToken:
		return ContinueAction, nil
	}

	raw, ok := strings.CutPrefix(token, pickPrefix)
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, token)
	}
	position, err := strconv.Atoi(raw)
	if err != nil || position < 0 {
		return Action{}, fmt.Errorf("%w: bad position %q", ErrInvalidAction, raw)
	}
	return Pick(position), nil
}
