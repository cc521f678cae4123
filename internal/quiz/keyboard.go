package quiz

import (
	"slices"
	"unicode/utf8"
)

// DefaultWordsInRow is the bank row width when none is configured
const DefaultWordsInRow = 4

// Control button labels
const (
	LabelShowAnswer = "ℹ️"
	LabelDelete     = "✂️"
	LabelContinue   = "➡️"
)

// Button is one keyboard key
type Button struct {
	Text   string
	Action Action
}

// Keyboard is a transport-neutral inline keyboard
type Keyboard struct {
	Rows [][]Button
}

// ArrangeBank returns a copy of a shuffled bank stably ordered by descending
// token length. The result is both the display order and the order positions
// refer to, so it is stored as the session bank.
func ArrangeBank(shuffled []string) []string {
	bank := slices.Clone(shuffled)
	slices.SortStableFunc(bank, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	return bank
}

// ControlRow returns the three control buttons in display order
func ControlRow() []Button {
	return []Button{
		{Text: LabelShowAnswer, Action: ShowAnswerAction},
		{Text: LabelDelete, Action: DeleteAction},
		{Text: LabelContinue, Action: ContinueAction},
	}
}

// BuildKeyboard lays the bank out in rows of at most wordsInRow buttons and
// appends the control row. Buttons address words by bank position.
func BuildKeyboard(bank []string, wordsInRow int) *Keyboard {
	if wordsInRow <= 0 {
		wordsInRow = DefaultWordsInRow
	}

	rows := make([][]Button, 0, len(bank)/wordsInRow+2)
	var row []Button
	for i, word := range bank {
		row = append(row, Button{Text: word, Action: Pick(i)})
		if len(row) == wordsInRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, ControlRow())

	return &Keyboard{Rows: rows}
}
