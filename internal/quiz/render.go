package quiz

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
)

// Markers shown once the bank is exhausted
const (
	MarkCorrect = "✅"
	MarkWrong   = "❌"
	markBuilt   = "✏️"
)

// RenderOptions tweak a single rendering
type RenderOptions struct {
	WordsInRow   int
	RevealAnswer bool // show the canonical answer regardless of phase
	NoKeyboard   bool // render text only, e.g. for a message being retired
}

// Rendered is a message body in Telegram MarkdownV2 plus its keyboard
type Rendered struct {
	Text     string
	Keyboard *Keyboard
}

// Render formats a session. It has no side effects.
func Render(s *Session, opts RenderOptions) Rendered {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", bot.EscapeMarkdown(fmt.Sprintf("%d. %s", s.Topic, s.TopicTitle)))
	fmt.Fprintf(&b, "_%s_\n", bot.EscapeMarkdown(fmt.Sprintf("%d / %d", s.SentenceIndex+1, s.SentenceCount)))

	if len(s.Vocabulary) > 0 {
		b.WriteString("\n")
		for _, v := range s.Vocabulary {
			fmt.Fprintf(&b, "%s → %s\n", bot.EscapeMarkdown(v.Base), bot.EscapeMarkdown(v.Target))
		}
	}

	b.WriteString("\n")
	b.WriteString(italicizeParentheses(s.BaseText))
	b.WriteString("\n\n")
	b.WriteString(markBuilt + " " + bot.EscapeMarkdown(s.Built()))

	answerShown := false
	if s.Phase == PhaseAnswered {
		if s.Correct {
			b.WriteString("\n\n" + MarkCorrect)
		} else {
			b.WriteString("\n\n" + MarkWrong + " *" + bot.EscapeMarkdown(s.Answer) + "*")
			answerShown = true
		}
	}
	if opts.RevealAnswer && !answerShown {
		b.WriteString("\n\n" + LabelShowAnswer + " " + bot.EscapeMarkdown(s.Answer))
	}

	out := Rendered{Text: b.String()}
	if !opts.NoKeyboard {
		out.Keyboard = BuildKeyboard(s.RemainingBank, opts.WordsInRow)
	}
	return out
}

// italicizeParentheses escapes text for MarkdownV2 and sets parenthesised
// fragments in italics, keeping the parentheses upright. An unclosed
// parenthesis is treated as plain text.
func italicizeParentheses(text string) string {
	var b strings.Builder
	rest := text
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], ')')
		if closing < 0 {
			break
		}
		closing += open

		b.WriteString(bot.EscapeMarkdown(rest[:open]))
		inner := rest[open+1 : closing]
		if strings.TrimSpace(inner) == "" {
			b.WriteString(`\(` + bot.EscapeMarkdown(inner) + `\)`)
		} else {
			b.WriteString(`\(_` + bot.EscapeMarkdown(inner) + `_\)`)
		}
		rest = rest[closing+1:]
	}
	b.WriteString(bot.EscapeMarkdown(rest))
	return b.String()
}
