// Package tokenizer turns raw bilingual sentence records into what the quiz
// shows and grades: the base display text, its vocabulary glosses and the
// target token sequence.
package tokenizer

import (
	"strings"
	"unicode"

	"phrasebot/internal/models"
)

const punctuation = "!,.?:;"

// Base is the display form of a base-language sentence
type Base struct {
	DisplayText string
	Vocabulary  []models.VocabularyPair
}

// ExtractBase replaces every [X|Y] gloss block with X and records (X, Y) in
// order of appearance. A block without a separator keeps its content and
// records nothing. An unterminated '[' ends block processing.
func ExtractBase(raw string) Base {
	var (
		b     strings.Builder
		vocab []models.VocabularyPair
	)

	rest := raw
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], ']')
		if closing < 0 {
			b.WriteString(rest)
			break
		}
		closing += open

		b.WriteString(rest[:open])
		inner := rest[open+1 : closing]
		if base, target, ok := strings.Cut(inner, "|"); ok {
			base, target = strings.TrimSpace(base), strings.TrimSpace(target)
			b.WriteString(base)
			if base != "" && target != "" {
				vocab = append(vocab, models.VocabularyPair{Base: base, Target: target})
			}
		} else {
			b.WriteString(inner)
		}
		rest = rest[closing+1:]
	}

	return Base{
		DisplayText: collapse(stripPunctuation(b.String())),
		Vocabulary:  vocab,
	}
}

// Normalize returns the lowercase, punctuation-stripped form of a target
// sentence with single spaces between words.
func Normalize(raw string) string {
	return strings.ToLower(collapse(stripPunctuation(raw)))
}

// TokenizeTarget splits a target sentence into its answer tokens.
// strings.Join(TokenizeTarget(raw), " ") == Normalize(raw) for every input.
func TokenizeTarget(raw string) []string {
	normalized := Normalize(raw)
	if normalized == "" {
		return []string{}
	}
	return strings.Split(normalized, " ")
}

// CanonicalAnswer is the target sentence as authored, whitespace tidied, for
// showing to the user.
func CanonicalAnswer(raw string) string {
	return collapse(raw)
}

// stripPunctuation drops sentence punctuation. Hyphens survive only when they
// join two word characters ("well-known"); en and em dashes never do.
func stripPunctuation(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i, r := range runes {
		switch {
		case strings.ContainsRune(punctuation, r):
			continue
		case r == '–' || r == '—':
			continue
		case r == '-':
			if i > 0 && i < len(runes)-1 && isWord(runes[i-1]) && isWord(runes[i+1]) {
				b.WriteRune(r)
			}
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
