package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"

	"phrasebot/internal/curriculum"
)

func greetingText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello, %s\\!\nThis bot trains you to build English sentences\\. Here are the topics:",
		bot.EscapeMarkdown(name))
}

func loadedText(idx *curriculum.Index) string {
	return fmt.Sprintf("Loaded: %d topics, %d sentences\\.", idx.TopicCount(), idx.SentenceCount())
}

// contentsMessages lists every topic as a command, split to fit Telegram
func contentsMessages(idx *curriculum.Index) []string {
	summaries := idx.Summaries()
	if len(summaries) == 0 {
		return []string{textNoTopics}
	}

	var b strings.Builder
	b.WriteString("*Topics*\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "\n/%d %s \\(%d\\)", s.Number, bot.EscapeMarkdown(s.Title), s.Sentences)
	}
	return splitMessage(b.String(), maxMessageLength)
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// breaks. A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}
		for n > limit {
			head := string([]rune(line)[:limit])
			chunks = append(chunks, head)
			line = line[len(head):]
			n -= limit
		}
		current.WriteString(line)
		size += n
	}
	flush()

	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimRight(c, "\n"); c != "" {
			out = append(out, c)
		}
	}
	return out
}
