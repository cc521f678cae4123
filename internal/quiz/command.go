package quiz

import (
	"strconv"
	"strings"
)

// CommandKind enumerates what a user can ask for
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandStart
	CommandContents
	CommandStartTopic
	CommandStartAt
	CommandButtonPress
	CommandReport
	CommandHelp
)

// Command is a parsed user request
type Command struct {
	Kind     CommandKind
	Topic    int    // 1-based, for StartTopic and StartAt
	Sentence int    // 0-based, for StartAt
	Token    string // for ButtonPress
	Text     string // for Report
}

// ButtonPress wraps callback data as a command
func ButtonPress(token string) Command {
	return Command{Kind: CommandButtonPress, Token: token}
}

// ParseCommand understands:
//
//	/start           greeting and contents
//	/contents        list of topics (also /topics)
//	/help
//	/report <text>   problem report to the maintainers
//	/<n>             start topic n
//	/<n>_<m>         start topic n at sentence m (1-based)
//
// A "@botname" suffix on the command is ignored.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: CommandUnknown, Text: text}
	}

	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	args = strings.TrimSpace(args)

	switch strings.ToLower(head) {
	case "start":
		return Command{Kind: CommandStart}
	case "contents", "topics":
		return Command{Kind: CommandContents}
	case "help":
		return Command{Kind: CommandHelp}
	case "report":
		return Command{Kind: CommandReport, Text: args}
	}

	topicPart, sentencePart, hasSentence := strings.Cut(head, "_")
	topic, err := strconv.Atoi(topicPart)
	if err != nil || topic < 1 {
		return Command{Kind: CommandUnknown, Text: text}
	}
	if !hasSentence {
		return Command{Kind: CommandStartTopic, Topic: topic}
	}

	sentence, err := strconv.Atoi(sentencePart)
	if err != nil || sentence < 1 {
		return Command{Kind: CommandUnknown, Text: text}
	}
	return Command{Kind: CommandStartAt, Topic: topic, Sentence: sentence - 1}
}
