package handlers

// HTTP error messages
const (
	ErrInvalidRequest      = "Invalid request"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrCurriculumLoading   = "Curriculum is loading, try again shortly"
	ErrTopicNotFound       = "Topic not found"
	ErrAdminNotConfigured  = "Admin access is not configured"
)

// maxMessageLength is the Telegram limit for one message
const maxMessageLength = 4096

// Bot replies in MarkdownV2, already escaped
const (
	textLoading        = "The lesson base is not loaded yet\\. Loading\\.\\.\\."
	textLoadFailed     = "Could not load the lessons\\. Please try again later\\."
	textGenericError   = "Something went wrong, please try again\\."
	textNoSession      = "Pick a topic first: /contents"
	textUnknownCommand = "Unknown command\\. Send /contents to see the topics or /help for help\\."
	textReportUsage    = "Usage: /report _what is wrong_"
	textReportSent     = "Thanks\\! Your report was sent to the authors\\."
	textReportDisabled = "Reports are not available right now\\."
	textNoTopics       = "No topics are available\\."
)

const textHelp = "Build the English sentence from the word buttons\\.\n\n" +
	"ℹ️ shows the answer, ✂️ removes the last word, ➡️ moves on to the next sentence\\.\n\n" +
	"/contents lists the topics\n" +
	"/N starts topic N, /N\\_M starts it at sentence M\n" +
	"/report _text_ sends a problem report to the authors"

// Callback answers, plain text
const (
	answerTooManyRequests = "Too many requests, slow down"
	answerStaleButton     = "This card is outdated"
	answerInvalidButton   = "Unknown button"
	answerNoSession       = "Pick a topic first"
	answerLoading         = "Loading lessons..."
)
