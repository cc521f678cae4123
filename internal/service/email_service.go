package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"phrasebot/internal/validation"
)

// ErrEmptyReport is returned for a report without text
var ErrEmptyReport = errors.New("report text is empty")

// SESClient is the part of the SES API the email service uses
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailSettings configure the email service
type EmailSettings struct {
	AWSRegion   string
	FromEmail   string
	FromName    string
	ReportEmail string // maintainers' inbox for problem reports
	Debug       bool
}

// EmailService sends problem reports to the maintainers via Amazon SES
type EmailService struct {
	client   SESClient
	settings EmailSettings
	enabled  bool
	logger   *slog.Logger
}

// Report is a user's problem report about the sentence they were drilling
type Report struct {
	UserID        int64
	UserName      string
	Text          string
	Topic         int
	TopicTitle    string
	SentenceIndex int
	Answer        string
	HasSession    bool
}

// NewEmailService creates an email service. Without a sender or recipient
// address the service is created disabled.
func NewEmailService(ctx context.Context, settings EmailSettings, logger *slog.Logger) (*EmailService, error) {
	if settings.FromEmail == "" || settings.ReportEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL or REPORT_EMAIL not configured")
		return &EmailService{settings: settings, logger: logger}, nil
	}
	if err := validation.ValidateEmail(settings.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid SES_FROM_EMAIL: %w", err)
	}
	if err := validation.ValidateEmail(settings.ReportEmail); err != nil {
		return nil, fmt.Errorf("invalid REPORT_EMAIL: %w", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(settings.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled",
		slog.String("from", settings.FromEmail),
		slog.String("region", settings.AWSRegion))
	return NewEmailServiceWithClient(sesv2.NewFromConfig(cfg), settings, logger), nil
}

// NewEmailServiceWithClient creates an enabled service on a given client
func NewEmailServiceWithClient(client SESClient, settings EmailSettings, logger *slog.Logger) *EmailService {
	return &EmailService{client: client, settings: settings, enabled: true, logger: logger}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendReport emails a problem report to the maintainers
func (s *EmailService) SendReport(ctx context.Context, report Report) error {
	if strings.TrimSpace(report.Text) == "" {
		return ErrEmptyReport
	}
	if !s.enabled {
		s.logger.Info("skipping report email (service disabled)", slog.Int64("user_id", report.UserID))
		return nil
	}

	subject := fmt.Sprintf("Phrasebot report from %s", reporterName(report))
	textBody := reportText(report)
	htmlBody := "<pre>" + html.EscapeString(textBody) + "</pre>"

	if s.settings.Debug {
		s.logger.Debug("sending report email",
			slog.String("subject", subject),
			slog.Int("text_bytes", len(textBody)))
	}
	return s.sendEmail(ctx, s.settings.ReportEmail, subject, htmlBody, textBody)
}

func reporterName(r Report) string {
	if r.UserName != "" {
		return fmt.Sprintf("%s (%d)", r.UserName, r.UserID)
	}
	return fmt.Sprintf("user %d", r.UserID)
}

func reportText(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", reporterName(r))
	fmt.Fprintf(&b, "Sent: %s\n\n", time.Now().UTC().Format(time.RFC1123))
	b.WriteString(strings.TrimSpace(r.Text))
	b.WriteString("\n")
	if r.HasSession {
		fmt.Fprintf(&b, "\nTopic: %d. %s\n", r.Topic, r.TopicTitle)
		fmt.Fprintf(&b, "Sentence: /%d_%d\n", r.Topic, r.SentenceIndex+1)
		fmt.Fprintf(&b, "Answer: %s\n", r.Answer)
	}
	return b.String()
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.settings.FromEmail
	if s.settings.FromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.settings.FromName, s.settings.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	attrs := []any{slog.String("to", toEmail), slog.String("subject", subject)}
	if result.MessageId != nil {
		attrs = append(attrs, slog.String("message_id", *result.MessageId))
	}
	s.logger.Info("email sent", attrs...)
	return nil
}
