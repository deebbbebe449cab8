package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/xeo-app/xeo-backend/internal/config"
	"github.com/xeo-app/xeo-backend/internal/models"
)

// Service sends usage digests to Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(*gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return d.DialAndSend(m)
	}
	return s
}

// SendReport delivers the digest to every configured channel. A failing
// channel does not stop the others.
func (s *Service) SendReport(report *models.UsageReport) error {
	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errs = append(errs, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent usage digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent usage digest via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) sendToTeams(report *models.UsageReport) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(BuildTeamsMessage(report)).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sortedTypes returns the ByType entries ordered by count, then name.
func sortedTypes(byType map[string]int) []TeamsFact {
	facts := make([]TeamsFact, 0, len(byType))
	for k, v := range byType {
		facts = append(facts, TeamsFact{Name: k, Value: fmt.Sprintf("%d", v)})
	}
	sort.Slice(facts, func(i, j int) bool {
		a, b := byType[facts[i].Name], byType[facts[j].Name]
		if a != b {
			return a > b
		}
		return facts[i].Name < facts[j].Name
	})
	return facts
}

// BuildTeamsMessage renders a digest as a MessageCard.
func BuildTeamsMessage(report *models.UsageReport) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Xeo Usage Digest - %s", title(report.Period)),
		Text:    fmt.Sprintf("%d analyses and %d context lookups", report.TotalAnalyses, report.ContextLookups),
	}

	facts := []TeamsFact{
		{Name: "Total Analyses", Value: fmt.Sprintf("%d", report.TotalAnalyses)},
		{Name: "Unique Handles", Value: fmt.Sprintf("%d", report.UniqueHandles)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.ByType) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "By Type",
			Facts:         sortedTypes(report.ByType),
		})
	}

	if len(report.TopHandles) > 0 {
		handles := make([]string, len(report.TopHandles))
		for i, h := range report.TopHandles {
			handles[i] = fmt.Sprintf("%d. @%s", i+1, h)
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Handles",
			ActivityText:  strings.Join(handles, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.UsageReport) error {
	subject := fmt.Sprintf("Xeo Usage Digest - %s (%d analyses)", title(report.Period), report.TotalAnalyses)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"title": title,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Xeo Usage Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #111; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Xeo Usage Digest</h1>
        <p>{{.Period | title}} digest generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <p><strong>Total Analyses:</strong> {{.TotalAnalyses}}</p>
        <p><strong>Context Lookups:</strong> {{.ContextLookups}}</p>
        <p><strong>Unique Handles:</strong> {{.UniqueHandles}}</p>
        {{range $kind, $count := .ByType}}
        <p><strong>{{$kind}}:</strong> {{$count}}</p>
        {{end}}
    </div>

    {{if .TopHandles}}
    <h2>Top Handles</h2>
    <ol>
    {{range .TopHandles}}<li>@{{.}}</li>{{end}}
    </ol>
    {{end}}
</body>
</html>
`))

func buildEmailHTML(report *models.UsageReport) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.UsageReport) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Xeo Usage Digest - %s\n", title(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(fmt.Sprintf("Total Analyses: %d\n", report.TotalAnalyses))
	text.WriteString(fmt.Sprintf("Context Lookups: %d\n", report.ContextLookups))
	text.WriteString(fmt.Sprintf("Unique Handles: %d\n", report.UniqueHandles))

	for _, f := range sortedTypes(report.ByType) {
		text.WriteString(fmt.Sprintf("  %s: %s\n", f.Name, f.Value))
	}

	if len(report.TopHandles) > 0 {
		text.WriteString("\nTop Handles\n")
		for i, h := range report.TopHandles {
			text.WriteString(fmt.Sprintf("%d. @%s\n", i+1, h))
		}
	}
	return text.String()
}
