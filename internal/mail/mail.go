package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/bms-ged/backend/internal/models"
)

// Message is one outbound email. InlineImageURL, when set, is rendered as a
// remote-linked image in the HTML body and passed to providers with a
// dedicated image field.
type Message struct {
	To             string
	Subject        string
	HTMLBody       string
	TextFallback   string
	InlineImageURL string
}

type Sender interface {
	Send(msg Message) error
}

// BadgeColor maps a complaint category to the hex color used for its badge
// in notification emails.
func BadgeColor(c models.Category) string {
	switch c {
	case models.CategoryElectricity:
		return "#f59e0b"
	case models.CategoryPlumbing:
		return "#3b82f6"
	case models.CategoryTechnical:
		return "#8b5cf6"
	case models.CategoryCaretaker:
		return "#22c55e"
	default:
		return "#6b7280"
	}
}

// ComplaintMessage renders the responder notification email for a persisted
// complaint.
func ComplaintMessage(to string, c models.Complaint) Message {
	description := c.RephrasedDescription
	if description == "" {
		description = c.Description
	}

	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, "<h2>%s</h2>", html.EscapeString(c.Title))
	fmt.Fprintf(&sb, `<p><span style="background-color:%s;color:#fff;padding:2px 8px;border-radius:4px;">%s</span></p>`,
		BadgeColor(c.Category), html.EscapeString(string(c.Category)))
	fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(description))

	var inlineURL string
	if len(c.Pictures) > 0 && c.Pictures[0] != "" {
		inlineURL = c.Pictures[0]
		fmt.Fprintf(&sb, `<p><img src="%s" alt="complaint photo" style="max-width:480px;"/></p>`, html.EscapeString(inlineURL))
	}
	sb.WriteString("</body></html>")

	return Message{
		To:             to,
		Subject:        c.Title,
		HTMLBody:       sb.String(),
		TextFallback:   fmt.Sprintf("[%s] %s\n\n%s", c.Category, c.Title, description),
		InlineImageURL: inlineURL,
	}
}
