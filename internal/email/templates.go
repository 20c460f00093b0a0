package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var messageTemplate = template.Must(template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/message.html"))

type messageData struct {
	Subject  string
	FromName string
	Body     template.HTML
}

// renderHTML wraps a generated HTML fragment in the shared layout. Bodies that
// already are full documents are sent unchanged.
func renderHTML(msg Message) (string, error) {
	if strings.Contains(strings.ToLower(msg.HTML), "<html") {
		return msg.HTML, nil
	}

	var buf bytes.Buffer
	err := messageTemplate.ExecuteTemplate(&buf, "email", messageData{
		Subject:  msg.Subject,
		FromName: msg.FromName,
		Body:     template.HTML(msg.HTML),
	})
	if err != nil {
		return "", fmt.Errorf("execute email template: %w", err)
	}
	return buf.String(), nil
}
