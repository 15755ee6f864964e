package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type welcomeEmailData struct {
	baseEmailData
	Name string
}

type bookingEmailData struct {
	baseEmailData
	ClientName    string
	Status        string
	ScheduledDate string
}

type paymentReceiptEmailData struct {
	baseEmailData
	ReceiptNumber   string
	AmountFormatted string
}

type agentVerifiedEmailData struct {
	baseEmailData
	AgentName string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyKES(cents int64) string {
	return fmt.Sprintf("KES %.2f", float64(cents)/100)
}
