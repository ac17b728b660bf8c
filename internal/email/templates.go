package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var contactTimeZone = mustLoadLocation("Europe/Rome")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

// LeadSummary is the lead information shown in notification e-mails.
type LeadSummary struct {
	LeadName           string
	LeadEmail          string
	LeadPhone          string
	Score              int
	QualificationLabel string
	Channel            string
	Approach           string
	SuggestedContactAt time.Time
	LeadURL            string
}

type leadEmailData struct {
	baseEmailData
	LeadSummary
	ChannelLabel string
	ContactBy    string
}

func newLeadEmailData(base baseEmailData, lead LeadSummary) leadEmailData {
	if lead.LeadName == "" {
		lead.LeadName = lead.LeadEmail
	}
	channel := "E-mail"
	if lead.Channel == "phone" {
		channel = "Telefono"
	}
	contactBy := ""
	if !lead.SuggestedContactAt.IsZero() {
		contactBy = lead.SuggestedContactAt.In(contactTimeZone).Format("02/01/2006 15:04")
	}
	return leadEmailData{baseEmailData: base, LeadSummary: lead, ChannelLabel: channel, ContactBy: contactBy}
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

func renderHotLeadAlert(lead LeadSummary) (subject, body string, err error) {
	data := newLeadEmailData(baseEmailData{
		Title:      "Nuovo lead caldo",
		Heading:    "Nuovo lead caldo",
		Subheading: "Contattalo il prima possibile.",
		CTALabel:   "Apri il lead",
		CTAURL:     lead.LeadURL,
	}, lead)
	body, err = renderEmailTemplate("hot_lead_alert.html", data)
	return fmt.Sprintf(subjectHotLeadAlertFmt, data.LeadName, lead.Score), body, err
}

func renderFollowUpReminder(lead LeadSummary) (subject, body string, err error) {
	data := newLeadEmailData(baseEmailData{
		Title:    "Promemoria follow-up",
		Heading:  "Promemoria follow-up",
		CTALabel: "Apri il lead",
		CTAURL:   lead.LeadURL,
	}, lead)
	body, err = renderEmailTemplate("follow_up_reminder.html", data)
	return fmt.Sprintf(subjectFollowUpReminderFmt, data.LeadName), body, err
}
