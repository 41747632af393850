package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/contact.html.tmpl"))
	textTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/contact.txt.tmpl"))
)

var (
	frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths   = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// FrenchDate formats t as "lundi 5 janvier 2026".
func FrenchDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
}

// FrenchTime formats t as "14:05".
func FrenchTime(t time.Time) string {
	return t.Format("15:04")
}

type templateData struct {
	ContactMessage
	Date string
	Time string
}

// Render returns the HTML and plain-text bodies of the notification. Dates
// are shown in loc.
func Render(m ContactMessage, loc *time.Location) (html, text string, err error) {
	at := m.ReceivedAt
	if loc != nil {
		at = at.In(loc)
	}
	data := templateData{ContactMessage: m, Date: FrenchDate(at), Time: FrenchTime(at)}

	var hb, tb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := textTemplate.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(hb.String()) + "\n", tb.String(), nil
}
