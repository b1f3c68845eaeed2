package orchestrators

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"remindbot/internal/domain/occurrence"
	"remindbot/internal/domain/reminder"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), so sheet
// data cannot inject markup into the emails.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// MessageContent carries the workshop identity used in every email.
type MessageContent struct {
	Title    string
	JoinLink string
	// HasImage controls whether bodies reference the inline cid image.
	HasImage bool
}

// registrationEmail builds the one-time confirmation message listing the
// registrant's personal upcoming dates.
func registrationEmail(name string, upcoming []occurrence.Occurrence, c MessageContent) (subject, html string) {
	subject = fmt.Sprintf("Congratulations %s! Your %s Registration is Confirmed", name, c.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "## Registration Confirmed\n\n")
	fmt.Fprintf(&b, "Dear **%s**,\n\n", name)
	fmt.Fprintf(&b, "You are confirmed for the **%s** workshop.\n\n", c.Title)
	b.WriteString("Here are the upcoming workshop dates — join any of them at your convenience:\n\n")
	for _, o := range upcoming {
		fmt.Fprintf(&b, "- %s (%s) at %s\n",
			o.Start.Format("January 2, 2006"), o.Start.Weekday(), o.Start.Format("3:04 PM MST"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Join here when the session starts: [%s](%s)\n\n", c.JoinLink, c.JoinLink)
	b.WriteString(signOff)

	return subject, renderHTML(b.String(), c.HasImage)
}

// reminderEmail builds a slot reminder for the same-day occurrence. The
// wording follows how far away the session is at the slot's trigger time.
func reminderEmail(name string, n reminder.Notification, c MessageContent) (subject, html string) {
	trigger := time.Date(
		n.Occurrence.Start.Year(), n.Occurrence.Start.Month(), n.Occurrence.Start.Day(),
		n.Slot.Hour, n.Slot.Minute, 0, 0, n.Occurrence.Start.Location())
	untilStart := n.Occurrence.Start.Sub(trigger)

	var intro string
	if untilStart <= 90*time.Minute {
		subject = fmt.Sprintf("Reminder: %s Starts in 1 Hour!", c.Title)
		intro = "Your workshop starts in 1 hour!"
	} else {
		subject = fmt.Sprintf("Reminder: %s Starts Tonight!", c.Title)
		intro = "Your workshop is scheduled for tonight."
	}

	var b strings.Builder
	b.WriteString("## Workshop Reminder\n\n")
	fmt.Fprintf(&b, "Dear **%s**,\n\n", name)
	fmt.Fprintf(&b, "%s\n\n", intro)
	fmt.Fprintf(&b, "%s (%s) at %s\n\n",
		n.Occurrence.Start.Format("January 2, 2006"), n.Occurrence.Start.Weekday(),
		n.Occurrence.Start.Format("3:04 PM MST"))
	fmt.Fprintf(&b, "Join here: [%s](%s)\n\n", c.JoinLink, c.JoinLink)
	b.WriteString(signOff)

	return subject, renderHTML(b.String(), c.HasImage)
}

const signOff = "Feel free to reply with any questions or doubts.\n\nThanks and regards,\nThe Workshop Team\n"

// renderHTML converts the markdown body to HTML and wraps it in a minimal
// shell, appending the inline image tag when one is attached.
func renderHTML(markdown string, hasImage bool) string {
	var body bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &body); err != nil {
		// Conversion of generated markdown cannot realistically fail;
		// fall back to the raw text inside <pre> rather than dropping the send.
		return "<html><body><pre>" + markdown + "</pre></body></html>"
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	b.Write(body.Bytes())
	if hasImage {
		fmt.Fprintf(&b, `<img src="cid:workshop_image" alt="Workshop" style="max-width:500px; height:auto;">`)
	}
	b.WriteString("</body></html>")
	return b.String()
}
