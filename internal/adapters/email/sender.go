package email

import (
	"context"
	"time"
)

// InlineImage is an image attached to the message and referenced from the
// HTML body via cid:<CID>.
type InlineImage struct {
	CID         string
	Filename    string
	ContentType string
	Content     []byte
}

// SendRequest contains the data needed to send one email via an external
// provider. Each registrant gets an individually addressed message.
type SendRequest struct {
	To      string
	From    string // Sender address (e.g. "Workshop Team <noreply@example.com>")
	Subject string
	HTML    string // HTML body
	ReplyTo string // Reply-to address
	Image   *InlineImage
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
