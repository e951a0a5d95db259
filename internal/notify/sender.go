// Package notify delivers customer email.
package notify

import "context"

// Message is one outbound email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers messages over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
