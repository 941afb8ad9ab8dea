// Package adapters defines the provider contracts the pipeline depends on.
//
// Real implementations (Gmail, Google Calendar, a log database) live outside
// this module; the mock implementations here satisfy the same interfaces for
// tests and for running the assistant without credentials.
package adapters

import (
	"context"
	"time"
)

// Thread is one email conversation as surfaced by an email provider.
type Thread struct {
	ThreadID  string    `json:"thread_id"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Preview   string    `json:"preview"`
	Unread    bool      `json:"unread"`
	Labels    []string  `json:"labels,omitempty"`
	Received  time.Time `json:"received"`
	MessageID string    `json:"message_id,omitempty"`
}

// SenderHistory summarizes prior interactions with one sender.
type SenderHistory struct {
	InteractionCount int       `json:"interaction_count"`
	AvgResponseTime  string    `json:"avg_response_time,omitempty"`
	Relationship     string    `json:"relationship,omitempty"`
	LastInteraction  time.Time `json:"last_interaction,omitempty"`
}

// SendResult is the outcome of a send operation.
type SendResult struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
}

// FetchOptions narrows a thread fetch.
type FetchOptions struct {
	MaxResults int
	UnreadOnly bool
	Query      string
}

// EmailProvider is the contract every email backend must implement.
type EmailProvider interface {
	// FetchThreads fetches inbox threads, newest first.
	FetchThreads(ctx context.Context, opts FetchOptions) ([]Thread, error)

	// GetThread returns the full thread for an id.
	GetThread(ctx context.Context, threadID string) (*Thread, error)

	// SendEmail sends a new message, or a reply when threadID is non-empty.
	SendEmail(ctx context.Context, to []string, subject, body string, cc, bcc []string, threadID string) (*SendResult, error)

	// MarkRead marks a thread as read.
	MarkRead(ctx context.Context, threadID string) (bool, error)

	// Archive removes a thread from the inbox.
	Archive(ctx context.Context, threadID string) (bool, error)

	// GetSenderHistory returns interaction history for one sender address.
	GetSenderHistory(ctx context.Context, address string) (*SenderHistory, error)

	// Search runs a provider-specific search query.
	Search(ctx context.Context, query string, maxResults int) ([]Thread, error)
}
