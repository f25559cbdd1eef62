// Package messaging defines the outbound message service abstraction and its
// Twilio WhatsApp implementation. The API server replies to inbound webhook
// messages through a Service; tests substitute the in-memory mock.
package messaging

import (
	"context"
	"regexp"
)

// phoneNumberRegex matches everything that is not a digit, used to
// canonicalize phone numbers before sending.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// minPhoneDigits is the minimum digit count a canonical recipient must have.
const minPhoneDigits = 6

// Service sends outbound messages to a conversational channel.
type Service interface {
	// SendMessage delivers body to the recipient identified by to.
	SendMessage(ctx context.Context, to string, body string) error
	// ValidateAndCanonicalizeRecipient normalizes a recipient identifier
	// into the form SendMessage expects.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)
}

// SentMessage records one delivery made through the mock service.
type SentMessage struct {
	To   string
	Body string
}

// MockService implements Service in memory for tests.
type MockService struct {
	Sent []SentMessage
	Err  error
}

// NewMockService creates an empty mock service.
func NewMockService() *MockService {
	return &MockService{}
}

// SendMessage records the message, or returns the configured error.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body})
	return nil
}

// ValidateAndCanonicalizeRecipient applies the same digit canonicalization as
// the real service.
func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeRecipient(recipient)
}
