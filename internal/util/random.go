// Package util provides utility functions for the Parley application.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// TicketIDLength is the number of leading UUID hex characters used for
// user-facing ticket identifiers.
const TicketIDLength = 8

// NewTicketID generates a short, user-facing escalation/reference ticket ID:
// the first 8 hex characters of a random UUID, uppercased.
func NewTicketID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:TicketIDLength])
}

// NewSessionID generates an opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// NewLeadID generates a unique lead record ID with "lead_" prefix.
func NewLeadID() string {
	return "lead_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
