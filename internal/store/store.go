// Package store provides session and lead storage backends for Parley.
//
// Session state lives in a SessionStore (in-memory, Redis, or SQL) with a
// TTL evaluated opportunistically on access. Leads live in a LeadStore
// (in-memory or SQL). The SQL backends share one implementation with the
// dialect selected by DSN auto-detection.
package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

// DefaultSessionTTL is how long an idle session survives before it behaves
// as a fresh one on next contact.
const DefaultSessionTTL = 30 * time.Minute

// SessionStore holds per-conversation state keyed by session id.
type SessionStore interface {
	// GetSession returns the session for id, creating a fresh one if the id
	// is unseen or the stored session has expired.
	GetSession(ctx context.Context, id string) (*models.Session, error)
	// PutSession persists the session, refreshing its TTL.
	PutSession(ctx context.Context, session *models.Session) error
	// DeleteSession drops the session. Deleting an absent id is not an error.
	DeleteSession(ctx context.Context, id string) error
}

// LeadStore persists the leads produced by completed flows and handoffs.
type LeadStore interface {
	// SaveLead persists a lead and returns its id. Missing id, status, and
	// timestamps are filled in.
	SaveLead(ctx context.Context, lead models.Lead) (string, error)
	GetLead(ctx context.Context, id string) (models.Lead, error)
	// ListLeads returns leads newest-first, filtered by status when status
	// is non-empty.
	ListLeads(ctx context.Context, status models.LeadStatus) ([]models.Lead, error)
	// UpdateLeadStatus enforces the forward-only status transitions plus
	// the CLOSED to NEW reopen.
	UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) error
	UpdateLeadNotes(ctx context.Context, id string, notes string) error
	DeleteLead(ctx context.Context, id string) error
	LeadStats(ctx context.Context) (models.LeadStats, error)
}

// Store combines both concerns; the SQL and in-memory backends satisfy it.
type Store interface {
	SessionStore
	LeadStore
}

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string (SQL backends) or the Redis
	// address (Redis backend).
	DSN string
	// SessionTTL overrides DefaultSessionTTL when positive.
	SessionTTL time.Duration
}

// Option defines a functional option for configuring stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSessionTTL sets the idle-session expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = ttl }
}

func (o *Opts) sessionTTL() time.Duration {
	if o.SessionTTL > 0 {
		return o.SessionTTL
	}
	return DefaultSessionTTL
}

// DSN type constants for DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
)

// DetectDSNType determines the database driver from the DSN format.
// Postgres DSNs use a URI scheme or key=value form; anything else is
// treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DSNTypePostgres
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// checkStatusTransition validates a requested status change for a lead.
func checkStatusTransition(current, next models.LeadStatus) error {
	if !models.IsValidLeadStatus(next) {
		return models.ErrInvalidLeadStatus
	}
	if !models.ValidStatusTransition(current, next) {
		slog.Debug("Rejected lead status transition", "from", current, "to", next)
		return models.ErrInvalidTransition
	}
	return nil
}
