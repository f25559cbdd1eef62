// Package store: shared SQL implementation.
//
// SQLiteStore and PostgresStore both delegate to SQLStore; only the driver,
// the migrations, and the placeholder style differ. Queries are written with
// ? placeholders and rebound to $n for Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect string
	ttl     time.Duration
}

// rebind converts ? placeholders to $n for the postgres dialect.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DSNTypePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetSession loads a session, creating a fresh one when the id is unseen or
// the stored record sat idle past the TTL. Expiry is checked here, on
// access, so no background sweeper writes to session records.
func (s *SQLStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var data string
	var lastUpdated time.Time
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data, last_updated FROM sessions WHERE id = ?`), id).
		Scan(&data, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		session := models.NewSession(id)
		if err := s.PutSession(ctx, session); err != nil {
			return nil, err
		}
		slog.Debug("SQLStore created session", "session", id)
		return session, nil
	}
	if err != nil {
		slog.Error("SQLStore GetSession failed", "error", err, "session", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	if time.Since(lastUpdated) > s.ttl {
		slog.Debug("SQLStore session expired, resetting", "session", id)
		session := models.NewSession(id)
		if err := s.PutSession(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		slog.Warn("SQLStore found malformed session, resetting", "session", id, "error", err)
		session := models.NewSession(id)
		if err := s.PutSession(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}
	return &session, nil
}

func (s *SQLStore) PutSession(ctx context.Context, session *models.Session) error {
	session.LastUpdated = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (id, data, last_updated) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, last_updated = excluded.last_updated`),
		session.ID, string(data), session.LastUpdated)
	if err != nil {
		slog.Error("SQLStore PutSession failed", "error", err, "session", session.ID)
		return fmt.Errorf("failed to put session %s: %w", session.ID, err)
	}
	return nil
}

// PurgeExpiredSessions deletes session rows idle past the TTL and returns
// the number removed. Expiry is already enforced on access; the sweep keeps
// the table from accumulating rows for sessions that never come back.
func (s *SQLStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE last_updated < ?`), cutoff)
	if err != nil {
		slog.Error("SQLStore PurgeExpiredSessions failed", "error", err)
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if n > 0 {
		slog.Info("Purged expired sessions", "count", n)
	}
	return n, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE id = ?`), id); err != nil {
		slog.Error("SQLStore DeleteSession failed", "error", err, "session", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) SaveLead(ctx context.Context, lead models.Lead) (string, error) {
	fillLeadDefaults(&lead)
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lead metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO leads (id, type, name, contact, info, status, admin_notes, ticket_id, metadata, requested_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		lead.ID, lead.Type, lead.Name, lead.Contact, lead.Info, lead.Status,
		lead.AdminNotes, lead.TicketID, string(metadata), lead.RequestedAt, lead.UpdatedAt)
	if err != nil {
		slog.Error("SQLStore SaveLead failed", "error", err, "type", lead.Type)
		return "", fmt.Errorf("failed to insert lead: %w", err)
	}
	slog.Debug("SQLStore saved lead", "lead", lead.ID, "type", lead.Type)
	return lead.ID, nil
}

const leadColumns = `id, type, name, contact, info, status, admin_notes, ticket_id, metadata, requested_at, updated_at`

func (s *SQLStore) GetLead(ctx context.Context, id string) (models.Lead, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+leadColumns+` FROM leads WHERE id = ?`), id)
	lead, err := scanLeadRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lead{}, models.ErrLeadNotFound
	}
	if err != nil {
		slog.Error("SQLStore GetLead failed", "error", err, "lead", id)
		return models.Lead{}, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	return lead, nil
}

func (s *SQLStore) ListLeads(ctx context.Context, status models.LeadStatus) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY requested_at DESC`
	args := []interface{}{}
	if status != "" {
		query = `SELECT ` + leadColumns + ` FROM leads WHERE status = ? ORDER BY requested_at DESC`
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		slog.Error("SQLStore ListLeads query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			slog.Error("SQLStore ListLeads scan failed", "error", err)
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lead rows: %w", err)
	}
	slog.Debug("SQLStore ListLeads succeeded", "count", len(leads))
	return leads, nil
}

func (s *SQLStore) UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) error {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return err
	}
	if err := checkStatusTransition(lead.Status, status); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id)
	if err != nil {
		slog.Error("SQLStore UpdateLeadStatus failed", "error", err, "lead", id)
		return fmt.Errorf("failed to update lead %s status: %w", id, err)
	}
	slog.Info("Lead status updated", "lead", id, "from", lead.Status, "to", status)
	return nil
}

func (s *SQLStore) UpdateLeadNotes(ctx context.Context, id string, notes string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE leads SET admin_notes = ?, updated_at = ? WHERE id = ?`),
		notes, time.Now().UTC(), id)
	if err != nil {
		slog.Error("SQLStore UpdateLeadNotes failed", "error", err, "lead", id)
		return fmt.Errorf("failed to update lead %s notes: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrLeadNotFound
	}
	return nil
}

func (s *SQLStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM leads WHERE id = ?`), id)
	if err != nil {
		slog.Error("SQLStore DeleteLead failed", "error", err, "lead", id)
		return fmt.Errorf("failed to delete lead %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrLeadNotFound
	}
	return nil
}

func (s *SQLStore) LeadStats(ctx context.Context) (models.LeadStats, error) {
	stats := models.LeadStats{
		ByStatus: make(map[models.LeadStatus]int),
		ByType:   make(map[models.LeadType]int),
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("failed to count leads: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("failed to count leads by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status models.LeadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	typeRows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM leads GROUP BY type`)
	if err != nil {
		return stats, fmt.Errorf("failed to count leads by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var leadType models.LeadType
		var count int
		if err := typeRows.Scan(&leadType, &count); err != nil {
			return stats, err
		}
		stats.ByType[leadType] = count
	}
	if err := typeRows.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLeadFields(sc rowScanner) (models.Lead, error) {
	var lead models.Lead
	var info, adminNotes, ticketID, metadata sql.NullString
	err := sc.Scan(&lead.ID, &lead.Type, &lead.Name, &lead.Contact, &info, &lead.Status,
		&adminNotes, &ticketID, &metadata, &lead.RequestedAt, &lead.UpdatedAt)
	if err != nil {
		return lead, err
	}
	lead.Info = info.String
	lead.AdminNotes = adminNotes.String
	lead.TicketID = ticketID.String
	if metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &lead.Metadata); err != nil {
			slog.Warn("SQLStore lead metadata unreadable, dropping", "lead", lead.ID, "error", err)
			lead.Metadata = nil
		}
	}
	return lead, nil
}

// scanLead scans a Lead from sql.Rows.
func scanLead(rows *sql.Rows) (models.Lead, error) {
	lead, err := scanLeadFields(rows)
	if err != nil {
		return lead, fmt.Errorf("scan lead failed: %w", err)
	}
	return lead, nil
}

// scanLeadRow scans a Lead from a single sql.Row.
func scanLeadRow(row *sql.Row) (models.Lead, error) {
	return scanLeadFields(row)
}
