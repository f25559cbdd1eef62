package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

func newSQLiteTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "parley.db")
	st, err := NewSQLiteStore(append([]Option{WithDSN(dsn)}, opts...)...)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore_RequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected error without DSN")
	}
}

func TestSQLiteStore_SessionRoundTrip(t *testing.T) {
	st := newSQLiteTestStore(t)
	ctx := context.Background()

	session, err := st.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if session.ID != "s1" || session.State.Active() {
		t.Fatalf("fresh session = %+v", session)
	}

	session.State = models.FlowState{Flow: models.FlowDemo, Step: "awaiting_industry"}
	session.Set("industry", "Finance")
	session.AppendTurn(models.RoleUser, "I want a demo")
	if err := st.PutSession(ctx, session); err != nil {
		t.Fatalf("PutSession() error: %v", err)
	}

	loaded, err := st.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if loaded.State.Flow != models.FlowDemo || loaded.Get("industry") != "Finance" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.History) != 1 {
		t.Errorf("history len = %d, want 1", len(loaded.History))
	}
}

func TestSQLiteStore_SessionExpiresOnAccess(t *testing.T) {
	st := newSQLiteTestStore(t, WithSessionTTL(10*time.Millisecond))
	ctx := context.Background()

	session, _ := st.GetSession(ctx, "s1")
	session.State = models.FlowState{Flow: models.FlowDemo, Step: "awaiting_industry"}
	st.PutSession(ctx, session)

	time.Sleep(20 * time.Millisecond)

	fresh, err := st.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if fresh.State.Active() {
		t.Errorf("expired session should reset, got %+v", fresh.State)
	}
}

func TestSQLiteStore_PurgeExpiredSessions(t *testing.T) {
	st := newSQLiteTestStore(t, WithSessionTTL(10*time.Millisecond))
	ctx := context.Background()

	st.GetSession(ctx, "old")
	time.Sleep(20 * time.Millisecond)
	st.GetSession(ctx, "fresh")

	n, err := st.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions() error: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

func TestSQLiteStore_LeadLifecycle(t *testing.T) {
	st := newSQLiteTestStore(t)
	ctx := context.Background()

	id, err := st.SaveLead(ctx, models.Lead{
		Type:     models.LeadTypeDemoRequest,
		Name:     "Jane",
		Contact:  "jane@example.com",
		Info:     "Industry: Finance",
		TicketID: "AB12CD34",
		Metadata: map[string]string{"industry": "Finance"},
	})
	if err != nil {
		t.Fatalf("SaveLead() error: %v", err)
	}

	lead, err := st.GetLead(ctx, id)
	if err != nil {
		t.Fatalf("GetLead() error: %v", err)
	}
	if lead.Status != models.LeadStatusNew || lead.Metadata["industry"] != "Finance" {
		t.Errorf("lead = %+v", lead)
	}

	if err := st.UpdateLeadStatus(ctx, id, models.LeadStatusContacted); err != nil {
		t.Errorf("UpdateLeadStatus() error: %v", err)
	}
	if err := st.UpdateLeadStatus(ctx, id, models.LeadStatusClosed); err == nil {
		t.Error("skipped transition should fail")
	}

	if err := st.UpdateLeadNotes(ctx, id, "called back"); err != nil {
		t.Errorf("UpdateLeadNotes() error: %v", err)
	}

	leads, err := st.ListLeads(ctx, models.LeadStatusContacted)
	if err != nil || len(leads) != 1 {
		t.Fatalf("ListLeads = %v, %v", leads, err)
	}
	if leads[0].AdminNotes != "called back" {
		t.Errorf("notes = %q", leads[0].AdminNotes)
	}

	stats, err := st.LeadStats(ctx)
	if err != nil {
		t.Fatalf("LeadStats() error: %v", err)
	}
	if stats.Total != 1 || stats.ByType[models.LeadTypeDemoRequest] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if err := st.DeleteLead(ctx, id); err != nil {
		t.Errorf("DeleteLead() error: %v", err)
	}
	if _, err := st.GetLead(ctx, id); err != models.ErrLeadNotFound {
		t.Errorf("GetLead after delete = %v, want ErrLeadNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: DSNTypePostgres}
	lite := &SQLStore{dialect: DSNTypeSQLite}

	query := `SELECT * FROM leads WHERE id = ? AND status = ?`
	if got := pg.rebind(query); got != `SELECT * FROM leads WHERE id = $1 AND status = $2` {
		t.Errorf("postgres rebind = %q", got)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind = %q", got)
	}
}
