// Package store: in-memory backend.
//
// Sessions ride on go-cache, which gives us TTL expiry and periodic purging
// for free. Leads live in a mutex-guarded map. Suitable for development and
// single-process deployments.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/util"
)

// memoryPurgeInterval is how often go-cache sweeps expired sessions.
const memoryPurgeInterval = 10 * time.Minute

// InMemoryStore keeps sessions and leads in process memory.
type InMemoryStore struct {
	sessions *gocache.Cache
	ttl      time.Duration

	mu    sync.RWMutex
	leads map[string]models.Lead
	order []string // insertion order, newest appended last
}

// NewInMemoryStore creates an in-memory store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	ttl := cfg.sessionTTL()
	slog.Debug("InMemoryStore initialized", "session_ttl", ttl)
	return &InMemoryStore{
		sessions: gocache.New(ttl, memoryPurgeInterval),
		ttl:      ttl,
		leads:    make(map[string]models.Lead),
	}
}

func (s *InMemoryStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if v, ok := s.sessions.Get(id); ok {
		return v.(*models.Session), nil
	}
	session := models.NewSession(id)
	s.sessions.Set(id, session, s.ttl)
	slog.Debug("InMemoryStore created session", "session", id)
	return session, nil
}

func (s *InMemoryStore) PutSession(ctx context.Context, session *models.Session) error {
	session.LastUpdated = time.Now().UTC()
	s.sessions.Set(session.ID, session, s.ttl)
	return nil
}

func (s *InMemoryStore) DeleteSession(ctx context.Context, id string) error {
	s.sessions.Delete(id)
	return nil
}

func (s *InMemoryStore) SaveLead(ctx context.Context, lead models.Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fillLeadDefaults(&lead)
	s.leads[lead.ID] = lead
	s.order = append(s.order, lead.ID)
	slog.Debug("InMemoryStore saved lead", "lead", lead.ID, "type", lead.Type)
	return lead.ID, nil
}

func (s *InMemoryStore) GetLead(ctx context.Context, id string) (models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return models.Lead{}, models.ErrLeadNotFound
	}
	return lead, nil
}

func (s *InMemoryStore) ListLeads(ctx context.Context, status models.LeadStatus) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Lead
	for _, id := range s.order {
		lead := s.leads[id]
		if status != "" && lead.Status != status {
			continue
		}
		out = append(out, lead)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (s *InMemoryStore) UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return models.ErrLeadNotFound
	}
	if err := checkStatusTransition(lead.Status, status); err != nil {
		return err
	}
	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	s.leads[id] = lead
	return nil
}

func (s *InMemoryStore) UpdateLeadNotes(ctx context.Context, id string, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return models.ErrLeadNotFound
	}
	lead.AdminNotes = notes
	lead.UpdatedAt = time.Now().UTC()
	s.leads[id] = lead
	return nil
}

func (s *InMemoryStore) DeleteLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return models.ErrLeadNotFound
	}
	delete(s.leads, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) LeadStats(ctx context.Context) (models.LeadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.LeadStats{
		ByStatus: make(map[models.LeadStatus]int),
		ByType:   make(map[models.LeadType]int),
	}
	for _, lead := range s.leads {
		stats.Total++
		stats.ByStatus[lead.Status]++
		stats.ByType[lead.Type]++
	}
	return stats, nil
}

// fillLeadDefaults assigns an id, NEW status, and timestamps where missing.
func fillLeadDefaults(lead *models.Lead) {
	if lead.ID == "" {
		lead.ID = util.NewLeadID()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	now := time.Now().UTC()
	if lead.RequestedAt.IsZero() {
		lead.RequestedAt = now
	}
	lead.UpdatedAt = now
}
