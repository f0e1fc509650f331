package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
	"github.com/Strob0t/crmlite/internal/domain/user"
	"github.com/Strob0t/crmlite/internal/port/database"
	"github.com/Strob0t/crmlite/internal/port/llm"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu           sync.Mutex
	users        map[string]user.User
	opps         map[int64]opportunity.Opportunity
	interactions map[int64]interaction.Interaction
	strategies   map[int64]strategy.Strategy
	nextID       int64

	upsertCalls        int
	createStrategyCall int

	// Error hooks: set these to inject failures.
	listInteractionsErr  error
	createInteractionErr error
	createStrategyErr   error
	deleteOppErr        error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:        map[string]user.User{},
		opps:         map[int64]opportunity.Opportunity{},
		interactions: map[int64]interaction.Interaction{},
		strategies:   map[int64]strategy.Strategy{},
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) EnsureSchema(context.Context) error { return nil }

func (m *mockStore) UpsertUser(_ context.Context, req user.CreateRequest) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if u, ok := m.users[req.ID]; ok {
		return &u, nil
	}
	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, domain.ErrConflict
		}
	}
	u := user.User{ID: req.ID, Email: req.Email, FullName: req.FullName, CreatedAt: time.Now().UTC()}
	m.users[req.ID] = u
	return &u, nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *mockStore) ListOpportunities(_ context.Context, f opportunity.ListFilter) ([]opportunity.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []opportunity.Opportunity{}
	for _, o := range m.opps {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) GetOpportunity(_ context.Context, id int64) (*opportunity.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.opps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (m *mockStore) CreateOpportunity(_ context.Context, req opportunity.CreateRequest) (*opportunity.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[req.UserID]; !ok {
		return nil, &domain.ReferenceError{Entity: "opportunity", Parent: "user", ParentID: req.UserID}
	}
	now := time.Now().UTC()
	o := opportunity.Opportunity{
		ID: m.id(), Name: req.Name, Email: req.Email, Status: req.Status, Value: req.Value,
		UserID: req.UserID, CreatedAt: now, UpdatedAt: now,
	}
	m.opps[o.ID] = o
	return &o, nil
}

func (m *mockStore) UpdateOpportunity(_ context.Context, id int64, req opportunity.UpdateRequest) (*opportunity.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.opps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.IsEmpty() {
		return &o, nil
	}
	req.Apply(&o)
	o.UpdatedAt = time.Now().UTC()
	m.opps[id] = o
	return &o, nil
}

func (m *mockStore) DeleteOpportunity(_ context.Context, id int64) (opportunity.CascadeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res opportunity.CascadeResult
	if m.deleteOppErr != nil {
		return res, m.deleteOppErr
	}
	if _, ok := m.opps[id]; !ok {
		return res, domain.ErrNotFound
	}
	for k, s := range m.strategies {
		if s.OpportunityID == id {
			delete(m.strategies, k)
			res.Strategies++
		}
	}
	for k, i := range m.interactions {
		if i.OpportunityID == id {
			delete(m.interactions, k)
			res.Interactions++
		}
	}
	delete(m.opps, id)
	return res, nil
}

func (m *mockStore) CountOpportunities(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.opps {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) ListInteractions(_ context.Context, oppID int64) ([]interaction.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listInteractionsErr != nil {
		return nil, m.listInteractionsErr
	}
	out := []interaction.Interaction{}
	for _, i := range m.interactions {
		if i.OpportunityID == oppID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *mockStore) GetInteraction(_ context.Context, id int64) (*interaction.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.interactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &i, nil
}

func (m *mockStore) CreateInteraction(_ context.Context, req interaction.CreateRequest) (*interaction.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createInteractionErr != nil {
		return nil, m.createInteractionErr
	}
	if _, ok := m.opps[req.OpportunityID]; !ok {
		return nil, &domain.ReferenceError{Entity: "interaction", Parent: "opportunity", ParentID: strconv.FormatInt(req.OpportunityID, 10)}
	}
	i := interaction.Interaction{
		ID: m.id(), Type: req.Type, Notes: req.Notes, Timestamp: time.Now().UTC(), OpportunityID: req.OpportunityID,
	}
	m.interactions[i.ID] = i
	return &i, nil
}

func (m *mockStore) UpdateInteraction(_ context.Context, id int64, req interaction.UpdateRequest) (*interaction.Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.interactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	req.Apply(&i)
	m.interactions[id] = i
	return &i, nil
}

func (m *mockStore) DeleteInteraction(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interactions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.interactions, id)
	return nil
}

func (m *mockStore) CreateStrategy(_ context.Context, s *strategy.Strategy) (*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStrategyCall++
	if m.createStrategyErr != nil {
		return nil, m.createStrategyErr
	}
	if _, ok := m.opps[s.OpportunityID]; !ok {
		return nil, &domain.ReferenceError{Entity: "strategy", Parent: "opportunity", ParentID: strconv.FormatInt(s.OpportunityID, 10)}
	}
	out := *s
	out.ID = m.id()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	m.strategies[out.ID] = out
	return &out, nil
}

func (m *mockStore) LatestStrategy(_ context.Context, oppID int64) (*strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *strategy.Strategy
	for _, s := range m.strategies {
		if s.OpportunityID != oppID {
			continue
		}
		if latest == nil || strategy.Newer(&s, latest) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (m *mockStore) ListStrategies(_ context.Context, oppID int64) ([]strategy.Strategy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []strategy.Strategy{}
	for _, s := range m.strategies {
		if s.OpportunityID == oppID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strategy.Newer(&out[i], &out[j]) })
	return out, nil
}

func (m *mockStore) CountStrategies(_ context.Context, oppID int64) (int, error) {
	list, _ := m.ListStrategies(context.Background(), oppID)
	return len(list), nil
}

// fakeGenerator records every request and replies with a fixed response.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []llm.Request
	content  string
	err      error
	block    bool
}

func (g *fakeGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Response{Content: g.content, Model: "fake"}, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// recordingPublisher captures published subjects.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

var errBoom = errors.New("boom")
