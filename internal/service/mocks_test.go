package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore is a shared in-memory backing for the repository mocks so a
// transaction-scoped read sees prior writes from the same test.
type mockStore struct {
	mu    sync.Mutex
	docs  map[string]*models.Document
	nodes map[string]*models.Node
	edits []*models.Edit

	failNodeCreateAfter int // fail the Nth node insert; 0 disables
	nodeCreates         int
}

func newMockStore() *mockStore {
	return &mockStore{
		docs:  map[string]*models.Document{},
		nodes: map[string]*models.Node{},
	}
}

type mockDocumentRepo struct{ store *mockStore }

func (r *mockDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *doc
	r.store.docs[doc.ID] = &copied
	return nil
}

func (r *mockDocumentRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	doc, ok := r.store.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	copied := *doc
	copied.CurrentContent = doc.CurrentContent.Clone()
	return &copied, nil
}

func (r *mockDocumentRepo) UpdateCurrentContent(_ context.Context, id string, content models.SectionMap, wordCount int, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	doc, ok := r.store.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	doc.CurrentContent = content.Clone()
	doc.WordCount = wordCount
	doc.UpdatedAt = updatedAt
	return nil
}

func (r *mockDocumentRepo) ListByTeam(_ context.Context, teamID string) ([]models.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	docs := []models.Document{}
	for _, doc := range r.store.docs {
		if doc.TeamID == teamID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (r *mockDocumentRepo) Search(_ context.Context, teamID, query string) ([]models.Document, error) {
	return r.ListByTeam(nil, teamID)
}

type mockNodeRepo struct{ store *mockStore }

func (r *mockNodeRepo) Create(_ context.Context, node *models.Node) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nodeCreates++
	if r.store.failNodeCreateAfter > 0 && r.store.nodeCreates >= r.store.failNodeCreateAfter {
		return fmt.Errorf("create node: simulated insert failure")
	}
	copied := *node
	r.store.nodes[node.ID] = &copied
	return nil
}

func (r *mockNodeRepo) GetByID(_ context.Context, id string) (*models.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	node, ok := r.store.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *node
	return &copied, nil
}

func (r *mockNodeRepo) ListByDocument(_ context.Context, documentID string) ([]models.Node, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	nodes := []models.Node{}
	for _, node := range r.store.nodes {
		if node.DocumentID == documentID {
			nodes = append(nodes, *node)
		}
	}
	// Callers get level-then-order sorting from the real repository
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].Level < nodes[i].Level ||
				(nodes[j].Level == nodes[i].Level && nodes[j].Order < nodes[i].Order) {
				nodes[i], nodes[j] = nodes[j], nodes[i]
			}
		}
	}
	return nodes, nil
}

type mockEditRepo struct{ store *mockStore }

func (r *mockEditRepo) Create(_ context.Context, edit *models.Edit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *edit
	r.store.edits = append(r.store.edits, &copied)
	return nil
}

func (r *mockEditRepo) ListByNode(_ context.Context, nodeID string) ([]models.Edit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	edits := []models.Edit{}
	// Newest first: mock appends in order, so walk backwards
	for i := len(r.store.edits) - 1; i >= 0; i-- {
		if r.store.edits[i].NodeID == nodeID {
			edits = append(edits, *r.store.edits[i])
		}
	}
	return edits, nil
}

// mockTxManager runs the function directly. Rollback is simulated by
// snapshotting the store and restoring it on error.
type mockTxManager struct{ store *mockStore }

func (m *mockTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.store.mu.Lock()
	snapDocs := map[string]*models.Document{}
	for k, v := range m.store.docs {
		copied := *v
		snapDocs[k] = &copied
	}
	snapNodes := map[string]*models.Node{}
	for k, v := range m.store.nodes {
		copied := *v
		snapNodes[k] = &copied
	}
	snapEdits := append([]*models.Edit{}, m.store.edits...)
	m.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.store.mu.Lock()
		m.store.docs = snapDocs
		m.store.nodes = snapNodes
		m.store.edits = snapEdits
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// mockAuthorizer permits the configured members only
type mockAuthorizer struct {
	allowed map[string]bool // key: userID + "/" + teamID
}

func allowMembers(pairs ...[2]string) *mockAuthorizer {
	a := &mockAuthorizer{allowed: map[string]bool{}}
	for _, p := range pairs {
		a.allowed[p[0]+"/"+p[1]] = true
	}
	return a
}

func (a *mockAuthorizer) MayAct(_ context.Context, userID, teamID string, _ ...string) error {
	if !a.allowed[userID+"/"+teamID] {
		return fmt.Errorf("user is not a member of team %s: %w", teamID, domain.ErrForbidden)
	}
	return nil
}

// mockLocker records acquisitions; always grants immediately
type mockLocker struct {
	mu       sync.Mutex
	acquired []string
	released []string
}

func (l *mockLocker) Acquire(_ context.Context, documentID string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	l.acquired = append(l.acquired, documentID)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.released = append(l.released, documentID)
		l.mu.Unlock()
		return nil
	}, nil
}

// mockBroadcaster records every broadcast event
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastCall
}

type broadcastCall struct {
	documentID string
	event      string
	payload    any
}

func (b *mockBroadcaster) Broadcast(documentID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastCall{documentID, event, payload})
}

func (b *mockBroadcaster) calls() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastCall{}, b.events...)
}

// mockNotifier records notifications
type mockNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *mockNotifier) NotifyIngested(_ context.Context, _, _, _, _ string) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

// mockScraper returns a fixed page
type mockScraper struct {
	page *models.ScrapedPage
	err  error
}

func (s *mockScraper) Scrape(_ context.Context, _ string) (*models.ScrapedPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}
