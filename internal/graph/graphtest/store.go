// Package graphtest provides an in-memory Store for tests.
package graphtest

import (
	"context"
	"sync"
	"time"

	"github.com/meridianfin/tradegate/internal/graph"
	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// Store is a fixture-backed graph.Store. Populate the maps directly,
// then hand it to the component under test.
type Store struct {
	mu sync.Mutex

	Entities    map[string]graph.EntityNode  // by name
	Instruments map[string][]graph.Instrument // by entity name
	Links       map[string][]string          // undirected adjacency by name
	Sanctioned  map[string]bool              // by name

	// failNext makes the next n sessions fail every query with a
	// transient store error, for retry-path tests.
	failNext int

	// SessionCount tracks how many sessions were handed out.
	SessionCount int
}

// New returns an empty fixture store.
func New() *Store {
	return &Store{
		Entities:    make(map[string]graph.EntityNode),
		Instruments: make(map[string][]graph.Instrument),
		Links:       make(map[string][]string),
		Sanctioned:  make(map[string]bool),
	}
}

// AddEntity registers a node and its sanctions flag.
func (s *Store) AddEntity(name string, typ models.EntityType, country string, sanctioned bool) {
	s.Entities[name] = graph.EntityNode{Name: name, Type: typ, Country: country, OnSanctionsList: sanctioned}
	if sanctioned {
		s.Sanctioned[name] = true
	}
}

// Link adds an undirected edge.
func (s *Store) Link(a, b string) {
	s.Links[a] = append(s.Links[a], b)
	s.Links[b] = append(s.Links[b], a)
}

// FailNextSessions makes the next n sessions error on every query.
func (s *Store) FailNextSessions(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Session implements graph.Store.
func (s *Store) Session(ctx context.Context) (graph.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionCount++
	failing := false
	if s.failNext > 0 {
		s.failNext--
		failing = true
	}
	return &session{store: s, failing: failing}, nil
}

// Close implements graph.Store.
func (s *Store) Close() error { return nil }

type session struct {
	store   *Store
	failing bool
}

func (se *session) fail(op string) error {
	return apperrors.New(apperrors.KindStoreUnavailable, "%s: injected fault", op)
}

func (se *session) Entity(ctx context.Context, name string, typ models.EntityType) (*graph.EntityNode, error) {
	if se.failing {
		return nil, se.fail("entity lookup")
	}
	node, ok := se.store.Entities[name]
	if !ok || node.Type != typ {
		return nil, apperrors.New(apperrors.KindNotFound, "entity %q (%s) not in graph", name, typ)
	}
	return &node, nil
}

func (se *session) Instruments(ctx context.Context, name string, typ models.EntityType, since time.Time) ([]graph.Instrument, error) {
	if se.failing {
		return nil, se.fail("instrument scan")
	}
	var out []graph.Instrument
	for _, in := range se.store.Instruments[name] {
		if !in.IssueDate.Before(since) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (se *session) SanctionedWithinHops(ctx context.Context, name string, maxHops int) (bool, error) {
	if se.failing {
		return false, se.fail("link traversal")
	}
	visited := map[string]bool{name: true}
	frontier := []string{name}
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, n := range frontier {
			for _, neighbor := range se.store.Links[n] {
				if !visited[neighbor] {
					visited[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}
		for _, n := range next {
			if se.store.Sanctioned[n] {
				return true, nil
			}
		}
		frontier = next
	}
	return false, nil
}

func (se *session) SanctionedAmong(ctx context.Context, names []string) (int, error) {
	if se.failing {
		return 0, se.fail("sanctioned counterparty count")
	}
	count := 0
	for _, n := range names {
		if se.store.Sanctioned[n] {
			count++
		}
	}
	return count, nil
}

func (se *session) Close() error { return nil }
