// Package cart keeps a browsing session's shopping cart in memory.
package cart

import (
	"sort"
	"sync"

	"github.com/kingshipwears/storefront/internal/catalog"
)

// Line pairs a product snapshot with a quantity. Quantity is always >= 1.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal is price * quantity for the line.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Snapshot is an immutable view of the cart at one point in time.
type Snapshot struct {
	Lines []Line
	Count int
	Total int64
}

// Empty reports whether the cart has no lines.
func (s Snapshot) Empty() bool { return len(s.Lines) == 0 }

// Quantity returns the quantity held for productID, or 0.
func (s Snapshot) Quantity(productID int) int {
	for _, l := range s.Lines {
		if l.Product.ID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Store is an ordered cart unique by product id. Every mutator notifies
// subscribers with the resulting snapshot once the mutation has completed.
type Store struct {
	mu     sync.Mutex
	lines  []Line
	subs   map[int]func(Snapshot)
	nextID int

	// notifyMu keeps deliveries in mutation order without holding mu.
	notifyMu sync.Mutex
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{subs: map[int]func(Snapshot){}}
}

// Add increments the line for p, appending a new line with quantity 1 when absent.
func (s *Store) Add(p catalog.Product) {
	s.mutate(func() {
		if i := s.indexOf(p.ID); i >= 0 {
			s.lines[i].Quantity++
			return
		}
		p.Images = append([]string(nil), p.Images...)
		s.lines = append(s.lines, Line{Product: p, Quantity: 1})
	})
}

// Increase adds one to the matching line. Absent ids are ignored.
func (s *Store) Increase(productID int) {
	s.mutate(func() {
		if i := s.indexOf(productID); i >= 0 {
			s.lines[i].Quantity++
		}
	})
}

// Decrease removes one from the matching line and drops the line at zero.
func (s *Store) Decrease(productID int) {
	s.mutate(func() {
		i := s.indexOf(productID)
		if i < 0 {
			return
		}
		if s.lines[i].Quantity <= 1 {
			s.removeAt(i)
			return
		}
		s.lines[i].Quantity--
	})
}

// Remove drops the matching line regardless of quantity.
func (s *Store) Remove(productID int) {
	s.mutate(func() {
		if i := s.indexOf(productID); i >= 0 {
			s.removeAt(i)
		}
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate(func() {
		s.lines = nil
	})
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every subsequent mutation. The returned func
// unsubscribes; calling it more than once is harmless. fn runs on the
// mutating goroutine and must not call mutators on the same store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) mutate(apply func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	apply()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Lines: make([]Line, 0, len(s.lines))}
	for _, l := range s.lines {
		cp := l
		cp.Product.Images = append([]string(nil), l.Product.Images...)
		snap.Lines = append(snap.Lines, cp)
		snap.Count += l.Quantity
		snap.Total += l.Subtotal()
	}
	return snap
}

func (s *Store) indexOf(productID int) int {
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}
