// Package cart holds the session-scoped shopping cart: an ordered set of
// line items keyed by product ID, a derived total, and durable storage so
// the cart survives a session restart. It is not server-side order state;
// the caller discards it once an order has been placed.
package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/safar/collectibles-store/internal/models"
)

// Line is one product-quantity pairing. Name, category, price and image
// are copied from the product at the moment it is added, so later catalog
// changes never affect a cart in flight.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is the authoritative in-session cart. All mutations serialize
// through one mutex, recompute the total, and persist before returning,
// so no caller ever observes a torn intermediate state.
type Store struct {
	mu      sync.Mutex
	storage Storage
	lines   []Line
	total   decimal.Decimal
}

// NewStore loads any previously persisted lines from storage.
func NewStore(storage Storage) (*Store, error) {
	lines, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	s := &Store{storage: storage, lines: lines}
	s.total = sumLines(s.lines)
	return s, nil
}

// Add increments the quantity of an existing line for the product, or
// appends a new line with quantity 1 carrying a snapshot of the product's
// display fields. Stock is not checked here; that is the catalog's concern.
func (s *Store) Add(p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity++
			return s.persist()
		}
	}

	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Image:     p.Image,
		Price:     p.Price,
		Quantity:  1,
	})
	return s.persist()
}

// UpdateQuantity sets the line's quantity, clamped to a minimum of 1.
// Dropping to zero never removes a line; that takes an explicit Remove.
// Unknown product IDs are ignored.
func (s *Store) UpdateQuantity(productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		quantity = 1
	}

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = quantity
			return s.persist()
		}
	}
	return nil
}

// Remove deletes the line for the product if present.
func (s *Store) Remove(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.persist()
		}
	}
	return nil
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persist()
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Line, len(s.lines))
	copy(items, s.lines)
	return items
}

// Snapshot returns the lines and their total as one consistent view.
// Callers that need both must use this instead of separate Items and
// Total calls, which a concurrent mutation could interleave.
func (s *Store) Snapshot() ([]Line, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Line, len(s.lines))
	copy(items, s.lines)
	return items, s.total
}

// Total is the sum of price times quantity over all lines. It is
// recomputed on every mutation rather than adjusted incrementally.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// persist recomputes the total and writes the lines out. Callers must
// hold the mutex.
func (s *Store) persist() error {
	s.total = sumLines(s.lines)

	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	if err := s.storage.Save(lines); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func sumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
