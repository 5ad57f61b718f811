package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrFetch marks a failed history retrieval. The remote failure is opaque:
// network, server and decode errors all collapse into this category.
var ErrFetch = errors.New("history fetch failed")

// FetchFunc retrieves all records scoped to an identity from the remote
// service.
type FetchFunc func(ctx context.Context, identity string) ([]Record, error)

// FetchOutcome is the result of one fetch attempt. It carries the issuance
// number of the attempt so the store can drop stale completions.
type FetchOutcome struct {
	seq     int
	Records []Record
	Err     error
}

// Store caches the history collection for the active identity. The
// collection is replaced wholesale on each applied fetch; there is no
// incremental merge. The store is designed for a single-threaded event loop:
// Fetch and Apply are called from the loop, only the returned thunk runs
// elsewhere.
type Store struct {
	seq      int
	identity string
	records  []Record
	loaded   bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Fetch begins a history retrieval for the given identity and returns a
// thunk that performs the remote call. Run the thunk wherever blocking is
// acceptable and hand its outcome back to Apply. A fetch issued later always
// wins over one issued earlier, regardless of completion order.
func (s *Store) Fetch(ctx context.Context, identity string, fetch FetchFunc) func() FetchOutcome {
	s.seq++
	seq := s.seq
	s.identity = identity

	return func() FetchOutcome {
		recs, err := fetch(ctx, identity)
		if err != nil {
			return FetchOutcome{seq: seq, Err: fmt.Errorf("%w: %v", ErrFetch, err)}
		}
		return FetchOutcome{seq: seq, Records: recs}
	}
}

// Apply installs a fetch outcome. It reports whether the outcome was
// accepted: outcomes from any attempt other than the most recently issued
// one are dropped, and errors leave the previous collection intact.
func (s *Store) Apply(o FetchOutcome) bool {
	if o.seq != s.seq {
		return false
	}
	if o.Err != nil {
		return false
	}
	s.records = o.Records
	s.loaded = true
	return true
}

// Records returns the current collection in the order the remote service
// provided it.
func (s *Store) Records() []Record {
	return s.records
}

// Loaded reports whether at least one fetch has been applied.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Identity returns the identity of the most recently issued fetch.
func (s *Store) Identity() string {
	return s.identity
}

// Invalidate clears the collection so the next view activation fetches
// fresh. Outstanding fetch outcomes become stale.
func (s *Store) Invalidate() {
	s.seq++
	s.records = nil
	s.loaded = false
}

// Search filters the current collection by a case-insensitive substring
// match on patient name or patient ID. The empty query matches everything.
// The result is a fresh slice in collection order; the store itself is not
// modified, so repeated searches with different queries are independent.
func (s *Store) Search(query string) []Record {
	if query == "" {
		out := make([]Record, len(s.records))
		copy(out, s.records)
		return out
	}

	q := strings.ToLower(query)
	var out []Record
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.PatientName), q) ||
			strings.Contains(strings.ToLower(r.PatientID), q) {
			out = append(out, r)
		}
	}
	return out
}
