package models

import (
	"errors"
	"sort"
)

// ErrStaleItem is returned by collaborators when a ListingItem handle was
// acquired before the last view refresh and can no longer be used.
var ErrStaleItem = errors.New("listing item handle is stale")

// ItemID uniquely identifies a listing entry across runs
type ItemID string

// ListingItem is one entry currently materialized in the listing view.
// Handle is owned by the view provider and is never persisted.
type ListingItem struct {
	ID         ItemID
	Handle     any
	Generation int // view generation the handle belongs to
}

// JobContent is the extracted text of one listing item
type JobContent struct {
	ID       ItemID
	Text     string
	Language string // detected ISO 639-1 code, empty if unknown
}

// IDSet is the set of item IDs already processed. IDs are never removed.
type IDSet map[ItemID]struct{}

// NewIDSet builds a set from a list of IDs
func NewIDSet(ids ...ItemID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set
func (s IDSet) Has(id ItemID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set
func (s IDSet) Add(id ItemID) {
	s[id] = struct{}{}
}

// Sorted returns the IDs in lexical order, for stable serialization
func (s IDSet) Sorted() []ItemID {
	ids := make([]ItemID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
