// Package memory keeps Spectra's importance-weighted recollections.
// Short-term entries lose importance every decay cycle and are forgotten once
// it reaches zero; long-term entries never decay.
package memory

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type Kind string

const (
	ShortTerm Kind = "short-term"
	LongTerm  Kind = "long-term"
)

const MaxImportance = 10

type Entry struct {
	ID         uint64    `json:"id"`
	Content    string    `json:"content"`
	Kind       Kind      `json:"type"`
	Importance float64   `json:"importance"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store is not safe for concurrent use.
type Store struct {
	next    uint64
	entries []Entry
}

func New() *Store { return &Store{} }

func (s *Store) Add(content string, kind Kind, importance float64, now time.Time) Entry {
	if importance > MaxImportance {
		importance = MaxImportance
	}
	s.next++
	e := Entry{ID: s.next, Content: content, Kind: kind, Importance: importance, Timestamp: now}
	s.entries = append(s.entries, e)
	return e
}

// Recall returns entries whose content contains keyword, most important first.
// Equal importance keeps insertion order. An empty keyword matches everything.
func (s *Store) Recall(keyword string) []Entry {
	fold := cases.Fold()
	kw := fold.String(keyword)
	var out []Entry
	for _, e := range s.entries {
		if strings.Contains(fold.String(e.Content), kw) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

// Decay lowers every short-term entry by rate and drops those at or below zero.
// It returns how many entries were forgotten.
func (s *Store) Decay(rate float64) int {
	kept := s.entries[:0]
	dropped := 0
	for _, e := range s.entries {
		if e.Kind == ShortTerm {
			e.Importance -= rate
			if e.Importance <= 0 {
				dropped++
				continue
			}
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return dropped
}

func (s *Store) All() []Entry { return append([]Entry(nil), s.entries...) }

func (s *Store) Len() int { return len(s.entries) }
