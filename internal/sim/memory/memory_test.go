package memory

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestRecallSortsByImportance(t *testing.T) {
	s := New()
	s.Add("met a dragon", ShortTerm, 3, t0)
	s.Add("Dragon economics", LongTerm, 8, t0)
	s.Add("quiet evening", ShortTerm, 9, t0)
	s.Add("another dragon", ShortTerm, 3, t0)

	got := s.Recall("DRAGON")
	if len(got) != 3 {
		t.Fatalf("recall=%v", got)
	}
	if got[0].Content != "Dragon economics" || got[1].Content != "met a dragon" || got[2].Content != "another dragon" {
		t.Fatalf("order=%v", got)
	}
}

func TestDecayEvictsShortTermOnly(t *testing.T) {
	s := New()
	s.Add("fleeting", ShortTerm, 2, t0)
	s.Add("lasting", LongTerm, 1, t0)
	s.Add("medium", ShortTerm, 5, t0)

	if n := s.Decay(1); n != 0 {
		t.Fatalf("first decay dropped %d", n)
	}
	if n := s.Decay(1); n != 1 {
		t.Fatalf("second decay dropped %d", n)
	}
	all := s.All()
	if len(all) != 2 || all[0].Content != "lasting" || all[1].Importance != 3 {
		t.Fatalf("after decay: %+v", all)
	}
	for i := 0; i < 10; i++ {
		s.Decay(1)
	}
	if s.Len() != 1 || s.All()[0].Kind != LongTerm {
		t.Fatalf("long-term entry lost: %+v", s.All())
	}
}

func TestAddCapsImportance(t *testing.T) {
	s := New()
	e := s.Add("x", LongTerm, 99, t0)
	if e.Importance != MaxImportance || e.ID != 1 {
		t.Fatalf("entry=%+v", e)
	}
}
