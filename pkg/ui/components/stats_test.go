package components

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStats_Record(t *testing.T) {
	var s Stats
	s.Record("COMPLETED", decimal.NewFromInt(5))
	s.Record("COMPLETED", decimal.RequireFromString("-1.5"))
	s.Record("ABORTED", decimal.NewFromInt(99))
	s.Record("PARTIAL", decimal.NewFromInt(99))

	if s.Attempts != 4 || s.Completed != 2 || s.Aborted != 1 || s.Partial != 1 {
		t.Errorf("counters = %+v", s)
	}
	if !s.PnL.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("PnL = %s, want 3.5", s.PnL)
	}
}

func TestLegsComponent_BoundedAndNewestFirst(t *testing.T) {
	l := NewLegsComponent(3, 2)
	for i := 1; i <= 5; i++ {
		l.Add(LegRow{Leg: i})
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if l.rows[0].Leg != 5 {
		t.Errorf("newest = %d, want 5", l.rows[0].Leg)
	}

	l.ScrollDown()
	l.ScrollDown()
	if l.offset != 1 {
		t.Errorf("offset = %d, want 1", l.offset)
	}
	l.ScrollUp()
	l.ScrollUp()
	if l.offset != 0 {
		t.Errorf("offset = %d, want 0", l.offset)
	}
}

func TestStatusComponent_Update(t *testing.T) {
	s := NewStatusComponent()
	s.Update(VenueStatus{Name: "DERIBIT", Ready: false})
	s.Update(VenueStatus{Name: "LYRA", Ready: true})
	s.Update(VenueStatus{Name: "DERIBIT", Ready: true, Note: "testnet"})

	if len(s.venues) != 2 {
		t.Fatalf("venues = %d, want 2", len(s.venues))
	}
	if !s.venues[0].Ready || s.venues[0].Note != "testnet" {
		t.Errorf("DERIBIT = %+v", s.venues[0])
	}
}
