package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

func dashboard(t *testing.T) Model {
	t.Helper()
	m, _ := New().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	got := m.(Model)
	if got.phase != PhaseDashboard {
		t.Fatalf("phase = %s, want dashboard", got.phase)
	}
	return got
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_WelcomeStartsModulesOnce(t *testing.T) {
	calls := make(chan struct{}, 4)
	OnStartModules = func() { calls <- struct{}{} }
	defer func() { OnStartModules = nil }()

	m := New()
	m.welcomeStart = time.Now().Add(-WelcomeDuration)
	m = update(m, TickMsg{})
	m = update(m, TickMsg{})
	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})

	if m.phase != PhaseDashboard {
		t.Fatalf("phase = %s", m.phase)
	}
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("OnStartModules not called")
	}
	select {
	case <-calls:
		t.Fatal("OnStartModules called twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModel_TracksAttempts(t *testing.T) {
	m := dashboard(t)

	m = update(m, LegMsg{AttemptID: "a1", Label: "7d 1500 PUT", LegNumber: 1, Side: "buy", Provider: "LYRA", Success: true, Price: decimal.NewFromInt(100), At: time.Now()})
	if _, ok := m.inFlight["a1"]; !ok {
		t.Fatal("attempt not in flight after first leg")
	}

	m = update(m, LegMsg{AttemptID: "a1", LegNumber: 2, Side: "sell", Provider: "DERIBIT", Reason: "order rejected", Last: true, At: time.Now()})
	m = update(m, ExecutionMsg{AttemptID: "a1", Label: "7d 1500 PUT", Status: "PARTIAL"})

	if len(m.inFlight) != 0 {
		t.Errorf("inFlight = %v, want empty", m.inFlight)
	}
	if m.legs.Len() != 2 {
		t.Errorf("legs = %d, want 2", m.legs.Len())
	}
	stats := m.stats.Stats()
	if stats.Attempts != 1 || stats.Partial != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if m.lastStatus != "PARTIAL" || !strings.Contains(m.View(), "PARTIAL") {
		t.Errorf("last status = %q, want PARTIAL shown in the status bar", m.lastStatus)
	}
	if !strings.Contains(m.View(), "order rejected") {
		t.Error("view does not show the failed leg reason")
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if m.legs.Len() != 0 {
		t.Errorf("legs after clear = %d", m.legs.Len())
	}
}

func TestModel_KeepsLastErrors(t *testing.T) {
	m := dashboard(t)
	for i := range 5 {
		m = update(m, ErrorMsg{Error: fmt.Errorf("boom %d", i)})
	}
	m = update(m, ErrorMsg{})

	if len(m.errors) != maxErrors {
		t.Fatalf("errors = %d, want %d", len(m.errors), maxErrors)
	}
	if m.errors[0].Message != "boom 2" {
		t.Errorf("oldest kept = %q", m.errors[0].Message)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if len(m.errors) != 0 {
		t.Error("errors not cleared")
	}
}

func TestModel_Quit(t *testing.T) {
	m := New()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !next.(Model).quitting {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command did not produce QuitMsg")
	}
}

func TestSend_WithoutProgram(t *testing.T) {
	Program = nil
	Send(ErrorMsg{Error: errors.New("ignored")})
}
