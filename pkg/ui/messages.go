// Package ui provides the Bubble Tea dashboard for the trade orchestrator.
package ui

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegMsg is sent after every executed leg.
type LegMsg struct {
	AttemptID string
	Label     string
	LegNumber int
	Side      string
	Provider  string
	Success   bool
	Price     decimal.Decimal
	Reason    string
	Last      bool
	At        time.Time
}

// ExecutionMsg summarises a finished attempt.
type ExecutionMsg struct {
	AttemptID string
	Label     string
	Status    string // COMPLETED, ABORTED, PARTIAL
	PnL       decimal.Decimal
	Duration  time.Duration
}

// VenueStatusMsg reports whether a venue is usable.
type VenueStatusMsg struct {
	Name  string
	Ready bool
	Note  string
}

// LogMsg is sent to display a log line in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
