package reporter

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/pkg/ui"
)

// TUIReporter forwards legs and attempt summaries to the dashboard.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter sends through send, or ui.Send when send is nil.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

func (r *TUIReporter) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	_ domain.StrategyConfig, legNumber int, isBuyLeg, isLastLeg bool) {
	r.send(ui.LegMsg{
		AttemptID: app.AttemptFromContext(ctx),
		Label:     arb.Label(),
		LegNumber: legNumber,
		Side:      side(isBuyLeg),
		Provider:  string(result.Provider),
		Success:   result.IsSuccess,
		Price:     result.PricePerOption,
		Reason:    result.FailReason,
		Last:      isLastLeg,
		At:        time.Now(),
	})
	if unhedged(result, isBuyLeg) {
		r.send(ui.LogMsg{Level: "error", Message: "unhedged position on " + string(arb.Buy.Provider) + " " + arb.Buy.ID})
	}
}

// OnExecution implements app.ExecutionObserver.
func (r *TUIReporter) OnExecution(_ context.Context, exec domain.Execution) {
	r.send(ui.ExecutionMsg{
		AttemptID: exec.AttemptID,
		Label:     exec.Arb.Label(),
		Status:    string(exec.Status),
		PnL:       app.PnL(exec),
		Duration:  exec.Duration,
	})
}

// VenueStatus publishes whether a venue is usable.
func (r *TUIReporter) VenueStatus(name string, ready bool, note string) {
	r.send(ui.VenueStatusMsg{Name: name, Ready: ready, Note: note})
}
