package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
)

var (
	filledStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	failedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

const rule = "--------------------------------------------------------------------------------"

// ConsoleReporter prints a block per leg and a summary per attempt.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter writes to w, or stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	strategy domain.StrategyConfig, legNumber int, isBuyLeg, isLastLeg bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst := leg(arb, isBuyLeg)
	status := filledStyle.Render("FILLED")
	if !result.IsSuccess {
		status = failedStyle.Render("FAILED")
	}

	var b strings.Builder
	fmt.Fprintln(&b, "")
	fmt.Fprintf(&b, "LEG %d/%s  %s  %s\n", legNumber, strings.ToUpper(side(isBuyLeg)), status, mutedStyle.Render(app.AttemptFromContext(ctx)))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Arb:            %s\n", arb.Label())
	fmt.Fprintf(&b, "Provider:       %s\n", result.Provider)
	fmt.Fprintf(&b, "Instrument:     %s\n", inst.ID)
	fmt.Fprintf(&b, "Size:           %s %s\n", strategy.TradeSize.String(), strategy.Market)
	if result.IsSuccess {
		fmt.Fprintf(&b, "Price:          $%s\n", result.PricePerOption.StringFixed(4))
	} else {
		fmt.Fprintf(&b, "Code:           %s\n", result.FailCode)
		fmt.Fprintf(&b, "Reason:         %s\n", result.FailReason)
	}
	if unhedged(result, isBuyLeg) {
		fmt.Fprintln(&b, failedStyle.Render("UNHEDGED: buy leg filled, close the position manually"))
	}
	if isLastLeg {
		fmt.Fprintln(&b, rule)
	}
	fmt.Fprint(r.out, b.String())
}

// OnExecution prints the attempt summary.
func (r *ConsoleReporter) OnExecution(_ context.Context, exec domain.Execution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	style := failedStyle
	if exec.Status == domain.StatusCompleted {
		style = filledStyle
	}
	line := fmt.Sprintf("%s %s in %s", exec.Arb.Label(), style.Render(string(exec.Status)), exec.Duration.Round(time.Millisecond))
	if exec.Status == domain.StatusCompleted {
		line += fmt.Sprintf("  PnL $%s", app.PnL(exec).StringFixed(2))
	}
	fmt.Fprintln(r.out, line)
}
