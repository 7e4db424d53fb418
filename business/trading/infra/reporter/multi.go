package reporter

import (
	"context"
	"io"

	"go.uber.org/multierr"

	"github.com/fd1az/options-arb/business/trading/app"
	"github.com/fd1az/options-arb/business/trading/domain"
)

// MultiReporter fans legs and attempt summaries out to every member, in
// registration order.
type MultiReporter struct {
	reporters []app.Reporter
}

// NewMultiReporter drops nil reporters.
func NewMultiReporter(reporters ...app.Reporter) *MultiReporter {
	m := &MultiReporter{}
	for _, r := range reporters {
		if r != nil {
			m.reporters = append(m.reporters, r)
		}
	}
	return m
}

// Add appends a reporter.
func (m *MultiReporter) Add(r app.Reporter) {
	if r != nil {
		m.reporters = append(m.reporters, r)
	}
}

// Len returns the number of members.
func (m *MultiReporter) Len() int {
	return len(m.reporters)
}

func (m *MultiReporter) ReportTrade(ctx context.Context, arb domain.Arb, result domain.TradeResult,
	strategy domain.StrategyConfig, legNumber int, isBuyLeg, isLastLeg bool) {
	for _, r := range m.reporters {
		r.ReportTrade(ctx, arb, result, strategy, legNumber, isBuyLeg, isLastLeg)
	}
}

// OnExecution forwards to members that observe executions.
func (m *MultiReporter) OnExecution(ctx context.Context, exec domain.Execution) {
	for _, r := range m.reporters {
		if o, ok := r.(app.ExecutionObserver); ok {
			o.OnExecution(ctx, exec)
		}
	}
}

// Close closes every member that holds resources.
func (m *MultiReporter) Close() error {
	var err error
	for _, r := range m.reporters {
		if c, ok := r.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
