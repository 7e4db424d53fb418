package app

import "github.com/fd1az/options-arb/business/trading/domain"

// SelectArb picks the arb to attempt. The current policy takes the first
// candidate in source order; cfg is accepted so filtering can be added
// without changing callers.
func SelectArb(candidates []domain.Arb, cfg domain.StrategyConfig) (domain.Arb, bool) {
	if len(candidates) == 0 {
		return domain.Arb{}, false
	}
	return candidates[0], true
}
