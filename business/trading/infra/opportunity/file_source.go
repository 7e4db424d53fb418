// Package opportunity supplies candidate arbs to the runner.
package opportunity

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/logger"
)

type legEntry struct {
	Provider string `mapstructure:"provider"`
	ID       string `mapstructure:"id"`
	Bid      string `mapstructure:"bid"`
	Ask      string `mapstructure:"ask"`
}

type arbEntry struct {
	Market     string    `mapstructure:"market"`
	Type       string    `mapstructure:"type"`
	Strike     string    `mapstructure:"strike"`
	Term       string    `mapstructure:"term"`
	Expiration time.Time `mapstructure:"expiration"`
	Amount     string    `mapstructure:"amount"`
	APY        string    `mapstructure:"apy"`
	Discount   string    `mapstructure:"discount"`
	Buy        legEntry  `mapstructure:"buy"`
	Sell       legEntry  `mapstructure:"sell"`
}

type fileContents struct {
	Opportunities []arbEntry `mapstructure:"opportunities"`
}

// FileSource reads candidate arbs from a YAML or JSON file. The file is
// re-read on every call so an operator or an external scanner can rewrite
// it while the runner is live.
type FileSource struct {
	path   string
	now    func() time.Time
	logger logger.LoggerInterface
}

// NewFileSource creates a FileSource for path. The format follows the
// file extension.
func NewFileSource(path string, log logger.LoggerInterface) *FileSource {
	return &FileSource{path: path, now: time.Now, logger: log}
}

// GetOpportunities implements app.OpportunitySource. Entries for other
// markets, excluded option types or past expiries are skipped; file order
// is preserved.
func (s *FileSource) GetOpportunities(ctx context.Context, market domain.Underlying, cfg domain.StrategyConfig) ([]domain.Arb, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperror.New(apperror.CodeOpportunitySource,
			apperror.WithContext(s.path), apperror.WithCause(err))
	}

	var contents fileContents
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&contents, hook); err != nil {
		return nil, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext(s.path), apperror.WithCause(err))
	}

	now := s.now()
	arbs := make([]domain.Arb, 0, len(contents.Opportunities))
	for i, e := range contents.Opportunities {
		arb, m, err := e.toArb()
		if err != nil {
			s.logger.Warn(ctx, "skipping malformed opportunity", "file", s.path, "index", i, "error", err)
			continue
		}
		if m != market {
			continue
		}
		if len(cfg.OptionTypes) > 0 && !slices.Contains(cfg.OptionTypes, arb.Type) {
			continue
		}
		if !arb.Expiration.IsZero() && !arb.Expiration.After(now) {
			continue
		}
		arbs = append(arbs, arb)
	}
	return arbs, nil
}

func (e arbEntry) toArb() (domain.Arb, domain.Underlying, error) {
	market, err := domain.ParseUnderlying(e.Market)
	if err != nil {
		return domain.Arb{}, "", err
	}
	typ, err := domain.ParseOptionType(e.Type)
	if err != nil {
		return domain.Arb{}, "", err
	}
	strike, err := decimal.NewFromString(e.Strike)
	if err != nil {
		return domain.Arb{}, "", fmt.Errorf("strike: %w", err)
	}

	buy, err := e.Buy.toInstrument(typ, strike, e)
	if err != nil {
		return domain.Arb{}, "", fmt.Errorf("buy: %w", err)
	}
	sell, err := e.Sell.toInstrument(typ, strike, e)
	if err != nil {
		return domain.Arb{}, "", fmt.Errorf("sell: %w", err)
	}

	return domain.Arb{
		Buy:        buy,
		Sell:       sell,
		Strike:     strike,
		Term:       e.Term,
		Expiration: e.Expiration,
		Amount:     optionalDecimal(e.Amount),
		APY:        optionalDecimal(e.APY),
		Discount:   optionalDecimal(e.Discount),
		Type:       typ,
	}, market, nil
}

func (l legEntry) toInstrument(typ domain.OptionType, strike decimal.Decimal, e arbEntry) (domain.Instrument, error) {
	provider, err := domain.ParseProvider(l.Provider)
	if err != nil {
		return domain.Instrument{}, err
	}
	if l.ID == "" {
		return domain.Instrument{}, fmt.Errorf("missing instrument id")
	}
	bid, ask := optionalDecimal(l.Bid), optionalDecimal(l.Ask)
	return domain.Instrument{
		Type:       typ,
		Bid:        bid,
		Ask:        ask,
		Mid:        bid.Add(ask).Div(decimal.NewFromInt(2)),
		Provider:   provider,
		Strike:     strike,
		Expiration: e.Expiration,
		Term:       e.Term,
		ID:         l.ID,
	}, nil
}

func optionalDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
