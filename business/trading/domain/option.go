// Package domain contains the core types of the options arbitrage context.
package domain

import (
	"fmt"
	"strings"
)

// OptionType is the option right.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// ParseOptionType accepts CALL/PUT in any case, plus the single-letter
// suffixes used in exchange instrument names.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return Call, nil
	case "PUT", "P":
		return Put, nil
	}
	return "", fmt.Errorf("unknown option type %q", s)
}

// IsCall reports whether t is a call.
func (t OptionType) IsCall() bool { return t == Call }

// Provider identifies the venue an instrument trades on.
type Provider string

const (
	ProviderLyra    Provider = "LYRA"
	ProviderDeribit Provider = "DERIBIT"
)

// ParseProvider normalises a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProviderLyra, ProviderDeribit:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

func (p Provider) String() string { return string(p) }

// Underlying is the market an option is written on.
type Underlying string

const (
	ETH Underlying = "ETH"
	BTC Underlying = "BTC"
	SOL Underlying = "SOL"
)

// ParseUnderlying normalises an underlying symbol.
func ParseUnderlying(s string) (Underlying, error) {
	switch u := Underlying(strings.ToUpper(strings.TrimSpace(s))); u {
	case ETH, BTC, SOL:
		return u, nil
	}
	return "", fmt.Errorf("unknown underlying %q", s)
}
