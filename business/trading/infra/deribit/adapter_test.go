package deribit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/options-arb/business/trading/domain"
	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/config"
	"github.com/fd1az/options-arb/internal/logger"
)

const (
	authOK      = `{"access_token":"tok","expires_in":900,"token_type":"bearer"}`
	filledOrder = `{"order":{"order_id":"1","order_state":"filled"},"trades":[{"trade_id":"t1","price":"0.05","index_price":"1800","amount":"0.01"}]}`
)

type fakeSession struct {
	mu      sync.Mutex
	results map[string]string
	errs    map[string]error
	calls   []string
	params  []any
	closes  int
}

func (s *fakeSession) Call(_ context.Context, method string, params, result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, method)
	s.params = append(s.params, params)

	if err, ok := s.errs[method]; ok {
		return err
	}
	raw, ok := s.results[method]
	if !ok {
		return apperror.New(apperror.CodeMalformedResponse, apperror.WithContext(method+": empty result"))
	}
	return json.Unmarshal([]byte(raw), result)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

type dialRecorder struct {
	session *fakeSession
	err     error
	urls    []string
}

func (d *dialRecorder) dial(_ context.Context, url string) (Session, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func newTestAdapter(t *testing.T, d *dialRecorder) *Adapter {
	t.Helper()
	a, err := NewAdapter(Config{
		URL:          "wss://deribit.test/ws/api/v2",
		ClientID:     "id",
		ClientSecret: "secret",
		Testnet:      true,
	}, d.dial, logger.NewNop())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	return a
}

func buyArgs() domain.TradeArgs {
	return domain.TradeArgs{
		Provider:     domain.ProviderDeribit,
		Market:       domain.ETH,
		Type:         domain.Put,
		InstrumentID: "ETH-30DEC22-1500-P",
		Strike:       decimal.NewFromInt(1500),
		Size:         decimal.RequireFromString("0.01"),
		IsBuy:        true,
	}
}

func TestAdapter_Execute(t *testing.T) {
	rejected := &RPCError{Code: 10009, Message: "not_enough_funds"}

	tests := []struct {
		name      string
		results   map[string]string
		errs      map[string]error
		wantOK    bool
		wantPrice string
		wantCode  apperror.Code
		wantCalls int
	}{
		{
			name:      "filled",
			results:   map[string]string{methodAuth: authOK, methodBuy: filledOrder},
			wantOK:    true,
			wantPrice: "90",
			wantCalls: 2,
		},
		{
			name:      "auth rejected",
			errs:      map[string]error{methodAuth: &RPCError{Code: 13004, Message: "invalid_credentials"}},
			wantCode:  apperror.CodeAuthenticationFailed,
			wantCalls: 1,
		},
		{
			name:      "auth without token",
			results:   map[string]string{methodAuth: `{"access_token":""}`},
			wantCode:  apperror.CodeAuthenticationFailed,
			wantCalls: 1,
		},
		{
			name:      "order rejected",
			results:   map[string]string{methodAuth: authOK},
			errs:      map[string]error{methodBuy: rejected},
			wantCode:  apperror.CodeOrderRejected,
			wantCalls: 2,
		},
		{
			name:      "no trades",
			results:   map[string]string{methodAuth: authOK, methodBuy: `{"order":{"order_state":"cancelled"},"trades":[]}`},
			wantCode:  apperror.CodeOrderRejected,
			wantCalls: 2,
		},
		{
			name:      "trades field missing",
			results:   map[string]string{methodAuth: authOK, methodBuy: `{"order":{"order_state":"open"}}`},
			wantCode:  apperror.CodeMalformedResponse,
			wantCalls: 2,
		},
		{
			name:      "trade without index price",
			results:   map[string]string{methodAuth: authOK, methodBuy: `{"trades":[{"price":"0.05"}]}`},
			wantCode:  apperror.CodeMalformedResponse,
			wantCalls: 2,
		},
		{
			name:      "empty order result",
			results:   map[string]string{methodAuth: authOK},
			wantCode:  apperror.CodeMalformedResponse,
			wantCalls: 2,
		},
		{
			name:      "transport failure during order",
			results:   map[string]string{methodAuth: authOK},
			errs:      map[string]error{methodBuy: apperror.New(apperror.CodeWebSocketClosed)},
			wantCode:  apperror.CodeConnectionError,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{results: tt.results, errs: tt.errs}
			d := &dialRecorder{session: sess}
			a := newTestAdapter(t, d)

			got := a.Execute(context.Background(), buyArgs())

			if got.IsSuccess != tt.wantOK {
				t.Fatalf("IsSuccess = %v, want %v (reason %q)", got.IsSuccess, tt.wantOK, got.FailReason)
			}
			if got.Provider != domain.ProviderDeribit {
				t.Errorf("Provider = %v", got.Provider)
			}
			if tt.wantOK {
				if !got.PricePerOption.Equal(decimal.RequireFromString(tt.wantPrice)) {
					t.Errorf("PricePerOption = %s, want %s", got.PricePerOption, tt.wantPrice)
				}
			} else {
				if got.FailCode != tt.wantCode {
					t.Errorf("FailCode = %v, want %v", got.FailCode, tt.wantCode)
				}
				if !got.PricePerOption.IsZero() {
					t.Errorf("failed leg price = %s, want 0", got.PricePerOption)
				}
			}
			if len(sess.calls) != tt.wantCalls {
				t.Errorf("calls = %v, want %d", sess.calls, tt.wantCalls)
			}
			if sess.closes != 1 {
				t.Errorf("session closed %d times, want 1", sess.closes)
			}
		})
	}
}

func TestAdapter_Execute_SideSelectsMethod(t *testing.T) {
	for _, isBuy := range []bool{true, false} {
		sess := &fakeSession{results: map[string]string{
			methodAuth: authOK, methodBuy: filledOrder, methodSell: filledOrder,
		}}
		a := newTestAdapter(t, &dialRecorder{session: sess})

		args := buyArgs()
		args.IsBuy = isBuy
		if got := a.Execute(context.Background(), args); !got.IsSuccess {
			t.Fatalf("isBuy=%v: %s", isBuy, got.FailReason)
		}

		want := "/private/sell"
		if isBuy {
			want = "/private/buy"
		}
		if sess.calls[0] != "/public/auth" {
			t.Errorf("auth method = %s", sess.calls[0])
		}
		if sess.calls[1] != want {
			t.Errorf("isBuy=%v: method = %s, want %s", isBuy, sess.calls[1], want)
		}

		p, ok := sess.params[1].(orderParams)
		if !ok {
			t.Fatalf("params type = %T", sess.params[1])
		}
		if p.InstrumentName != "ETH-30DEC22-1500-P" || p.Type != orderTypeMarket || p.Amount.String() != "0.01" {
			t.Errorf("order params = %+v", p)
		}
	}
}

func TestAdapter_Execute_AuthUsesClientCredentials(t *testing.T) {
	sess := &fakeSession{results: map[string]string{methodAuth: authOK, methodBuy: filledOrder}}
	a := newTestAdapter(t, &dialRecorder{session: sess})

	a.Execute(context.Background(), buyArgs())

	p, ok := sess.params[0].(authParams)
	if !ok {
		t.Fatalf("auth params type = %T", sess.params[0])
	}
	if p.GrantType != grantClientCredentials || p.ClientID != "id" || p.ClientSecret != "secret" {
		t.Errorf("auth params = %+v", p)
	}
}

func TestAdapter_Execute_DialFailure(t *testing.T) {
	d := &dialRecorder{err: errors.New("connection refused")}
	a := newTestAdapter(t, d)

	got := a.Execute(context.Background(), buyArgs())
	if got.IsSuccess || got.FailCode != apperror.CodeConnectionError {
		t.Errorf("result = %+v, want CONNECTION_ERROR failure", got)
	}
}

func TestAdapter_Execute_MissingCredentialsSkipsDial(t *testing.T) {
	d := &dialRecorder{session: &fakeSession{}}
	a, err := NewAdapter(Config{Testnet: true}, d.dial, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	got := a.Execute(context.Background(), buyArgs())
	if got.IsSuccess || got.FailCode != apperror.CodeMissingCredentials {
		t.Errorf("result = %+v, want MISSING_CREDENTIALS", got)
	}
	if len(d.urls) != 0 {
		t.Errorf("dialled %v without credentials", d.urls)
	}
}

func TestAdapter_Execute_InvalidSize(t *testing.T) {
	d := &dialRecorder{session: &fakeSession{}}
	a := newTestAdapter(t, d)

	args := buyArgs()
	args.Size = decimal.Zero
	got := a.Execute(context.Background(), args)
	if got.IsSuccess || got.FailCode != apperror.CodeInvalidInput {
		t.Errorf("result = %+v, want INVALID_INPUT", got)
	}
	if len(d.urls) != 0 {
		t.Error("dialled for an invalid order")
	}
}

func TestNewAdapter_DefaultURL(t *testing.T) {
	tests := []struct {
		testnet bool
		want    string
	}{
		{testnet: true, want: TestnetURL},
		{testnet: false, want: MainnetURL},
	}
	for _, tt := range tests {
		d := &dialRecorder{session: &fakeSession{results: map[string]string{methodAuth: authOK, methodBuy: filledOrder}}}
		a, err := NewAdapter(Config{ClientID: "id", ClientSecret: "s", Testnet: tt.testnet}, d.dial, logger.NewNop())
		if err != nil {
			t.Fatal(err)
		}
		a.Execute(context.Background(), buyArgs())
		if len(d.urls) != 1 || d.urls[0] != tt.want {
			t.Errorf("testnet=%v: dialled %v, want %s", tt.testnet, d.urls, tt.want)
		}
	}
}

func TestConfigFrom_SelectsNetwork(t *testing.T) {
	base := config.DeribitConfig{
		URL:                 MainnetURL,
		TestnetURL:          TestnetURL,
		ClientID:            "main-id",
		ClientSecret:        "main-secret",
		TestnetClientID:     "test-id",
		TestnetClientSecret: "test-secret",
	}

	test := base
	test.Testnet = true
	got := ConfigFrom(test)
	if got.URL != TestnetURL || got.ClientID != "test-id" || got.ClientSecret != "test-secret" {
		t.Errorf("testnet config = %+v", got)
	}

	got = ConfigFrom(base)
	if got.URL != MainnetURL || got.ClientID != "main-id" || got.ClientSecret != "main-secret" {
		t.Errorf("mainnet config = %+v", got)
	}
}
