package deribit

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	methodAuth = "/public/auth"
	methodBuy  = "/private/buy"
	methodSell = "/private/sell"

	grantClientCredentials = "client_credentials"
	orderTypeMarket        = "market"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is an error object returned by the exchange.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("deribit error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("deribit error %d: %s", e.Code, e.Message)
}

type authParams struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

type orderParams struct {
	InstrumentName string      `json:"instrument_name"`
	Amount         json.Number `json:"amount"`
	Type           string      `json:"type"`
	Label          string      `json:"label,omitempty"`
}

// OrderResult is the response to /private/buy and /private/sell.
type OrderResult struct {
	Order  *OrderInfo `json:"order"`
	Trades *[]Trade   `json:"trades"`
}

// OrderInfo is the subset of the order object that is logged.
type OrderInfo struct {
	OrderID        string           `json:"order_id"`
	OrderState     string           `json:"order_state"`
	InstrumentName string           `json:"instrument_name"`
	Direction      string           `json:"direction"`
	FilledAmount   *decimal.Decimal `json:"filled_amount"`
	AveragePrice   *decimal.Decimal `json:"average_price"`
}

// Trade is one fill. Option prices are quoted in the underlying; multiply by
// IndexPrice for the quote-currency value.
type Trade struct {
	TradeID        string           `json:"trade_id"`
	InstrumentName string           `json:"instrument_name"`
	Direction      string           `json:"direction"`
	Amount         *decimal.Decimal `json:"amount"`
	Price          *decimal.Decimal `json:"price"`
	IndexPrice     *decimal.Decimal `json:"index_price"`
}
