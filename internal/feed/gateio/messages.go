// internal/feed/gateio/messages.go

// Package gateio implements market-data collaborators for the gate.io
// v4 API: a websocket client streaming spot ticker updates and a REST
// client discovering the tradable pair universe.
package gateio

import (
	"encoding/json"
	"fmt"
)

const (
	channelTickers = "spot.tickers"
	channelPing    = "spot.ping"
	channelPong    = "spot.pong"

	eventSubscribe = "subscribe"
	eventUpdate    = "update"
)

// wsRequest is an outbound v4 websocket frame: subscriptions and
// application-level pings share the same envelope.
type wsRequest struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event,omitempty"`
	Payload []string `json:"payload,omitempty"`
}

// wsFrame is the envelope of every inbound v4 frame. Result stays raw
// until the channel and event identify its shape.
type wsFrame struct {
	Time    int64           `json:"time"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Error   *wsError        `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return fmt.Sprintf("gateio: code %d: %s", e.Code, e.Message)
}

// subscribeResult is the acknowledgement payload of a subscribe event.
type subscribeResult struct {
	Status string `json:"status"`
}

// CurrencyPair is one listing from GET /spot/currency_pairs, reduced to
// the fields universe discovery needs.
type CurrencyPair struct {
	ID          string `json:"id"`
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	Fee         string `json:"fee"`
	TradeStatus string `json:"trade_status"`
}
