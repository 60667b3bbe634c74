package models

import "encoding/json"

// Envelope is the tagged message frame received on the push channel.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// FeedData is the payload of a "data" envelope. Any field may be absent; an
// absent field must leave the corresponding cached value untouched, which is
// why slices stay nil (not empty) and scalars are pointers when not present.
type FeedData struct {
	Positions []Position `json:"positions"`
	Orders    []Order    `json:"orders"`
	PnL       *PnLUpdate `json:"pnl"`
	SpyPrice  *float64   `json:"spyPrice"`
}
