// Package models provides domain models for the operator console.
package models

// SecType identifies the security type of a contract.
type SecType string

const (
	SecTypeOption SecType = "OPT"
	SecTypeFuture SecType = "FUT"
)

// OrderAction represents the side of an order.
type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

// Contract identifies a tradeable instrument. Immutable once observed.
type Contract struct {
	ConID       int     `json:"conId"`
	Symbol      string  `json:"symbol"`
	SecType     SecType `json:"secType"`
	Multiplier  float64 `json:"multiplier,omitempty"`
	LocalSymbol string  `json:"localSymbol"`
	Exchange    string  `json:"exchange,omitempty"`
	Right       string  `json:"right,omitempty"`
	Strike      float64 `json:"strike,omitempty"`
}

// IsOption returns true for option contracts.
func (c Contract) IsOption() bool {
	return c.SecType == SecTypeOption
}

// IsFuture returns true for futures contracts.
func (c Contract) IsFuture() bool {
	return c.SecType == SecTypeFuture
}

// Position is an open position as reported by the backend. The signed
// quantity is positive for long and negative for short. Positions are only
// mutated by merging pushed or pulled snapshots, never by the UI.
type Position struct {
	Contract      Contract `json:"contract"`
	Position      float64  `json:"position"`
	AvgCost       float64  `json:"avgCost"`
	MarketPrice   float64  `json:"marketPrice"`
	UnrealizedPNL float64  `json:"unrealizedPNL"`
	DailyPNL      float64  `json:"dailyPNL"`
	RealizedPNL   float64  `json:"realizedPNL"`
}

// IsLong returns true when the position quantity is positive.
func (p Position) IsLong() bool {
	return p.Position > 0
}

// IsShort returns true when the position quantity is negative.
func (p Position) IsShort() bool {
	return p.Position < 0
}

// AbsQuantity returns the unsigned position size.
func (p Position) AbsQuantity() float64 {
	if p.Position < 0 {
		return -p.Position
	}
	return p.Position
}

// Order is a working or recently terminal order as reported by the backend.
type Order struct {
	OrderID       int         `json:"orderId"`
	Contract      Contract    `json:"contract"`
	Action        OrderAction `json:"action"`
	TotalQuantity float64     `json:"totalQuantity"`
	OrderType     string      `json:"orderType"`
	Status        string      `json:"status"`
	Filled        float64     `json:"filled"`
	Remaining     float64     `json:"remaining"`
	AvgFillPrice  float64     `json:"avgFillPrice"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
}

// Terminal order statuses. Orders in any other status are considered working.
var terminalStatuses = map[string]bool{
	"Filled":    true,
	"Cancelled": true,
	"Completed": true,
	"Inactive":  true,
}

// IsTerminal reports whether the order has reached a terminal status.
func (o Order) IsTerminal() bool {
	return terminalStatuses[o.Status]
}

// CanCancel reports whether a cancel command may be issued for the order.
func (o Order) CanCancel() bool {
	return !o.IsTerminal()
}

// Signal is the request shape shared by the signal and quick-trade endpoints.
type Signal struct {
	Action     string `json:"action"`
	Instrument string `json:"instrument"`
	Symbol     string `json:"symbol"`
	Quantity   int    `json:"quantity"`
	Type       string `json:"type"` // OPTION or FUTURES
}
