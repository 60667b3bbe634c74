package models

// Strike selection policies for option entries.
const (
	StrikeATM  = "ATM"
	StrikeOTM1 = "OTM-1"
	StrikeOTM2 = "OTM-2"
	StrikeOTM3 = "OTM-3"
)

// Settings is the single server-side settings record. It is read-modify-write:
// every field edit persists the whole record.
type Settings struct {
	TradingEnabled       bool   `json:"trading_enabled"`
	SPYQuantity          int    `json:"spy_quantity"`
	MESQuantity          int    `json:"mes_quantity"`
	DTE                  int    `json:"dte"` // 0 = today, 1 = tomorrow
	OTMStrikes           int    `json:"otm_strikes"`
	CallStrikeSelection  string `json:"call_strike_selection"`
	PutStrikeSelection   string `json:"put_strike_selection"`
	AutoSquareOffEnabled bool   `json:"auto_square_off_enabled"`
	AutoSquareOffTime    string `json:"auto_square_off_time"` // "HH:MM"
}

// DefaultSettings returns the settings used before the first server fetch.
func DefaultSettings() Settings {
	return Settings{
		TradingEnabled:       true,
		SPYQuantity:          1,
		MESQuantity:          1,
		DTE:                  0,
		OTMStrikes:           3,
		CallStrikeSelection:  StrikeATM,
		PutStrikeSelection:   StrikeATM,
		AutoSquareOffEnabled: true,
		AutoSquareOffTime:    "15:55",
	}
}

// EffectiveSquareOffTime returns the square-off time only while auto
// square-off is enabled. The stored record keeps the last-known time either
// way, so a disable/enable cycle round-trips the value.
func (s Settings) EffectiveSquareOffTime() (string, bool) {
	if !s.AutoSquareOffEnabled {
		return "", false
	}
	return s.AutoSquareOffTime, true
}

// DefaultQuantityFor returns the configured default quantity for a symbol.
func (s Settings) DefaultQuantityFor(symbol string) int {
	if symbol == "MES" {
		return s.MESQuantity
	}
	return s.SPYQuantity
}
