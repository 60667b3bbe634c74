package models

// PnL is the account-level profit and loss snapshot.
type PnL struct {
	DailyPnL      float64 `json:"dailyPnL"`
	UnrealizedPnL float64 `json:"unrealizedPnL"`
	RealizedPnL   float64 `json:"realizedPnL"`
	TotalPnL      float64 `json:"totalPnL"`
}

// PnLUpdate is the wire shape of a pushed P&L update. Fields are pointers so
// an absent field can be told apart from an explicit zero.
type PnLUpdate struct {
	DailyPnL      *float64 `json:"dailyPnL"`
	UnrealizedPnL *float64 `json:"unrealizedPnL"`
	RealizedPnL   *float64 `json:"realizedPnL"`
	TotalPnL      *float64 `json:"totalPnL"`
}

// Merge applies the update on top of prev. Present fields fully replace the
// previous value; absent fields retain it (last-known-good per field).
func (u PnLUpdate) Merge(prev PnL) PnL {
	next := prev
	if u.DailyPnL != nil {
		next.DailyPnL = *u.DailyPnL
	}
	if u.UnrealizedPnL != nil {
		next.UnrealizedPnL = *u.UnrealizedPnL
	}
	if u.RealizedPnL != nil {
		next.RealizedPnL = *u.RealizedPnL
	}
	if u.TotalPnL != nil {
		next.TotalPnL = *u.TotalPnL
	}
	return next
}
