package trade

import (
	"math"

	"github.com/boomslang777/ram2/internal/models"
)

// StrikeLadder holds the at-the-money strike and the first three
// out-of-the-money strikes on each side, derived from the underlying price.
type StrikeLadder struct {
	ATM     int
	CallOTM [3]int // OTM-1..3 above the money
	PutOTM  [3]int // OTM-1..3 below the money
}

// Ladder computes the strike ladder for an underlying price. It returns
// ok=false for a non-finite or non-positive price, meaning the ladder is not
// yet available.
func Ladder(price float64) (StrikeLadder, bool) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return StrikeLadder{}, false
	}
	atm := int(math.Round(price))
	l := StrikeLadder{ATM: atm}
	for k := 1; k <= 3; k++ {
		l.CallOTM[k-1] = atm + k
		l.PutOTM[k-1] = atm - k
	}
	return l, true
}

// CallStrike resolves a strike-selection policy to a call strike.
func (l StrikeLadder) CallStrike(selection string) int {
	switch selection {
	case models.StrikeOTM1:
		return l.CallOTM[0]
	case models.StrikeOTM2:
		return l.CallOTM[1]
	case models.StrikeOTM3:
		return l.CallOTM[2]
	default:
		return l.ATM
	}
}

// PutStrike resolves a strike-selection policy to a put strike.
func (l StrikeLadder) PutStrike(selection string) int {
	switch selection {
	case models.StrikeOTM1:
		return l.PutOTM[0]
	case models.StrikeOTM2:
		return l.PutOTM[1]
	case models.StrikeOTM3:
		return l.PutOTM[2]
	default:
		return l.ATM
	}
}
