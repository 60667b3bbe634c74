// Package trade provides pure trading-rule checks that run before any
// command reaches the network.
package trade

import (
	"errors"
	"strconv"
	"strings"

	"github.com/boomslang777/ram2/internal/models"
)

// Validation errors. These are caught client-side and never dispatched.
var (
	ErrInvalidQuantity         = errors.New("quantity must be a positive whole number")
	ErrQuantityExceedsPosition = errors.New("sell quantity cannot exceed current position size for options")
	ErrSellNotAvailable        = errors.New("sell is not available for this position")
	ErrPositionFlat            = errors.New("position is already flat")
)

// ParseQuantity parses operator input into a strictly positive integer
// quantity. Anything else is ErrInvalidQuantity.
func ParseQuantity(input string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	return qty, nil
}

// ValidateBuy checks a buy command against a position. Buying is legal for
// options (opens or adds to a long) and for futures (adds to a long or covers
// a short), so only the quantity is checked.
func ValidateBuy(pos models.Position, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateSell checks a sell command against a position. Option positions can
// only be sold down to flat; futures sells are unrestricted and may flip the
// position short.
func ValidateSell(pos models.Position, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !CanSell(pos) {
		return ErrSellNotAvailable
	}
	if pos.Contract.IsOption() && float64(qty) > pos.AbsQuantity() {
		return ErrQuantityExceedsPosition
	}
	return nil
}

// ValidateClose checks a close command. Close is legal for any nonzero
// position regardless of sign or type.
func ValidateClose(pos models.Position) error {
	if pos.Position == 0 {
		return ErrPositionFlat
	}
	return nil
}

// CanBuy reports whether the buy action is offered for a position.
func CanBuy(pos models.Position) bool {
	return pos.Contract.IsOption() || pos.Contract.IsFuture()
}

// CanSell reports whether the sell action is offered for a position. Futures
// can always be sold; options only while long.
func CanSell(pos models.Position) bool {
	if pos.Contract.IsFuture() {
		return true
	}
	return pos.Contract.IsOption() && pos.IsLong()
}

// CanClose reports whether the close action is offered for a position.
func CanClose(pos models.Position) bool {
	return pos.Position != 0
}

// BuyLabel returns the display label for the buy action. A buy against a
// short future reduces the short, so it is labelled "Cover"; the command
// itself is unchanged.
func BuyLabel(pos models.Position) string {
	if pos.Contract.IsFuture() && pos.IsShort() {
		return "Cover"
	}
	return "Buy"
}
