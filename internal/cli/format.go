package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatUSD formats a dollar amount with sign and two decimals.
func FormatUSD(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatQuantity renders a signed position quantity without trailing zeros.
func FormatQuantity(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}

// FormatAvgCost renders the per-unit average cost, dividing out the contract
// multiplier the way the backend reports option costs.
func FormatAvgCost(avgCost, multiplier float64) string {
	if multiplier > 1 {
		return FormatUSD(avgCost / multiplier)
	}
	return FormatUSD(avgCost)
}

// FormatFill summarizes filled/remaining quantities for an order row.
func FormatFill(filled, remaining float64) string {
	return strings.TrimSpace(fmt.Sprintf("%s/%s",
		strconv.FormatFloat(filled, 'f', -1, 64),
		strconv.FormatFloat(filled+remaining, 'f', -1, 64)))
}
