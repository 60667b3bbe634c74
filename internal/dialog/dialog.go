// Package dialog implements the per-command buy/sell dialog flow: select a
// target position, collect a quantity, validate, submit, resolve.
package dialog

import (
	"context"

	"github.com/boomslang777/ram2/internal/coordinator"
	"github.com/boomslang777/ram2/internal/models"
	"github.com/boomslang777/ram2/internal/trade"
)

// State is the dialog's lifecycle state.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

// Side selects the command the dialog submits.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Dialog drives one buy or sell flow. Opening captures the selected position
// by value at that instant: the dialog validates and submits against that
// snapshot even if the cached position changes mid-interaction. This trades
// strict freshness for deterministic dialog behavior and is intentional.
type Dialog struct {
	co *coordinator.Coordinator

	state    State
	side     Side
	snapshot models.Position
	quantity string
	err      error
}

// New creates a closed dialog bound to the coordinator.
func New(co *coordinator.Coordinator) *Dialog {
	return &Dialog{co: co, state: StateClosed}
}

// State returns the current state.
func (d *Dialog) State() State { return d.state }

// Side returns the side the dialog was opened for.
func (d *Dialog) Side() Side { return d.side }

// Position returns the position snapshot captured at open.
func (d *Dialog) Position() models.Position { return d.snapshot }

// Err returns the error from the last failed submit, if the dialog is open
// with an error.
func (d *Dialog) Err() error { return d.err }

// Title returns the display title, using the cover label for a buy against a
// short future.
func (d *Dialog) Title() string {
	if d.side == SideBuy {
		return trade.BuyLabel(d.snapshot) + " " + d.snapshot.Contract.LocalSymbol
	}
	return "Sell " + d.snapshot.Contract.LocalSymbol
}

// MaxSellQuantity returns the upper bound shown for option sells, and false
// when the side or security type imposes no bound.
func (d *Dialog) MaxSellQuantity() (int, bool) {
	if d.side == SideSell && d.snapshot.Contract.IsOption() {
		return int(d.snapshot.AbsQuantity()), true
	}
	return 0, false
}

// Open captures the position snapshot and enters the Open state. Opening an
// already open dialog replaces the snapshot and clears prior input.
func (d *Dialog) Open(side Side, pos models.Position) {
	if d.state == StateSubmitting {
		return
	}
	d.state = StateOpen
	d.side = side
	d.snapshot = pos
	d.quantity = ""
	d.err = nil
}

// SetQuantity records the operator's quantity input.
func (d *Dialog) SetQuantity(input string) {
	if d.state != StateOpen {
		return
	}
	d.quantity = input
	d.err = nil
}

// Quantity returns the current quantity input.
func (d *Dialog) Quantity() string { return d.quantity }

// Cancel discards the quantity field and returns to Closed with no side
// effects. It is legal from Open and after a failed submit.
func (d *Dialog) Cancel() {
	if d.state == StateSubmitting {
		return
	}
	d.state = StateClosed
	d.quantity = ""
	d.err = nil
}

// Submit validates the quantity against the open snapshot and dispatches the
// command. Success closes the dialog; failure returns it to Open holding the
// error so the operator can correct and retry. Submit while a submit is in
// flight is a no-op: the per-dialog guard is the only in-flight exclusion.
func (d *Dialog) Submit(ctx context.Context) error {
	if d.state != StateOpen {
		return nil
	}

	qty, err := trade.ParseQuantity(d.quantity)
	if err != nil {
		d.err = err
		return err
	}

	// Re-validate against the snapshot, not a refetched position.
	switch d.side {
	case SideBuy:
		err = trade.ValidateBuy(d.snapshot, qty)
	case SideSell:
		err = trade.ValidateSell(d.snapshot, qty)
	}
	if err != nil {
		d.err = err
		return err
	}

	d.state = StateSubmitting
	switch d.side {
	case SideBuy:
		err = d.co.Buy(ctx, d.snapshot, qty)
	case SideSell:
		err = d.co.Sell(ctx, d.snapshot, qty)
	}

	if err != nil {
		d.state = StateOpen
		d.err = err
		return err
	}
	d.state = StateClosed
	d.quantity = ""
	d.err = nil
	return nil
}
