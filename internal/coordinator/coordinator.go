// Package coordinator dispatches validated trading commands to the backend
// and reconciles their results into the state cache. The server stays
// authoritative: success invalidates cache keys and forces a fresh pull
// instead of mutating cached state optimistically.
package coordinator

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/client"
	"github.com/boomslang777/ram2/internal/journal"
	"github.com/boomslang777/ram2/internal/logging"
	"github.com/boomslang777/ram2/internal/models"
	"github.com/boomslang777/ram2/internal/trade"
)

// ErrTradingDisabled is returned when a trade command is issued while the
// trading-enabled flag is off.
var ErrTradingDisabled = errors.New("trading is currently disabled")

// Coordinator issues request/response commands and owns their cache
// reconciliation. A command that fails validation never reaches the network.
type Coordinator struct {
	client  *client.Client
	cache   *cache.Cache
	journal *journal.Journal // optional
	log     zerolog.Logger
}

// New creates a coordinator. The journal may be nil.
func New(c *client.Client, ca *cache.Cache, j *journal.Journal, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		client:  c,
		cache:   ca,
		journal: j,
		log:     logging.WithComponent(log, "coordinator"),
	}
}

// RegisterRefreshers installs the pull paths for every key the backend can
// serve on demand. P&L has no pull endpoint and refreshes only via push.
func (co *Coordinator) RegisterRefreshers() {
	co.cache.RegisterRefresher(cache.KeyPositions, func(ctx context.Context) error {
		positions, err := co.client.GetPositions(ctx)
		if err != nil {
			return err
		}
		co.cache.SetPositions(positions)
		return nil
	})
	co.cache.RegisterRefresher(cache.KeyOrders, func(ctx context.Context) error {
		orders, err := co.client.GetOrders(ctx)
		if err != nil {
			return err
		}
		co.cache.SetOrders(orders)
		return nil
	})
	co.cache.RegisterRefresher(cache.KeyReferencePrice, func(ctx context.Context) error {
		price, err := co.client.GetSpyPrice(ctx)
		if err != nil {
			return err
		}
		co.cache.SetReferencePrice(price)
		return nil
	})
	co.cache.RegisterRefresher(cache.KeySettings, func(ctx context.Context) error {
		settings, err := co.client.GetSettings(ctx)
		if err != nil {
			return err
		}
		co.cache.SetSettings(settings)
		return nil
	})
}

// record writes a journal entry for a dispatched command. Validation
// rejections are not recorded because they never dispatch.
func (co *Coordinator) record(ctx context.Context, e journal.Entry, err error) {
	if co.journal == nil {
		return
	}
	switch {
	case err == nil:
		e.Outcome = journal.OutcomeAccepted
	case client.IsTransient(err):
		e.Outcome = journal.OutcomeFailed
		e.Detail = err.Error()
	default:
		e.Outcome = journal.OutcomeRejected
		e.Detail = err.Error()
	}
	if jerr := co.journal.Record(ctx, e); jerr != nil {
		co.log.Warn().Err(jerr).Msg("failed to journal command")
	}
}

// checkTradingEnabled mirrors the server-side gate so a disabled account is
// reported before the round trip. An unknown settings state does not block.
func (co *Coordinator) checkTradingEnabled() error {
	if s, ok := co.cache.Settings(); ok && !s.TradingEnabled {
		return ErrTradingDisabled
	}
	return nil
}

// Buy places a buy order against a position. On success the positions and
// orders keys are invalidated; the fresh pull carries the authoritative
// result.
func (co *Coordinator) Buy(ctx context.Context, pos models.Position, qty int) error {
	if err := trade.ValidateBuy(pos, qty); err != nil {
		return err
	}
	_, err := co.client.Buy(ctx, pos.Contract.ConID, qty)
	co.record(ctx, journal.Entry{
		Operation: "buy",
		TargetID:  pos.Contract.ConID,
		Symbol:    pos.Contract.LocalSymbol,
		Quantity:  qty,
	}, err)
	if err != nil {
		return err
	}
	co.cache.Invalidate(cache.KeyPositions)
	co.cache.Invalidate(cache.KeyOrders)
	return nil
}

// Sell places a sell order against a position.
func (co *Coordinator) Sell(ctx context.Context, pos models.Position, qty int) error {
	if err := trade.ValidateSell(pos, qty); err != nil {
		return err
	}
	_, err := co.client.Sell(ctx, pos.Contract.ConID, qty)
	co.record(ctx, journal.Entry{
		Operation: "sell",
		TargetID:  pos.Contract.ConID,
		Symbol:    pos.Contract.LocalSymbol,
		Quantity:  qty,
	}, err)
	if err != nil {
		return err
	}
	co.cache.Invalidate(cache.KeyPositions)
	co.cache.Invalidate(cache.KeyOrders)
	return nil
}

// ClosePosition requests a full market exit of a position. Close is distinct
// from sell: it exits by contract id, not by a quantity-scoped trade.
func (co *Coordinator) ClosePosition(ctx context.Context, pos models.Position) error {
	if err := trade.ValidateClose(pos); err != nil {
		return err
	}
	_, err := co.client.ClosePosition(ctx, pos.Contract.ConID)
	co.record(ctx, journal.Entry{
		Operation: "close",
		TargetID:  pos.Contract.ConID,
		Symbol:    pos.Contract.LocalSymbol,
	}, err)
	if err != nil {
		return err
	}
	co.cache.Invalidate(cache.KeyPositions)
	co.cache.Invalidate(cache.KeyOrders)
	return nil
}

// CancelOrder requests cancellation of a working order.
func (co *Coordinator) CancelOrder(ctx context.Context, order models.Order) error {
	if !order.CanCancel() {
		return errors.New("order is already in a terminal state")
	}
	_, err := co.client.CancelOrder(ctx, order.OrderID)
	co.record(ctx, journal.Entry{
		Operation: "cancel",
		TargetID:  order.OrderID,
		Symbol:    order.Contract.LocalSymbol,
	}, err)
	if err != nil {
		return err
	}
	co.cache.Invalidate(cache.KeyOrders)
	return nil
}

// QuickTrade submits a signal through the quick-trade alias.
func (co *Coordinator) QuickTrade(ctx context.Context, sig models.Signal) error {
	return co.sendSignal(ctx, sig, true)
}

// SendSignal submits a named trading signal.
func (co *Coordinator) SendSignal(ctx context.Context, sig models.Signal) error {
	return co.sendSignal(ctx, sig, false)
}

func (co *Coordinator) sendSignal(ctx context.Context, sig models.Signal, quick bool) error {
	if sig.Quantity <= 0 {
		return trade.ErrInvalidQuantity
	}
	if err := co.checkTradingEnabled(); err != nil {
		return err
	}
	operation := "signal"
	send := co.client.SendSignal
	if quick {
		operation = "quick-trade"
		send = co.client.QuickTrade
	}
	_, err := send(ctx, sig)
	co.record(ctx, journal.Entry{
		Operation: operation,
		Symbol:    sig.Symbol,
		Quantity:  sig.Quantity,
	}, err)
	if err != nil {
		return err
	}
	co.cache.Invalidate(cache.KeyPositions)
	co.cache.Invalidate(cache.KeyOrders)
	return nil
}
