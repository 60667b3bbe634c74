package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/client"
	"github.com/boomslang777/ram2/internal/models"
	"github.com/boomslang777/ram2/internal/trade"
)

// backend is a scriptable fake of the trading server.
type backend struct {
	mutations atomic.Int32 // POSTs to trading endpoints
	pulls     atomic.Int32 // GETs to pull endpoints

	positions []models.Position
	orders    []models.Order
	settings  models.Settings

	failMutations bool
}

func (b *backend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			b.pulls.Add(1)
			switch r.URL.Path {
			case "/api/positions":
				json.NewEncoder(w).Encode(b.positions)
			case "/api/orders":
				json.NewEncoder(w).Encode(b.orders)
			case "/api/settings":
				json.NewEncoder(w).Encode(b.settings)
			case "/api/spy-price":
				io.WriteString(w, `{"price":600.0}`)
			default:
				http.NotFound(w, r)
			}
			return
		}

		b.mutations.Add(1)
		if b.failMutations {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"detail":"rejected by server"}`)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/api/settings") {
			var s models.Settings
			json.NewDecoder(r.Body).Decode(&s)
			b.settings = s
			json.NewEncoder(w).Encode(s)
			return
		}
		io.WriteString(w, `{"status":"success","order_id":1}`)
	})
}

func newTestStack(t *testing.T, b *backend) (*Coordinator, *cache.Cache) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	ca := cache.New(zerolog.Nop())
	cl := client.New(client.Config{BaseURL: srv.URL}, zerolog.Nop())
	co := New(cl, ca, nil, zerolog.Nop())
	co.RegisterRefreshers()
	return co, ca
}

func shortFuture() models.Position {
	return models.Position{
		Contract: models.Contract{
			ConID:       620731015,
			Symbol:      "MES",
			SecType:     models.SecTypeFuture,
			LocalSymbol: "MESH6",
		},
		Position: -2,
	}
}

func longOption(qty float64) models.Position {
	return models.Position{
		Contract: models.Contract{
			ConID:       711111111,
			Symbol:      "SPY",
			SecType:     models.SecTypeOption,
			LocalSymbol: "SPY 250117C00600000",
		},
		Position: qty,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestBuyValidationNeverDispatches(t *testing.T) {
	b := &backend{}
	co, _ := newTestStack(t, b)

	err := co.Buy(context.Background(), longOption(2), 0)
	if !errors.Is(err, trade.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if b.mutations.Load() != 0 {
		t.Errorf("rejected command reached the network: %d requests", b.mutations.Load())
	}
}

func TestSellShortOptionNeverDispatches(t *testing.T) {
	b := &backend{}
	co, _ := newTestStack(t, b)

	err := co.Sell(context.Background(), longOption(-2), 1)
	if !errors.Is(err, trade.ErrSellNotAvailable) {
		t.Fatalf("expected ErrSellNotAvailable, got %v", err)
	}
	if b.mutations.Load() != 0 {
		t.Errorf("rejected command reached the network: %d requests", b.mutations.Load())
	}
}

// A buy against a short future is a cover and must dispatch. Success
// invalidates positions and orders so the authoritative result is re-pulled.
func TestBuyCoverDispatchesAndRefreshes(t *testing.T) {
	b := &backend{
		positions: []models.Position{shortFuture()},
	}
	co, ca := newTestStack(t, b)

	if err := co.Buy(context.Background(), shortFuture(), 2); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if b.mutations.Load() != 1 {
		t.Errorf("mutations = %d, want 1", b.mutations.Load())
	}

	waitFor(t, 2*time.Second, func() bool {
		_, okPos := ca.Positions()
		_, okOrd := ca.Orders()
		return okPos && okOrd
	})
	if ca.IsStale(cache.KeyPositions) || ca.IsStale(cache.KeyOrders) {
		t.Error("keys should be fresh after the post-command pull")
	}
}

func TestFailedCommandLeavesCacheUntouched(t *testing.T) {
	b := &backend{failMutations: true}
	co, ca := newTestStack(t, b)

	seed := []models.Position{longOption(2)}
	ca.SetPositions(seed)
	pullsBefore := b.pulls.Load()

	err := co.Sell(context.Background(), longOption(2), 1)
	var se *client.ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}

	positions, _ := ca.Positions()
	if len(positions) != 1 || positions[0].Position != 2 {
		t.Errorf("cache mutated on failure: %v", positions)
	}
	// Failure must not trigger a refresh pull.
	time.Sleep(50 * time.Millisecond)
	if b.pulls.Load() != pullsBefore {
		t.Errorf("failed command triggered %d pulls", b.pulls.Load()-pullsBefore)
	}
}

func TestCancelTerminalOrderRejected(t *testing.T) {
	b := &backend{}
	co, _ := newTestStack(t, b)

	order := models.Order{
		OrderID:  9,
		Contract: models.Contract{ConID: 1, LocalSymbol: "SPY 250117C00600000"},
		Status:   "Filled",
	}
	if err := co.CancelOrder(context.Background(), order); err == nil {
		t.Fatal("expected error cancelling a terminal order")
	}
	if b.mutations.Load() != 0 {
		t.Errorf("terminal cancel reached the network: %d requests", b.mutations.Load())
	}
}

func TestQuickTradeBlockedWhileDisabled(t *testing.T) {
	b := &backend{}
	co, ca := newTestStack(t, b)

	settings := models.DefaultSettings()
	settings.TradingEnabled = false
	ca.SetSettings(settings)

	sig := models.Signal{Action: "BUY", Instrument: "SPY", Symbol: "SPY", Quantity: 1, Type: "OPTION"}
	if err := co.QuickTrade(context.Background(), sig); !errors.Is(err, ErrTradingDisabled) {
		t.Fatalf("expected ErrTradingDisabled, got %v", err)
	}
	if b.mutations.Load() != 0 {
		t.Errorf("blocked quick trade reached the network: %d requests", b.mutations.Load())
	}
}

func TestQuickTradeDispatchesWhileEnabled(t *testing.T) {
	b := &backend{settings: models.DefaultSettings()}
	co, ca := newTestStack(t, b)
	ca.SetSettings(b.settings)

	sig := models.Signal{Action: "SELL", Instrument: "MES", Symbol: "MES", Quantity: 2, Type: "FUTURES"}
	if err := co.QuickTrade(context.Background(), sig); err != nil {
		t.Fatalf("QuickTrade: %v", err)
	}
	if b.mutations.Load() != 1 {
		t.Errorf("mutations = %d, want 1", b.mutations.Load())
	}
}

func TestSendSignalZeroQuantity(t *testing.T) {
	b := &backend{}
	co, _ := newTestStack(t, b)

	sig := models.Signal{Action: "BUY", Symbol: "SPY", Quantity: 0, Type: "OPTION"}
	if err := co.SendSignal(context.Background(), sig); !errors.Is(err, trade.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if b.mutations.Load() != 0 {
		t.Errorf("invalid signal reached the network")
	}
}
