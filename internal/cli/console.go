package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/feed"
	"github.com/boomslang777/ram2/internal/trade"
)

// addConsoleCommand adds the live console command.
func addConsoleCommand(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newConsoleCmd(app))
}

func newConsoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Live trading console",
		Long: `Run the live trading console.

Positions, orders, P&L and the underlying price stream in over the push
connection and redraw in place. If the connection drops it reconnects
automatically. Press Ctrl+C to exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(app)
		},
	}
}

func runConsole(app *App) error {
	// Pushed updates mark the view dirty; the redraw ticker coalesces them so
	// a burst of frames paints once per interval.
	var dirty atomic.Bool
	unsubscribe := app.Cache.Subscribe(func(cache.Key) {
		dirty.Store(true)
	})
	defer unsubscribe()

	app.Feed.Acquire()
	defer func() {
		app.Feed.Release()
		app.Feed.Wait()
	}()

	// Seed everything the feed does not push unprompted.
	app.Cache.Invalidate(cache.KeyPositions)
	app.Cache.Invalidate(cache.KeyOrders)
	app.Cache.Invalidate(cache.KeyReferencePrice)
	app.Cache.Invalidate(cache.KeySettings)

	interval := app.Config.UI.RefreshInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	lastState := feed.State("")
	drawConsole(app)
	for {
		select {
		case <-sigCh:
			fmt.Println()
			return nil
		case <-ticker.C:
			state := app.Feed.State()
			if dirty.Swap(false) || state != lastState {
				lastState = state
				drawConsole(app)
			}
		}
	}
}

// drawConsole clears the screen and paints the full snapshot from the cache.
func drawConsole(app *App) {
	fmt.Print("\033[2J\033[H")

	drawStatusLine(app)
	fmt.Println()

	output := &Output{
		writer:       os.Stdout,
		colorEnabled: app.Config.UI.ColorEnabled,
	}

	if positions, ok := app.Cache.Positions(); ok && len(positions) > 0 {
		displayPositions(output, positions)
	} else {
		output.Info("No open positions")
	}
	fmt.Println()

	if orders, ok := app.Cache.Orders(); ok && len(orders) > 0 {
		displayOrders(output, orders)
	} else {
		output.Info("No working orders")
	}
	fmt.Println()

	if price, ok := app.Cache.ReferencePrice(); ok {
		if ladder, valid := trade.Ladder(price); valid {
			output.Printf("SPY %s  strikes %d | C %d/%d/%d | P %d/%d/%d\n",
				FormatUSD(price), ladder.ATM,
				ladder.CallOTM[0], ladder.CallOTM[1], ladder.CallOTM[2],
				ladder.PutOTM[0], ladder.PutOTM[1], ladder.PutOTM[2])
		} else {
			output.Printf("SPY %s\n", FormatUSD(price))
		}
	}

	output.Dim("Ctrl+C to exit")
}

// drawStatusLine paints the connection, P&L and trading-gate summary.
func drawStatusLine(app *App) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	if !app.Config.UI.ColorEnabled {
		color.NoColor = true
	}

	switch app.Feed.State() {
	case feed.StateOpen:
		green.Print("● LIVE")
	case feed.StateConnecting:
		yellow.Print("● CONNECTING")
	default:
		red.Print("● DISCONNECTED")
	}

	if pnl, ok := app.Cache.PnL(); ok {
		fmt.Print("   P&L ")
		if pnl.TotalPnL < 0 {
			red.Print(FormatUSD(pnl.TotalPnL))
		} else {
			green.Print(FormatUSD(pnl.TotalPnL))
		}
		fmt.Printf(" (daily %s)", FormatUSD(pnl.DailyPnL))
	}

	if settings, ok := app.Cache.Settings(); ok && !settings.TradingEnabled {
		fmt.Print("   ")
		red.Print("TRADING DISABLED")
	}
	fmt.Println()
}
