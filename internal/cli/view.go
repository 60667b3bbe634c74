package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/models"
	"github.com/boomslang777/ram2/internal/trade"
)

// addViewCommands adds the read-only view commands.
func addViewCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newPnLCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "View open positions",
		Long:  "Display all open positions with P&L and available actions.",
		Example: `  ram2 positions
  ram2 positions --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			positions, err := app.Client.GetPositions(ctx)
			if err != nil {
				output.Error("Failed to get positions: %v", err)
				return err
			}
			app.Cache.SetPositions(positions)

			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Info("No open positions")
				return nil
			}
			displayPositions(output, positions)
			return nil
		},
	}
}

func displayPositions(output *Output, positions []models.Position) {
	output.Bold("Open Positions")
	output.Printf("  %d positions\n\n", len(positions))

	table := NewTable(output, "Symbol", "Type", "Qty", "Avg Cost", "Mkt Price", "Unrealized", "Daily", "Actions")
	for _, p := range positions {
		table.AddRow(
			p.Contract.LocalSymbol,
			string(p.Contract.SecType),
			FormatQuantity(p.Position),
			FormatAvgCost(p.AvgCost, p.Contract.Multiplier),
			FormatUSD(p.MarketPrice),
			output.PnLString(p.UnrealizedPNL),
			output.PnLString(p.DailyPNL),
			actionHints(p),
		)
	}
	table.Render()
}

// actionHints lists the commands legal for a position, using the cover label
// for a buy against a short future.
func actionHints(p models.Position) string {
	hints := ""
	if trade.CanBuy(p) {
		hints += trade.BuyLabel(p)
	}
	if trade.CanSell(p) {
		if hints != "" {
			hints += " "
		}
		hints += "Sell"
	}
	if trade.CanClose(p) {
		if hints != "" {
			hints += " "
		}
		hints += "Close"
	}
	return hints
}

func newOrdersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "View working orders",
		Long:  "Display working orders. Orders in a terminal status are listed until the backend drops them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			orders, err := app.Client.GetOrders(ctx)
			if err != nil {
				output.Error("Failed to get orders: %v", err)
				return err
			}
			app.Cache.SetOrders(orders)

			if output.IsJSON() {
				return output.JSON(orders)
			}
			if len(orders) == 0 {
				output.Info("No working orders")
				return nil
			}
			displayOrders(output, orders)
			return nil
		},
	}
}

func displayOrders(output *Output, orders []models.Order) {
	output.Bold("Orders")
	output.Printf("  %d orders\n\n", len(orders))

	table := NewTable(output, "ID", "Symbol", "Action", "Qty", "Type", "Status", "Filled")
	for _, o := range orders {
		status := o.Status
		if o.IsTerminal() {
			status = output.ColoredString(ColorDim, status)
		}
		table.AddRow(
			fmt.Sprintf("%d", o.OrderID),
			o.Contract.LocalSymbol,
			string(o.Action),
			FormatQuantity(o.TotalQuantity),
			o.OrderType,
			status,
			FormatFill(o.Filled, o.Remaining),
		)
	}
	table.Render()
}

func newPnLCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pnl",
		Short: "View account P&L",
		Long: `Display the account P&L snapshot.

P&L has no pull endpoint; this command listens on the live feed until the
first snapshot arrives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			got := make(chan struct{}, 1)
			unsubscribe := app.Cache.Subscribe(func(key cache.Key) {
				if key == cache.KeyPnL {
					select {
					case got <- struct{}{}:
					default:
					}
				}
			})
			defer unsubscribe()

			app.Feed.Acquire()
			defer app.Feed.Release()

			select {
			case <-got:
			case <-time.After(15 * time.Second):
				output.Error("Timed out waiting for a P&L update from the live feed")
				return fmt.Errorf("no pnl update received")
			}

			pnl, _ := app.Cache.PnL()
			if output.IsJSON() {
				return output.JSON(pnl)
			}
			output.Bold("Account P&L")
			output.Printf("  Total:      %s\n", output.PnLString(pnl.TotalPnL))
			output.Printf("  Unrealized: %s\n", output.PnLString(pnl.UnrealizedPnL))
			output.Printf("  Realized:   %s\n", output.PnLString(pnl.RealizedPnL))
			output.Printf("  Daily:      %s\n", output.PnLString(pnl.DailyPnL))
			return nil
		},
	}
}

func newPriceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "price",
		Short: "View the underlying price and strike ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			price, err := app.Client.GetSpyPrice(ctx)
			if err != nil {
				output.Error("Failed to get SPY price: %v", err)
				return err
			}
			app.Cache.SetReferencePrice(price)

			ladder, ok := trade.Ladder(price)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"price":  price,
					"ladder": ladder,
				})
			}

			output.Bold("SPY %s", FormatUSD(price))
			if !ok {
				output.Warning("Strike ladder not yet available")
				return nil
			}
			output.Printf("  ATM:   %d\n", ladder.ATM)
			output.Printf("  Calls: %d / %d / %d\n", ladder.CallOTM[0], ladder.CallOTM[1], ladder.CallOTM[2])
			output.Printf("  Puts:  %d / %d / %d\n", ladder.PutOTM[0], ladder.PutOTM[1], ladder.PutOTM[2])
			return nil
		},
	}
}
