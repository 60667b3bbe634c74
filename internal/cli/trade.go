package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/dialog"
	"github.com/boomslang777/ram2/internal/models"
)

// addTradeCommands adds the mutating trade commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuyCmd(app))
	rootCmd.AddCommand(newSellCmd(app))
	rootCmd.AddCommand(newCloseCmd(app))
	rootCmd.AddCommand(newCancelCmd(app))
	rootCmd.AddCommand(newQuickTradeCmd(app))
}

// resolvePosition pulls fresh positions into the cache and resolves the
// target by contract id.
func resolvePosition(ctx context.Context, app *App, arg string) (models.Position, error) {
	conID, err := strconv.Atoi(arg)
	if err != nil {
		return models.Position{}, fmt.Errorf("invalid contract id %q", arg)
	}
	positions, err := app.Client.GetPositions(ctx)
	if err != nil {
		return models.Position{}, err
	}
	app.Cache.SetPositions(positions)
	pos, ok := app.Cache.PositionByConID(conID)
	if !ok {
		return models.Position{}, fmt.Errorf("no open position with contract id %d", conID)
	}
	return pos, nil
}

// runDialog drives the buy/sell dialog for a one-shot command: open with the
// current position snapshot, record the quantity, submit.
func runDialog(ctx context.Context, app *App, output *Output, side dialog.Side, pos models.Position, qty string) error {
	d := dialog.New(app.Coordinator)
	d.Open(side, pos)

	if max, bounded := d.MaxSellQuantity(); bounded {
		output.Dim("%s (max %d)", d.Title(), max)
	} else {
		output.Dim("%s", d.Title())
	}

	d.SetQuantity(qty)
	if err := d.Submit(ctx); err != nil {
		d.Cancel()
		return err
	}
	return nil
}

func newBuyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <conId> <quantity>",
		Short: "Buy against an open position",
		Long: `Place a buy order against an open position.

For a short futures position this is a cover. Futures accept any positive
quantity; options accept any positive quantity as the position is long.`,
		Example: `  ram2 buy 712511162 2
  ram2 buy 620731015 1   # cover a short MES position`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := runDialog(ctx, app, output, dialog.SideBuy, pos, args[1]); err != nil {
				output.Error("Buy rejected: %v", err)
				return err
			}
			output.Success("Buy order submitted for %s x%s", pos.Contract.LocalSymbol, args[1])
			return nil
		},
	}
}

func newSellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <conId> <quantity>",
		Short: "Sell part of an open position",
		Long: `Place a sell order against an open position.

Option sells are capped at the held quantity; opening a short option position
is not allowed. Futures sells are unrestricted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := runDialog(ctx, app, output, dialog.SideSell, pos, args[1]); err != nil {
				output.Error("Sell rejected: %v", err)
				return err
			}
			output.Success("Sell order submitted for %s x%s", pos.Contract.LocalSymbol, args[1])
			return nil
		},
	}
}

func newCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close <conId>",
		Short: "Close an open position at market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := app.Coordinator.ClosePosition(ctx, pos); err != nil {
				output.Error("Close rejected: %v", err)
				return err
			}
			output.Success("Close submitted for %s", pos.Contract.LocalSymbol)
			return nil
		},
	}
}

func newCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <orderId>",
		Short: "Cancel a working order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			orderID, err := strconv.Atoi(args[0])
			if err != nil {
				output.Error("Invalid order id %q", args[0])
				return err
			}

			orders, err := app.Client.GetOrders(ctx)
			if err != nil {
				output.Error("Failed to get orders: %v", err)
				return err
			}
			app.Cache.SetOrders(orders)

			var target *models.Order
			for i := range orders {
				if orders[i].OrderID == orderID {
					target = &orders[i]
					break
				}
			}
			if target == nil {
				err := fmt.Errorf("no order with id %d", orderID)
				output.Error("%v", err)
				return err
			}

			if err := app.Coordinator.CancelOrder(ctx, *target); err != nil {
				output.Error("Cancel rejected: %v", err)
				return err
			}
			output.Success("Cancel submitted for order %d (%s)", target.OrderID, target.Contract.LocalSymbol)
			return nil
		},
	}
}

func newQuickTradeCmd(app *App) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "quicktrade <buy|sell> <SPY|MES>",
		Short: "Open a fresh position via the quick-trade path",
		Long: `Send a quick-trade signal to open a new position.

SPY quick trades buy options on the configured strike ladder; MES quick
trades trade the front-month future. Quantity defaults to the configured
per-symbol default.`,
		Example: `  ram2 quicktrade buy SPY
  ram2 quicktrade sell MES --quantity 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			action := strings.ToLower(args[0])
			if action != "buy" && action != "sell" {
				err := fmt.Errorf("action must be buy or sell, got %q", args[0])
				output.Error("%v", err)
				return err
			}
			symbol := strings.ToUpper(args[1])
			if symbol != "SPY" && symbol != "MES" {
				err := fmt.Errorf("symbol must be SPY or MES, got %q", args[1])
				output.Error("%v", err)
				return err
			}

			// Pull settings so the trading gate and default quantity reflect
			// the server record.
			if settings, err := app.Client.GetSettings(ctx); err == nil {
				app.Cache.SetSettings(settings)
			}

			qty := quantity
			if qty == 0 {
				settings, ok := app.Cache.Settings()
				if !ok {
					settings = models.DefaultSettings()
				}
				qty = settings.DefaultQuantityFor(symbol)
			}

			sigType := "OPTION"
			if symbol == "MES" {
				sigType = "FUTURES"
			}
			sig := models.Signal{
				Action:     strings.ToUpper(action),
				Instrument: symbol,
				Symbol:     symbol,
				Quantity:   qty,
				Type:       sigType,
			}
			if err := app.Coordinator.QuickTrade(ctx, sig); err != nil {
				output.Error("Quick trade rejected: %v", err)
				return err
			}
			output.Success("Quick trade submitted: %s %s x%d", strings.ToUpper(action), symbol, qty)
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "override the configured default quantity")
	return cmd
}
