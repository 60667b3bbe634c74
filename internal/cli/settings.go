package cli

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/boomslang777/ram2/internal/models"
)

var squareOffTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// addSettingsCommands adds the settings subcommand tree.
func addSettingsCommands(rootCmd *cobra.Command, app *App) {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View and edit trading settings",
		Long: `View and edit the server-side trading settings record.

Settings are read-modify-write: every edit persists the whole record. The
edited value stays visible locally while the round trip is pending.`,
	}
	settingsCmd.AddCommand(newSettingsShowCmd(app))
	settingsCmd.AddCommand(newSettingsSetCmd(app))
	rootCmd.AddCommand(settingsCmd)
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			settings, err := app.Client.GetSettings(ctx)
			if err != nil {
				output.Error("Failed to get settings: %v", err)
				return err
			}
			app.Cache.SetSettings(settings)

			if output.IsJSON() {
				return output.JSON(settings)
			}
			displaySettings(output, settings)
			return nil
		},
	}
}

func displaySettings(output *Output, s models.Settings) {
	output.Bold("Trading Settings")
	enabled := output.ColoredString(ColorGreen, "enabled")
	if !s.TradingEnabled {
		enabled = output.ColoredString(ColorRed, "disabled")
	}
	output.Printf("  trading:                 %s\n", enabled)
	output.Printf("  spy_quantity:            %d\n", s.SPYQuantity)
	output.Printf("  mes_quantity:            %d\n", s.MESQuantity)
	output.Printf("  dte:                     %d\n", s.DTE)
	output.Printf("  otm_strikes:             %d\n", s.OTMStrikes)
	output.Printf("  call_strike_selection:   %s\n", s.CallStrikeSelection)
	output.Printf("  put_strike_selection:    %s\n", s.PutStrikeSelection)
	if t, ok := s.EffectiveSquareOffTime(); ok {
		output.Printf("  auto_square_off:         %s\n", t)
	} else {
		output.Printf("  auto_square_off:         off\n")
	}
}

// settingsSetters maps field names to mutations, validating the value before
// touching the record.
var settingsSetters = map[string]func(*models.Settings, string) error{
	"trading_enabled": func(s *models.Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("trading_enabled must be true or false")
		}
		s.TradingEnabled = b
		return nil
	},
	"spy_quantity": func(s *models.Settings, v string) error {
		n, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("spy_quantity must be a positive integer")
		}
		s.SPYQuantity = n
		return nil
	},
	"mes_quantity": func(s *models.Settings, v string) error {
		n, err := parsePositiveInt(v)
		if err != nil {
			return fmt.Errorf("mes_quantity must be a positive integer")
		}
		s.MESQuantity = n
		return nil
	},
	"dte": func(s *models.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("dte must be a non-negative integer")
		}
		s.DTE = n
		return nil
	},
	"otm_strikes": func(s *models.Settings, v string) error {
		n, err := parsePositiveInt(v)
		if err != nil || n > 3 {
			return fmt.Errorf("otm_strikes must be between 1 and 3")
		}
		s.OTMStrikes = n
		return nil
	},
	"call_strike_selection": func(s *models.Settings, v string) error {
		if !validStrikeSelection(v) {
			return fmt.Errorf("call_strike_selection must be one of ATM, OTM-1, OTM-2, OTM-3")
		}
		s.CallStrikeSelection = v
		return nil
	},
	"put_strike_selection": func(s *models.Settings, v string) error {
		if !validStrikeSelection(v) {
			return fmt.Errorf("put_strike_selection must be one of ATM, OTM-1, OTM-2, OTM-3")
		}
		s.PutStrikeSelection = v
		return nil
	},
	"auto_square_off_enabled": func(s *models.Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("auto_square_off_enabled must be true or false")
		}
		s.AutoSquareOffEnabled = b
		return nil
	},
	"auto_square_off_time": func(s *models.Settings, v string) error {
		if !squareOffTimePattern.MatchString(v) {
			return fmt.Errorf("auto_square_off_time must be HH:MM (24h)")
		}
		s.AutoSquareOffTime = v
		return nil
	},
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

func validStrikeSelection(v string) bool {
	switch v {
	case models.StrikeATM, models.StrikeOTM1, models.StrikeOTM2, models.StrikeOTM3:
		return true
	}
	return false
}

func newSettingsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Set one settings field",
		Long: `Set a single settings field and persist the record.

Fields: trading_enabled, spy_quantity, mes_quantity, dte, otm_strikes,
call_strike_selection, put_strike_selection, auto_square_off_enabled,
auto_square_off_time.`,
		Example: `  ram2 settings set trading_enabled false
  ram2 settings set call_strike_selection OTM-1
  ram2 settings set auto_square_off_time 15:45`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			setter, ok := settingsSetters[args[0]]
			if !ok {
				err := fmt.Errorf("unknown settings field %q", args[0])
				output.Error("%v", err)
				return err
			}

			// Validate the value before any network work.
			var scratch models.Settings
			if err := setter(&scratch, args[1]); err != nil {
				output.Error("%v", err)
				return err
			}

			// Seed the editor from the server record so a single-field set
			// does not clobber fields edited elsewhere.
			if settings, err := app.Client.GetSettings(ctx); err == nil {
				app.Cache.SetSettings(settings)
			}

			err := app.Settings.Update(ctx, func(s *models.Settings) {
				setter(s, args[1])
			})
			if err != nil {
				output.Error("Failed to update settings: %v", err)
				return err
			}

			if settings, ok := app.Settings.Current(); ok {
				if output.IsJSON() {
					return output.JSON(settings)
				}
				output.Success("Updated %s", args[0])
				displaySettings(output, settings)
			}
			return nil
		},
	}
}
