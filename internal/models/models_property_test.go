package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: Merging a P&L update replaces exactly the fields it carries and
// retains the previous value for every absent field.
func TestProperty_PnLMergePerField(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	valueGen := gen.Float64Range(-10000, 10000)

	properties.Property("present fields replace, absent fields retain", prop.ForAll(
		func(prevDaily, prevUnreal, prevReal, prevTotal float64,
			hasDaily, hasUnreal, hasReal, hasTotal bool, v float64) bool {
			prev := PnL{
				DailyPnL:      prevDaily,
				UnrealizedPnL: prevUnreal,
				RealizedPnL:   prevReal,
				TotalPnL:      prevTotal,
			}
			var update PnLUpdate
			if hasDaily {
				update.DailyPnL = &v
			}
			if hasUnreal {
				update.UnrealizedPnL = &v
			}
			if hasReal {
				update.RealizedPnL = &v
			}
			if hasTotal {
				update.TotalPnL = &v
			}

			next := update.Merge(prev)

			check := func(has bool, merged, old float64) bool {
				if has {
					return merged == v
				}
				return merged == old
			}
			return check(hasDaily, next.DailyPnL, prev.DailyPnL) &&
				check(hasUnreal, next.UnrealizedPnL, prev.UnrealizedPnL) &&
				check(hasReal, next.RealizedPnL, prev.RealizedPnL) &&
				check(hasTotal, next.TotalPnL, prev.TotalPnL)
		},
		valueGen, valueGen, valueGen, valueGen,
		gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(),
		valueGen,
	))

	properties.TestingRun(t)
}

func TestPnLUpdateZeroVsAbsent(t *testing.T) {
	prev := PnL{DailyPnL: 55}

	var update PnLUpdate
	if err := json.Unmarshal([]byte(`{"dailyPnL":0}`), &update); err != nil {
		t.Fatal(err)
	}
	if got := update.Merge(prev); got.DailyPnL != 0 {
		t.Errorf("explicit zero must replace: got %v", got.DailyPnL)
	}

	update = PnLUpdate{}
	if err := json.Unmarshal([]byte(`{}`), &update); err != nil {
		t.Fatal(err)
	}
	if got := update.Merge(prev); got.DailyPnL != 55 {
		t.Errorf("absent field must retain: got %v", got.DailyPnL)
	}
}

func TestOrderTerminalStatuses(t *testing.T) {
	terminal := []string{"Filled", "Cancelled", "Completed", "Inactive"}
	working := []string{"Submitted", "PreSubmitted", "PendingSubmit", "PendingCancel", ""}

	for _, status := range terminal {
		o := Order{Status: status}
		if !o.IsTerminal() {
			t.Errorf("%q should be terminal", status)
		}
		if o.CanCancel() {
			t.Errorf("%q should not be cancellable", status)
		}
	}
	for _, status := range working {
		o := Order{Status: status}
		if o.IsTerminal() {
			t.Errorf("%q should not be terminal", status)
		}
		if !o.CanCancel() {
			t.Errorf("%q should be cancellable", status)
		}
	}
}

func TestPositionSides(t *testing.T) {
	long := Position{Position: 3}
	short := Position{Position: -2}
	flat := Position{}

	if !long.IsLong() || long.IsShort() || long.AbsQuantity() != 3 {
		t.Errorf("long position helpers wrong: %+v", long)
	}
	if short.IsLong() || !short.IsShort() || short.AbsQuantity() != 2 {
		t.Errorf("short position helpers wrong: %+v", short)
	}
	if flat.IsLong() || flat.IsShort() || flat.AbsQuantity() != 0 {
		t.Errorf("flat position helpers wrong: %+v", flat)
	}
}

func TestFeedDataAbsentFieldsStayNil(t *testing.T) {
	var data FeedData
	if err := json.Unmarshal([]byte(`{"orders":[]}`), &data); err != nil {
		t.Fatal(err)
	}
	if data.Positions != nil {
		t.Error("absent positions must stay nil")
	}
	if data.Orders == nil || len(data.Orders) != 0 {
		t.Errorf("explicit empty orders must decode as empty non-nil: %v", data.Orders)
	}
	if data.PnL != nil || data.SpyPrice != nil {
		t.Error("absent scalar sections must stay nil")
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := DefaultSettings()
	if !s.TradingEnabled || s.SPYQuantity != 1 || s.MESQuantity != 1 {
		t.Errorf("defaults = %+v", s)
	}
	if s.AutoSquareOffTime != "15:55" {
		t.Errorf("square-off time default = %q", s.AutoSquareOffTime)
	}
	if s.DefaultQuantityFor("MES") != 1 || s.DefaultQuantityFor("SPY") != 1 {
		t.Error("default quantities wrong")
	}
}
