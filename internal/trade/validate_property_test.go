package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/boomslang777/ram2/internal/models"
)

func optionPosition(qty float64) models.Position {
	return models.Position{
		Contract: models.Contract{
			ConID:       711111111,
			Symbol:      "SPY",
			SecType:     models.SecTypeOption,
			Multiplier:  100,
			LocalSymbol: "SPY 250117C00600000",
		},
		Position: qty,
	}
}

func futurePosition(qty float64) models.Position {
	return models.Position{
		Contract: models.Contract{
			ConID:       620731015,
			Symbol:      "MES",
			SecType:     models.SecTypeFuture,
			Multiplier:  5,
			LocalSymbol: "MESH6",
		},
		Position: qty,
	}
}

// Property: An option sell passes validation exactly when the quantity is a
// positive integer no greater than the held quantity. A short option position
// can never be sold into, so opening or deepening an option short is
// impossible through validation.
func TestProperty_OptionSellBoundedByPosition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	heldGen := gen.IntRange(-10, 10)
	qtyGen := gen.IntRange(-5, 20)

	properties.Property("option sell valid iff 1 <= qty <= held", prop.ForAll(
		func(held, qty int) bool {
			pos := optionPosition(float64(held))
			err := ValidateSell(pos, qty)

			expectValid := held > 0 && qty >= 1 && qty <= held
			if expectValid {
				return err == nil
			}
			return err != nil
		},
		heldGen,
		qtyGen,
	))

	properties.TestingRun(t)
}

// Property: A futures sell is accepted for any positive quantity regardless
// of the current position sign, because futures may flip short.
func TestProperty_FutureSellUnrestricted(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("future sell accepts any positive qty", prop.ForAll(
		func(held, qty int) bool {
			pos := futurePosition(float64(held))
			err := ValidateSell(pos, qty)
			if qty >= 1 {
				return err == nil
			}
			return errors.Is(err, ErrInvalidQuantity)
		},
		gen.IntRange(-10, 10),
		gen.IntRange(-5, 20),
	))

	properties.TestingRun(t)
}

// Property: Buy validation only rejects non-positive quantities; the position
// sign and security type never block a buy.
func TestProperty_BuyOnlyChecksQuantity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("buy valid iff qty >= 1", prop.ForAll(
		func(held, qty int, future bool) bool {
			pos := optionPosition(float64(held))
			if future {
				pos = futurePosition(float64(held))
			}
			err := ValidateBuy(pos, qty)
			if qty >= 1 {
				return err == nil
			}
			return errors.Is(err, ErrInvalidQuantity)
		},
		gen.IntRange(-10, 10),
		gen.IntRange(-5, 20),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestValidateSellShortOption(t *testing.T) {
	pos := optionPosition(-2)
	if err := ValidateSell(pos, 1); !errors.Is(err, ErrSellNotAvailable) {
		t.Errorf("expected ErrSellNotAvailable for short option sell, got %v", err)
	}
}

func TestValidateClose(t *testing.T) {
	if err := ValidateClose(optionPosition(0)); !errors.Is(err, ErrPositionFlat) {
		t.Errorf("expected ErrPositionFlat for flat position, got %v", err)
	}
	if err := ValidateClose(futurePosition(-3)); err != nil {
		t.Errorf("expected short future close to be valid, got %v", err)
	}
	if err := ValidateClose(optionPosition(5)); err != nil {
		t.Errorf("expected long option close to be valid, got %v", err)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		input string
		want  int
		ok    bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseQuantity(tc.input)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("ParseQuantity(%q) = %d, %v; want %d, nil", tc.input, got, err, tc.want)
			}
		} else if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("ParseQuantity(%q) = %d, %v; want ErrInvalidQuantity", tc.input, got, err)
		}
	}
}

func TestBuyLabel(t *testing.T) {
	if got := BuyLabel(futurePosition(-1)); got != "Cover" {
		t.Errorf("short future buy label = %q, want Cover", got)
	}
	if got := BuyLabel(futurePosition(1)); got != "Buy" {
		t.Errorf("long future buy label = %q, want Buy", got)
	}
	if got := BuyLabel(optionPosition(-1)); got != "Buy" {
		t.Errorf("short option buy label = %q, want Buy", got)
	}
}

func TestCanSell(t *testing.T) {
	if !CanSell(futurePosition(-2)) {
		t.Error("short future should be sellable")
	}
	if !CanSell(optionPosition(3)) {
		t.Error("long option should be sellable")
	}
	if CanSell(optionPosition(-3)) {
		t.Error("short option should not be sellable")
	}
}
