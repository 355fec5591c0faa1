package betslip

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oddslab/wager-engine/pkg/wallet"
)

func testBalance(available string) wallet.Balance {
	avail, _ := decimal.NewFromString(available)
	return wallet.Balance{Available: avail}
}

func TestValidateEmptySlip(t *testing.T) {
	v := NewWagerValidator(nil)

	res := v.Validate(nil, BetTypeSingle, "10", testBalance("100"))
	if res.Valid || res.Reason != ReasonEmptySlip {
		t.Errorf("Expected EmptySlip, got %+v", res)
	}
}

func TestValidateParlayNeedsTwoLegs(t *testing.T) {
	v := NewWagerValidator(nil)
	sels := []Selection{testSelection("a", "ev1", MarketMoneyline, 150)}

	res := v.Validate(sels, BetTypeParlay, "10", testBalance("100"))
	if res.Valid || res.Reason != ReasonInsufficientLegs {
		t.Errorf("Expected InsufficientLegsForParlay, got %+v", res)
	}
}

func TestValidateAmbiguousSingle(t *testing.T) {
	v := NewWagerValidator(nil)
	sels := []Selection{
		testSelection("a", "ev1", MarketMoneyline, 150),
		testSelection("b", "ev2", MarketSpread, -110),
	}

	res := v.Validate(sels, BetTypeSingle, "10", testBalance("100"))
	if res.Valid || res.Reason != ReasonAmbiguousSingleWager {
		t.Errorf("Expected AmbiguousSingleWager, got %+v", res)
	}
}

func TestValidateInvalidStake(t *testing.T) {
	v := NewWagerValidator(nil)
	sels := []Selection{testSelection("a", "ev1", MarketMoneyline, 150)}

	for _, input := range []string{"", "abc", "0", "-5", "0.005"} {
		res := v.Validate(sels, BetTypeSingle, input, testBalance("100"))
		if res.Valid || res.Reason != ReasonInvalidStake {
			t.Errorf("Stake %q: expected InvalidStake, got %+v", input, res)
		}
	}
}

func TestValidateStakeOutOfRange(t *testing.T) {
	limits := &Limits{
		MinStake: decimal.NewFromInt(1),
		MaxStake: decimal.NewFromInt(500),
	}
	v := NewWagerValidator(limits)
	sels := []Selection{testSelection("a", "ev1", MarketMoneyline, 150)}

	for _, input := range []string{"0.50", "500.01", "10000"} {
		res := v.Validate(sels, BetTypeSingle, input, testBalance("100000"))
		if res.Valid || res.Reason != ReasonStakeOutOfRange {
			t.Errorf("Stake %q: expected StakeOutOfRange, got %+v", input, res)
		}
	}
}

func TestValidateInsufficientFunds(t *testing.T) {
	v := NewWagerValidator(nil)
	sels := []Selection{testSelection("a", "ev1", MarketMoneyline, 150)}

	res := v.Validate(sels, BetTypeSingle, "50", testBalance("49.99"))
	if res.Valid || res.Reason != ReasonInsufficientFunds {
		t.Errorf("Expected InsufficientFunds, got %+v", res)
	}
}

func TestValidateChecksShortCircuitInOrder(t *testing.T) {
	v := NewWagerValidator(nil)

	// Both the leg count and the stake are wrong; the leg check fires
	// first.
	sels := []Selection{testSelection("a", "ev1", MarketMoneyline, 150)}
	res := v.Validate(sels, BetTypeParlay, "bogus", testBalance("0"))
	if res.Reason != ReasonInsufficientLegs {
		t.Errorf("Expected InsufficientLegsForParlay first, got %s", res.Reason)
	}
}

func TestValidateSuccess(t *testing.T) {
	v := NewWagerValidator(nil)
	sels := []Selection{
		testSelection("a", "ev1", MarketMoneyline, 100),
		testSelection("b", "ev2", MarketSpread, -120),
	}

	res := v.Validate(sels, BetTypeParlay, "20", testBalance("100"))
	if !res.Valid {
		t.Fatalf("Expected valid result, got %+v", res)
	}
	wager := res.Wager
	if wager == nil {
		t.Fatal("Valid result must carry a wager")
	}
	assertDecimal(t, "stake", wager.Stake, "20")
	assertDecimal(t, "expected odds", wager.ExpectedOdds, "266.67")
	if len(wager.Selections) != 2 {
		t.Fatalf("Expected 2 copied selections, got %d", len(wager.Selections))
	}
	if wager.ClientRequestID != "" {
		t.Error("Validator must leave the request id for the submission")
	}

	// The wager holds a snapshot: mutating the input slice afterwards
	// must not leak into it.
	sels[0].Odds = -9999
	if wager.Selections[0].Odds != 100 {
		t.Error("Wager selections must be copied, not aliased")
	}
}
