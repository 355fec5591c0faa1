package oddsmath

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToDecimalOdds(t *testing.T) {
	tests := []struct {
		american int
		want     string
	}{
		{100, "2"},
		{150, "2.5"},
		{-150, "1.6666666666666667"},
		{-110, "1.9090909090909091"},
		{200, "3"},
	}

	for _, tt := range tests {
		got, err := ToDecimalOdds(tt.american)
		if err != nil {
			t.Fatalf("ToDecimalOdds(%d) failed: %v", tt.american, err)
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("ToDecimalOdds(%d) = %s, want %s", tt.american, got, tt.want)
		}
	}
}

func TestToDecimalOddsZero(t *testing.T) {
	if _, err := ToDecimalOdds(0); err != ErrInvalidOdds {
		t.Errorf("Expected ErrInvalidOdds for 0, got %v", err)
	}
}

func TestFromDecimalOdds(t *testing.T) {
	tests := []struct {
		multiplier string
		want       string
	}{
		{"2.5", "150"},
		{"2", "100"},
		{"1.5", "-200"},
		{"3", "200"},
	}

	for _, tt := range tests {
		mult, _ := decimal.NewFromString(tt.multiplier)
		got, err := FromDecimalOdds(mult)
		if err != nil {
			t.Fatalf("FromDecimalOdds(%s) failed: %v", tt.multiplier, err)
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("FromDecimalOdds(%s) = %s, want %s", tt.multiplier, got, tt.want)
		}
	}
}

func TestFromDecimalOddsInvalid(t *testing.T) {
	for _, m := range []string{"1", "0.9", "0"} {
		mult, _ := decimal.NewFromString(m)
		if _, err := FromDecimalOdds(mult); err != ErrInvalidOdds {
			t.Errorf("FromDecimalOdds(%s): expected ErrInvalidOdds, got %v", m, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// American → decimal → American should return the original within a
	// cent of rounding tolerance.
	tolerance := decimal.NewFromFloat(0.01)

	for _, odds := range []int{100, 110, 150, 225, 1000, -110, -120, -150, -200, -350} {
		mult, err := ToDecimalOdds(odds)
		if err != nil {
			t.Fatalf("ToDecimalOdds(%d) failed: %v", odds, err)
		}
		back, err := FromDecimalOdds(mult)
		if err != nil {
			t.Fatalf("FromDecimalOdds failed for %d: %v", odds, err)
		}
		diff := back.Sub(decimal.NewFromInt(int64(odds))).Abs()
		if diff.GreaterThan(tolerance) {
			t.Errorf("Round trip for %d returned %s (diff %s)", odds, back, diff)
		}
	}
}

func TestPotentialProfit(t *testing.T) {
	tests := []struct {
		stake    string
		american int
		want     string
	}{
		{"10", 150, "15"},     // Scenario A
		{"10", -110, "9.09"},  // Scenario B
		{"100", 100, "100"},
		{"25", -250, "10"},
		{"0.01", 100, "0.01"},
	}

	for _, tt := range tests {
		stake, _ := decimal.NewFromString(tt.stake)
		got, err := PotentialProfit(stake, tt.american)
		if err != nil {
			t.Fatalf("PotentialProfit(%s, %d) failed: %v", tt.stake, tt.american, err)
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("PotentialProfit(%s, %d) = %s, want %s", tt.stake, tt.american, got, tt.want)
		}
	}
}

func TestPotentialProfitInvalidOdds(t *testing.T) {
	if _, err := PotentialProfit(decimal.NewFromInt(10), 0); err != ErrInvalidOdds {
		t.Errorf("Expected ErrInvalidOdds, got %v", err)
	}
}

func TestPotentialProfitPositiveAndMonotonic(t *testing.T) {
	for _, odds := range []int{100, 150, -110, -300, 500} {
		prev := decimal.Zero
		for _, s := range []int64{1, 5, 10, 50, 100} {
			profit, err := PotentialProfit(decimal.NewFromInt(s), odds)
			if err != nil {
				t.Fatalf("PotentialProfit failed: %v", err)
			}
			if profit.LessThanOrEqual(decimal.Zero) {
				t.Errorf("Profit for stake %d at %d should be positive, got %s", s, odds, profit)
			}
			if profit.LessThanOrEqual(prev) {
				t.Errorf("Profit at %d should increase with stake, got %s after %s", odds, profit, prev)
			}
			prev = profit
		}
	}
}

func TestCombineOddsSingleLegIdentity(t *testing.T) {
	for _, odds := range []int{150, -110, 100} {
		got, err := CombineOdds([]int{odds})
		if err != nil {
			t.Fatalf("CombineOdds failed: %v", err)
		}
		if !got.Equal(decimal.NewFromInt(int64(odds))) {
			t.Errorf("CombineOdds([%d]) = %s, want %d", odds, got, odds)
		}
	}
}

func TestCombineOddsParlay(t *testing.T) {
	// Scenario C: +100 and -120 → multipliers 2.00 × 1.8333 → +266.67.
	got, err := CombineOdds([]int{100, -120})
	if err != nil {
		t.Fatalf("CombineOdds failed: %v", err)
	}
	want, _ := decimal.NewFromString("266.67")
	if !got.Equal(want) {
		t.Errorf("CombineOdds([+100, -120]) = %s, want %s", got, want)
	}

	// $20 on the combined odds pays $73.33 total.
	profit, err := PotentialProfitAt(decimal.NewFromInt(20), got)
	if err != nil {
		t.Fatalf("PotentialProfitAt failed: %v", err)
	}
	payout := decimal.NewFromInt(20).Add(profit)
	wantPayout, _ := decimal.NewFromString("73.33")
	if !payout.Equal(wantPayout) {
		t.Errorf("Parlay payout = %s, want %s", payout, wantPayout)
	}
}

func TestCombineOddsCommutative(t *testing.T) {
	pairs := [][2]int{{100, -120}, {150, 150}, {-110, 225}, {-200, -150}}
	for _, p := range pairs {
		ab, err := CombineOdds([]int{p[0], p[1]})
		if err != nil {
			t.Fatalf("CombineOdds failed: %v", err)
		}
		ba, err := CombineOdds([]int{p[1], p[0]})
		if err != nil {
			t.Fatalf("CombineOdds failed: %v", err)
		}
		if !ab.Equal(ba) {
			t.Errorf("CombineOdds not commutative for %v: %s vs %s", p, ab, ba)
		}
	}
}

func TestCombineOddsErrors(t *testing.T) {
	if _, err := CombineOdds(nil); err != ErrNoLegs {
		t.Errorf("Expected ErrNoLegs for empty list, got %v", err)
	}
	if _, err := CombineOdds([]int{150, 0}); err != ErrInvalidOdds {
		t.Errorf("Expected ErrInvalidOdds for zero leg, got %v", err)
	}
}

func TestRoundAmerican(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"266.67", 267},
		{"150", 150},
		{"-110.4", -110},
	}
	for _, tt := range tests {
		in, _ := decimal.NewFromString(tt.in)
		if got := RoundAmerican(in); got != tt.want {
			t.Errorf("RoundAmerican(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
