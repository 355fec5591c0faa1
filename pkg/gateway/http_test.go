package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oddslab/wager-engine/pkg/betslip"
	"github.com/oddslab/wager-engine/pkg/wallet"
)

func testWager(stake int64) betslip.Wager {
	return betslip.Wager{
		Selections: []betslip.Selection{{
			ID:              "sel-1",
			EventID:         "ev1",
			MarketType:      betslip.MarketMoneyline,
			SelectedOutcome: "Celtics",
			Odds:            150,
		}},
		BetType:         betslip.BetTypeSingle,
		Stake:           decimal.NewFromInt(stake),
		ExpectedOdds:    decimal.NewFromInt(150),
		ClientRequestID: "req-1",
	}
}

func TestPlaceWagerSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/wagers" {
			t.Errorf("Expected path /v1/wagers, got %s", r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") != "req-1" {
			t.Errorf("Expected idempotency header, got %q", r.Header.Get("Idempotency-Key"))
		}

		var wager betslip.Wager
		if err := json.NewDecoder(r.Body).Decode(&wager); err != nil {
			t.Errorf("Failed to decode wager: %v", err)
		}
		if !wager.Stake.Equal(decimal.NewFromInt(25)) {
			t.Errorf("Expected stake 25, got %s", wager.Stake)
		}

		json.NewEncoder(w).Encode(placeResponse{
			Success:    true,
			NewBalance: wallet.Balance{Available: decimal.NewFromInt(75)},
			PlacedIDs:  []string{"w-9"},
		})
	}))
	defer server.Close()

	gw := NewHTTPGateway(WithBaseURL(server.URL))

	receipt, err := gw.PlaceWager(context.Background(), testWager(25))
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}
	if !receipt.NewBalance.Available.Equal(decimal.NewFromInt(75)) {
		t.Errorf("Expected balance 75, got %s", receipt.NewBalance.Available)
	}
	if len(receipt.PlacedIDs) != 1 || receipt.PlacedIDs[0] != "w-9" {
		t.Errorf("Expected placed id w-9, got %v", receipt.PlacedIDs)
	}
}

func TestPlaceWagerCategorizedRejection(t *testing.T) {
	tests := []struct {
		wireCategory string
		want         betslip.FailureCategory
	}{
		{"odds_changed", betslip.CategoryOddsChanged},
		{"odds-changed", betslip.CategoryOddsChanged},
		{"insufficient_funds", betslip.CategoryInsufficientFunds},
		{"stake_limits", betslip.CategoryServerValidation},
		{"", betslip.CategoryServerValidation},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(placeResponse{
				Success:       false,
				ErrorCategory: tt.wireCategory,
				Message:       "rejected",
			})
		}))

		gw := NewHTTPGateway(WithBaseURL(server.URL))
		_, err := gw.PlaceWager(context.Background(), testWager(25))
		server.Close()

		var perr *betslip.PlacementError
		if !errors.As(err, &perr) {
			t.Fatalf("Category %q: expected PlacementError, got %v", tt.wireCategory, err)
		}
		if perr.Category != tt.want {
			t.Errorf("Category %q mapped to %s, want %s", tt.wireCategory, perr.Category, tt.want)
		}
	}
}

func TestPlaceWagerTransportError(t *testing.T) {
	gw := NewHTTPGateway(WithBaseURL("http://127.0.0.1:1"))

	_, err := gw.PlaceWager(context.Background(), testWager(25))
	if err == nil {
		t.Fatal("Expected a transport error")
	}
	var perr *betslip.PlacementError
	if errors.As(err, &perr) {
		t.Errorf("Transport errors must stay uncategorized, got %v", perr)
	}
}

func TestSimulatorDebitsAndIsIdempotent(t *testing.T) {
	sim := NewSimulator(wallet.Balance{Available: decimal.NewFromInt(100)})

	wager := testWager(30)
	first, err := sim.PlaceWager(context.Background(), wager)
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}
	if !first.NewBalance.Available.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected balance 70, got %s", first.NewBalance.Available)
	}

	// Same request id: no second debit, same receipt.
	second, err := sim.PlaceWager(context.Background(), wager)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !second.NewBalance.Available.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Retry must not debit again, got %s", second.NewBalance.Available)
	}
	if second.PlacedIDs[0] != first.PlacedIDs[0] {
		t.Errorf("Retry should return the original placement id")
	}
}

func TestSimulatorInsufficientFunds(t *testing.T) {
	sim := NewSimulator(wallet.Balance{Available: decimal.NewFromInt(10)})

	_, err := sim.PlaceWager(context.Background(), testWager(30))
	var perr *betslip.PlacementError
	if !errors.As(err, &perr) || perr.Category != betslip.CategoryInsufficientFunds {
		t.Errorf("Expected insufficient_funds, got %v", err)
	}
}

func TestSimulatorFailNext(t *testing.T) {
	sim := NewSimulator(wallet.Balance{Available: decimal.NewFromInt(100)})
	sim.FailNext(betslip.CategoryOddsChanged, "odds moved")

	_, err := sim.PlaceWager(context.Background(), testWager(10))
	var perr *betslip.PlacementError
	if !errors.As(err, &perr) || perr.Category != betslip.CategoryOddsChanged {
		t.Fatalf("Expected scripted odds_changed, got %v", err)
	}

	// One-shot: the next placement succeeds.
	wager := testWager(10)
	wager.ClientRequestID = "req-2"
	if _, err := sim.PlaceWager(context.Background(), wager); err != nil {
		t.Errorf("Expected success after scripted failure, got %v", err)
	}
}
