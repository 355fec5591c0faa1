package oddsfeed

import (
	"testing"

	"github.com/oddslab/wager-engine/pkg/betslip"
)

func TestParseUpdate(t *testing.T) {
	data := []byte(`{
		"type": "odds",
		"event_id": "evt-1",
		"sport_key": "basketball_nba",
		"home_team": "Lakers",
		"away_team": "Celtics",
		"commence_time": "2026-09-01T00:00:00Z",
		"bookmaker": "draftkings",
		"markets": [
			{
				"key": "h2h",
				"outcomes": [
					{"name": "Lakers", "price": -110},
					{"name": "Celtics", "price": 105}
				]
			},
			{
				"key": "spreads",
				"outcomes": [
					{"name": "Lakers", "price": -110, "point": -3.5},
					{"name": "Celtics", "price": -110, "point": 3.5}
				]
			}
		]
	}`)

	selections, err := ParseUpdate(data)
	if err != nil {
		t.Fatalf("ParseUpdate: %v", err)
	}
	if len(selections) != 4 {
		t.Fatalf("expected 4 selections, got %d", len(selections))
	}

	first := selections[0]
	if first.EventID != "evt-1" || first.MarketType != betslip.MarketMoneyline {
		t.Errorf("unexpected first selection: %+v", first)
	}
	if first.Odds != -110 {
		t.Errorf("odds = %d, want -110", first.Odds)
	}
	if first.BookmakerLabel != "draftkings" {
		t.Errorf("bookmaker = %q", first.BookmakerLabel)
	}

	spread := selections[2]
	if spread.MarketType != betslip.MarketSpread {
		t.Errorf("market type = %q, want spread", spread.MarketType)
	}
	if spread.SelectedOutcome != "Lakers -3.5" {
		t.Errorf("outcome = %q, want %q", spread.SelectedOutcome, "Lakers -3.5")
	}
	if spread.MarketKey() == first.MarketKey() {
		t.Error("spread and moneyline should occupy different market keys")
	}
}

func TestParseUpdateSkipsNonOddsMessages(t *testing.T) {
	selections, err := ParseUpdate([]byte(`{"type": "heartbeat"}`))
	if err != nil {
		t.Fatalf("ParseUpdate: %v", err)
	}
	if len(selections) != 0 {
		t.Errorf("expected no selections, got %d", len(selections))
	}
}

func TestParseUpdateSkipsUnknownMarkets(t *testing.T) {
	data := []byte(`{
		"type": "odds",
		"event_id": "evt-2",
		"markets": [
			{"key": "player_props", "outcomes": [{"name": "Over", "price": 120}]},
			{"key": "totals", "outcomes": [{"name": "Over", "price": -105, "point": 210.5}]}
		]
	}`)

	selections, err := ParseUpdate(data)
	if err != nil {
		t.Fatalf("ParseUpdate: %v", err)
	}
	if len(selections) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(selections))
	}
	if selections[0].MarketType != betslip.MarketTotal {
		t.Errorf("market type = %q, want total", selections[0].MarketType)
	}
	if selections[0].SelectedOutcome != "Over +210.5" {
		t.Errorf("outcome = %q", selections[0].SelectedOutcome)
	}
}

func TestParseUpdateErrors(t *testing.T) {
	if _, err := ParseUpdate([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := ParseUpdate([]byte(`{"type": "odds"}`)); err == nil {
		t.Error("expected error for odds update without event_id")
	}
}
