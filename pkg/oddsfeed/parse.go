package oddsfeed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oddslab/wager-engine/pkg/betslip"
)

type subscribeMessage struct {
	Type      string   `json:"type"`
	SportKeys []string `json:"sport_keys,omitempty"`
}

// eventUpdate is the wire format for one event's odds snapshot.
type eventUpdate struct {
	Type         string    `json:"type"`
	EventID      string    `json:"event_id"`
	SportKey     string    `json:"sport_key"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	Bookmaker    string    `json:"bookmaker"`
	Markets      []struct {
		Key      string `json:"key"`
		Outcomes []struct {
			Name  string   `json:"name"`
			Price int      `json:"price"`
			Point *float64 `json:"point,omitempty"`
		} `json:"outcomes"`
	} `json:"markets"`
}

// ParseUpdate decodes an odds feed message into selection candidates.
// Non-odds messages (heartbeats, acks) return an empty slice. Markets
// outside the supported set are skipped rather than rejected.
func ParseUpdate(data []byte) ([]betslip.Selection, error) {
	var update eventUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("decode odds update: %w", err)
	}

	if update.Type != "odds" {
		return nil, nil
	}
	if update.EventID == "" {
		return nil, fmt.Errorf("odds update missing event_id")
	}

	var selections []betslip.Selection
	for _, market := range update.Markets {
		marketType, ok := marketTypeFromKey(market.Key)
		if !ok {
			continue
		}

		for _, outcome := range market.Outcomes {
			if outcome.Price == 0 {
				continue
			}

			label := outcome.Name
			if outcome.Point != nil {
				label = fmt.Sprintf("%s %+g", outcome.Name, *outcome.Point)
			}

			selections = append(selections, betslip.Selection{
				ID:              fmt.Sprintf("%s|%s|%s", update.EventID, market.Key, outcome.Name),
				EventID:         update.EventID,
				SportKey:        update.SportKey,
				HomeTeam:        update.HomeTeam,
				AwayTeam:        update.AwayTeam,
				CommenceTime:    update.CommenceTime,
				MarketType:      marketType,
				SelectedOutcome: label,
				Odds:            outcome.Price,
				BookmakerLabel:  update.Bookmaker,
			})
		}
	}

	return selections, nil
}

func marketTypeFromKey(key string) (betslip.MarketType, bool) {
	switch key {
	case "h2h", "moneyline":
		return betslip.MarketMoneyline, true
	case "spreads", "spread":
		return betslip.MarketSpread, true
	case "totals", "total":
		return betslip.MarketTotal, true
	default:
		return "", false
	}
}
