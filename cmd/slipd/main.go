// slipd is the bet slip daemon. It hosts a slip controller behind an
// HTTP API, streams slip events over WebSocket, and optionally ingests
// live odds from an upstream feed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/oddslab/wager-engine/pkg/betslip"
	"github.com/oddslab/wager-engine/pkg/gateway"
	"github.com/oddslab/wager-engine/pkg/metrics"
	"github.com/oddslab/wager-engine/pkg/oddsfeed"
	"github.com/oddslab/wager-engine/pkg/streaming"
	"github.com/oddslab/wager-engine/pkg/wallet"
)

var (
	httpAddr   = flag.String("http", ":8080", "HTTP server address")
	gatewayURL = flag.String("gateway", "", "Wager gateway base URL (empty = built-in simulator)")
	walletURL  = flag.String("wallet", "", "Wallet service base URL (empty = static balance)")
	feedURL    = flag.String("feed", "", "Odds feed WebSocket URL (empty = no feed)")
	sportKeys  = flag.String("sports", "", "Comma-separated sport keys to subscribe to")
	initialBal = flag.Float64("balance", 1000, "Starting balance when no wallet service is configured")
	verbose    = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not load .env file")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	log.Info("starting slipd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d, err := newDaemon(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize daemon")
	}

	go d.hub.Run()
	go d.startHTTP(log)

	if d.feed != nil {
		if err := d.feed.Connect(ctx); err != nil {
			log.WithError(err).Warn("odds feed unavailable, continuing without it")
		}
		defer d.feed.Close()
	}

	log.WithField("addr", *httpAddr).Info("slipd running")

	<-sigCh
	log.Info("shutting down")
	cancel()
}

type daemon struct {
	controller *betslip.Controller
	metrics    *metrics.SlipMetrics
	hub        *streaming.Hub
	feed       *oddsfeed.Client
	printer    *message.Printer

	// Selections seen on the odds feed, keyed by selection ID, so the
	// API can add them to the slip by ID.
	catalog   map[string]betslip.Selection
	catalogMu sync.RWMutex
}

func newDaemon(ctx context.Context, log *logrus.Logger) (*daemon, error) {
	d := &daemon{
		metrics: metrics.NewSlipMetrics(),
		hub:     streaming.NewHub(log),
		printer: message.NewPrinter(language.AmericanEnglish),
		catalog: make(map[string]betslip.Selection),
	}

	balance := wallet.Balance{Available: decimal.NewFromFloat(*initialBal)}
	if *walletURL != "" {
		provider := wallet.NewHTTPProvider(*walletURL)
		fetched, err := provider.GetBalance(ctx)
		if err != nil {
			log.WithError(err).Warn("wallet fetch failed, using flag balance")
		} else {
			balance = fetched
		}
	}

	var gw betslip.Gateway
	if *gatewayURL != "" {
		gw = gateway.NewHTTPGateway(gateway.WithBaseURL(*gatewayURL))
		log.WithField("url", *gatewayURL).Info("using remote wager gateway")
	} else {
		gw = gateway.NewSimulator(balance)
		log.Info("using built-in gateway simulator")
	}

	d.controller = betslip.NewController(betslip.Config{
		Gateway:        gw,
		Logger:         log,
		InitialBalance: balance,
	})
	d.metrics.SetWalletAvailable(balance.Available)

	d.controller.OnSelectionsChange(func(selections []betslip.Selection) {
		d.hub.BroadcastSelections(selections)
	})

	d.controller.OnTotalsChange(func(totals betslip.Totals) {
		d.hub.BroadcastTotals(totals)
	})

	d.controller.OnStatusChange(func(status betslip.Status) {
		d.metrics.SetStatus(status.String())
		d.hub.BroadcastStatus(status)
	})

	d.controller.OnReceipt(func(wager betslip.Wager, receipt *betslip.PlacementReceipt) {
		totals := betslip.ComputeTotals(wager.Selections, wager.BetType, wager.Stake.String())
		d.metrics.RecordPlacement(wager.BetType.String(), wager.Stake, totals.PotentialPayout, len(wager.Selections))
		d.metrics.SetWalletAvailable(receipt.NewBalance.Available)
		d.hub.BroadcastReceipt(wager, receipt)
		log.Info(d.printer.Sprintf("placed %s wager: stake $%.2f, potential payout $%.2f",
			wager.BetType, wager.Stake.InexactFloat64(), totals.PotentialPayout.InexactFloat64()))
	})

	d.controller.OnValidationFailure(func(result betslip.ValidationResult) {
		d.metrics.RecordValidationFailure(string(result.Reason))
		d.hub.BroadcastError(result.Message, "validation")
	})

	if *feedURL != "" {
		cfg := oddsfeed.DefaultConfig(*feedURL)
		if *sportKeys != "" {
			cfg.SportKeys = strings.Split(*sportKeys, ",")
		}
		d.feed = oddsfeed.NewClient(cfg, d.onFeedSelection, log)
	}

	return d, nil
}

// onFeedSelection caches feed selections and refreshes any that are
// already on the slip so priced odds stay current.
func (d *daemon) onFeedSelection(sel betslip.Selection) {
	d.catalogMu.Lock()
	d.catalog[sel.ID] = sel
	d.catalogMu.Unlock()

	for _, existing := range d.controller.Selections() {
		if existing.ID == sel.ID && existing.Odds != sel.Odds {
			d.controller.AddSelection(sel)
			return
		}
	}
}

func (d *daemon) startHTTP(log *logrus.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /v1/slip", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("GET /v1/selections", func(w http.ResponseWriter, r *http.Request) {
		d.catalogMu.RLock()
		selections := make([]betslip.Selection, 0, len(d.catalog))
		for _, sel := range d.catalog {
			selections = append(selections, sel)
		}
		d.catalogMu.RUnlock()
		writeJSON(w, http.StatusOK, selections)
	})

	mux.HandleFunc("POST /v1/slip/selections", func(w http.ResponseWriter, r *http.Request) {
		var sel betslip.Selection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid selection payload"})
			return
		}
		if sel.ID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "selection id required"})
			return
		}
		d.controller.AddSelection(sel)
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/selections/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		d.catalogMu.RLock()
		sel, ok := d.catalog[id]
		d.catalogMu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown selection id"})
			return
		}
		d.controller.AddSelection(sel)
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("DELETE /v1/slip/selections/{id}", func(w http.ResponseWriter, r *http.Request) {
		d.controller.RemoveSelection(r.PathValue("id"))
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/clear", func(w http.ResponseWriter, r *http.Request) {
		d.controller.Clear()
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/bet-type", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BetType string `json:"bet_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		betType := betslip.BetTypeSingle
		if req.BetType == "parlay" {
			betType = betslip.BetTypeParlay
		}
		if err := d.controller.SetBetType(betType); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/stake", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stake string `json:"stake"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		d.controller.SetStakeInput(req.Stake)
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/submit", func(w http.ResponseWriter, r *http.Request) {
		result := d.controller.Submit(r.Context())
		if result.Failure != nil {
			d.metrics.RecordPlacementFailure(string(result.Failure.Category))
			d.hub.BroadcastError(result.Failure.Message, "placement")
		}

		status := http.StatusOK
		switch {
		case result.InFlight:
			status = http.StatusConflict
		case result.NeedsOddsAck:
			status = http.StatusConflict
		case result.Validation != nil && !result.Validation.Valid:
			status = http.StatusUnprocessableEntity
		case result.Failure != nil:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]interface{}{
			"result": result,
			"slip":   d.slipState(),
		})
	})

	mux.HandleFunc("POST /v1/slip/dismiss", func(w http.ResponseWriter, r *http.Request) {
		d.controller.Dismiss()
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.HandleFunc("POST /v1/slip/ack-odds", func(w http.ResponseWriter, r *http.Request) {
		d.controller.AcknowledgeOddsChange()
		writeJSON(w, http.StatusOK, d.slipState())
	})

	mux.Handle("GET /metrics", d.metrics.Handler())
	mux.HandleFunc("/ws", d.hub.ServeWS)

	server := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.WithField("addr", *httpAddr).Info("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Error("HTTP server error")
	}
}

func (d *daemon) slipState() map[string]interface{} {
	state := map[string]interface{}{
		"selections": d.controller.Selections(),
		"bet_type":   d.controller.BetType().String(),
		"stake":      d.controller.StakeInput(),
		"totals":     d.controller.Totals(),
		"status":     d.controller.Status().String(),
		"balance":    d.controller.Balance(),
	}
	if failure := d.controller.LastFailure(); failure != nil {
		state["last_failure"] = failure
	}
	return state
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
