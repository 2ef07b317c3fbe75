package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ricardolopes/holdings-backend/internal/domain"
	"github.com/ricardolopes/holdings-backend/internal/usecase/backtest"
	"github.com/ricardolopes/holdings-backend/internal/usecase/ledger"
	"github.com/ricardolopes/holdings-backend/internal/usecase/valuation"
)

// Server is the JSON HTTP adapter over the ledger, valuation and backtest
// use cases.
type Server struct {
	Instruments domain.InstrumentRepository
	Events      domain.TradeEventRepository
	Prices      domain.PriceRepository
	Ledger      *ledger.Service
	Valuation   *valuation.Service

	log *zap.Logger
	mux *http.ServeMux
}

// NewServer creates a new HTTP server instance
func NewServer(
	instruments domain.InstrumentRepository,
	events domain.TradeEventRepository,
	prices domain.PriceRepository,
	ledgerService *ledger.Service,
	valuationService *valuation.Service,
	log *zap.Logger,
) *Server {
	s := &Server{
		Instruments: instruments,
		Events:      events,
		Prices:      prices,
		Ledger:      ledgerService,
		Valuation:   valuationService,
		log:         log,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// Root collection for instruments (exact path)
	s.mux.HandleFunc("/instruments", s.handleInstruments)

	// Single subtree handler for everything under /instruments/
	s.mux.HandleFunc("/instruments/", s.handleInstrumentsSub)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Simple JSON-only API
	w.Header().Set("Content-Type", "application/json")
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/* ======= Instruments root ======= */

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createInstrument(w, r)
	case http.MethodGet:
		instruments, err := s.Instruments.List(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]*instrumentResponse, 0, len(instruments))
		for _, instrument := range instruments {
			out = append(out, instrumentToResponse(instrument))
		}
		writeJSON(w, http.StatusOK, out)
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createInstrument(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req instrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	seedQuantity, err := parseOptionalDecimal("seed_quantity", req.SeedQuantity)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	seedCost, err := parseOptionalDecimal("seed_cost", req.SeedCost)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	instrument := &domain.Instrument{
		ID:           uuid.New(),
		Symbol:       strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:         req.Name,
		SeedQuantity: seedQuantity,
		SeedCost:     seedCost,
		CreatedAt:    time.Now(),
	}
	if err := instrument.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Instruments.Create(r.Context(), instrument); err != nil {
		s.writeError(w, err)
		return
	}

	// Seed the snapshot so reads never race an instrument with no row.
	if _, err := s.Ledger.Recompute(r.Context(), instrument.ID); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("instrument created", zap.String("symbol", instrument.Symbol))
	writeJSON(w, http.StatusCreated, instrumentToResponse(instrument))
}

/* ======= Instruments subtree ======= */

func (s *Server) handleInstrumentsSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/instruments/")
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(rest, "/")
	symbol := strings.ToUpper(parts[0])

	instrument, err := s.Instruments.GetBySymbol(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Case A: /instruments/{symbol}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, instrumentToResponse(instrument))
		case http.MethodPut:
			s.updateInstrument(instrument, w, r)
		default:
			httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "events":
			switch r.Method {
			case http.MethodPost:
				s.createEvent(instrument, w, r)
			case http.MethodGet:
				s.listEvents(instrument, w, r)
			default:
				httpError(w, http.StatusMethodNotAllowed, "method not allowed")
			}
			return
		case "snapshot":
			if r.Method != http.MethodGet {
				httpError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			snapshot, err := s.Ledger.Snapshot(r.Context(), instrument.ID)
			if err != nil {
				s.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, snapshotToResponse(snapshot))
			return
		case "valuation":
			if r.Method != http.MethodGet {
				httpError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.evaluate(instrument, w, r)
			return
		case "prices":
			if r.Method != http.MethodPost {
				httpError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.upsertPrices(instrument, w, r)
			return
		case "backtest":
			if r.Method != http.MethodPost {
				httpError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			s.runBacktest(instrument, w, r)
			return
		}
	}

	// Item: /instruments/{symbol}/events/{id}
	if len(parts) == 3 && parts[1] == "events" {
		eventID, err := uuid.Parse(parts[2])
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid event id: "+err.Error())
			return
		}
		switch r.Method {
		case http.MethodPut:
			s.updateEvent(instrument, eventID, w, r)
		case http.MethodDelete:
			snapshot, err := s.Ledger.DeleteEvent(r.Context(), instrument.ID, eventID)
			if err != nil {
				s.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, &eventMutationResponse{Snapshot: snapshotToResponse(snapshot)})
		default:
			httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	http.NotFound(w, r)
}

// PUT /instruments/{symbol} — edit the name and/or seed position. A seed
// edit goes through the ledger service so the snapshot is recomputed in the
// same logical operation.
func (s *Server) updateInstrument(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req instrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if req.Name != "" && req.Name != instrument.Name {
		instrument.Name = req.Name
		if err := s.Instruments.Update(r.Context(), instrument); err != nil {
			s.writeError(w, err)
			return
		}
	}

	seedQuantity := instrument.SeedQuantity
	seedCost := instrument.SeedCost
	var err error
	if req.SeedQuantity != "" {
		if seedQuantity, err = parseDecimal("seed_quantity", req.SeedQuantity); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.SeedCost != "" {
		if seedCost, err = parseDecimal("seed_cost", req.SeedCost); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	snapshot, err := s.Ledger.UpdateSeed(r.Context(), instrument.ID, seedQuantity, seedCost)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &eventMutationResponse{Snapshot: snapshotToResponse(snapshot)})
}

/* ======= Events ======= */

func (s *Server) createEvent(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	event, err := s.eventFromRequest(instrument, req)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := s.Ledger.RecordEvent(r.Context(), event)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info("trade event recorded",
		zap.String("symbol", instrument.Symbol),
		zap.String("kind", string(event.Kind)))
	writeJSON(w, http.StatusCreated, &eventMutationResponse{
		Event:    eventToResponse(event),
		Snapshot: snapshotToResponse(snapshot),
	})
}

func (s *Server) listEvents(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	events, err := s.Events.ListByInstrument(r.Context(), instrument.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventToResponse(event))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateEvent(instrument *domain.Instrument, eventID uuid.UUID, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	existing, err := s.Events.GetByID(r.Context(), eventID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if existing.InstrumentID != instrument.ID {
		httpError(w, http.StatusNotFound, "event does not belong to instrument")
		return
	}

	event, err := s.eventFromRequest(instrument, req)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	event.ID = existing.ID
	event.Sequence = existing.Sequence
	if req.Timestamp == "" {
		event.Timestamp = existing.Timestamp
	}

	snapshot, err := s.Ledger.UpdateEvent(r.Context(), event)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &eventMutationResponse{
		Event:    eventToResponse(event),
		Snapshot: snapshotToResponse(snapshot),
	})
}

func (s *Server) eventFromRequest(instrument *domain.Instrument, req eventRequest) (*domain.TradeEvent, error) {
	quantity, err := parseOptionalDecimal("quantity", req.Quantity)
	if err != nil {
		return nil, err
	}
	price, err := parseDecimal("price", req.Price)
	if err != nil {
		return nil, err
	}

	timestamp := time.Time{}
	if req.Timestamp != "" {
		timestamp, err = time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, errors.New("invalid timestamp: " + err.Error())
		}
	}

	return &domain.TradeEvent{
		InstrumentID: instrument.ID,
		Kind:         domain.EventKind(strings.ToUpper(req.Kind)),
		Quantity:     quantity,
		Price:        price,
		Timestamp:    timestamp,
	}, nil
}

/* ======= Valuation ======= */

func (s *Server) evaluate(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	price, err := parseDecimal("price", r.URL.Query().Get("price"))
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.Valuation.EvaluateSymbol(r.Context(), instrument.Symbol, price, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valuationToResponse(result))
}

/* ======= Prices & backtest ======= */

func (s *Server) upsertPrices(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var reqs []pricePointRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if len(reqs) == 0 {
		httpError(w, http.StatusBadRequest, "price list cannot be empty")
		return
	}

	points := make([]*domain.PricePoint, 0, len(reqs))
	for _, req := range reqs {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid date: "+err.Error())
			return
		}
		closePrice, err := parseDecimal("close", req.Close)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		open, err := parseOptionalDecimal("open", req.Open)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		high, err := parseOptionalDecimal("high", req.High)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		low, err := parseOptionalDecimal("low", req.Low)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}

		points = append(points, &domain.PricePoint{
			InstrumentID: instrument.ID,
			Date:         date,
			Open:         open,
			High:         high,
			Low:          low,
			Close:        closePrice,
			Volume:       req.Volume,
		})
	}

	if err := s.Prices.UpsertBatch(r.Context(), points); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upserted": len(points)})
}

func (s *Server) runBacktest(instrument *domain.Instrument, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	interval, err := parseDecimal("interval_percent", req.IntervalPercent)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseOptionalDate("from", req.From)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseOptionalDate("to", req.To)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	prices, err := s.Prices.ListRange(r.Context(), instrument.ID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := backtest.Run(prices, backtest.Params{Amount: amount, IntervalPercent: interval})
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Info("backtest completed",
		zap.String("symbol", instrument.Symbol),
		zap.Int("trades", report.TradeCount))
	writeJSON(w, http.StatusOK, backtestToResponse(report))
}

/* ======= small helpers ======= */

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpError(w, http.StatusNotFound, err.Error())
	case isValidation(err):
		httpError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("internal error", zap.Error(err))
		httpError(w, http.StatusInternalServerError, err.Error())
	}
}

// isValidation recognizes domain validation failures by message shape,
// mirroring how the services phrase them.
func isValidation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "cannot be") ||
		strings.Contains(msg, "must be") ||
		strings.Contains(msg, "is required") ||
		strings.Contains(msg, "unknown event kind") ||
		strings.Contains(msg, "already exists")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  http.StatusText(status),
		"detail": msg,
	})
}
