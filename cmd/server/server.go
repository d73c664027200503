package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/quote"
)

const maxBodyBytes = 1 << 20

type server struct {
	quotes            *quote.Service
	logger            *zap.Logger
	defaultPricingSet string
}

func newServer(quotes *quote.Service, logger *zap.Logger, defaultPricingSet string) *server {
	return &server{quotes: quotes, logger: logger, defaultPricingSet: defaultPricingSet}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Get("/pricing-sets/{id}", s.handlePricingSet)
	r.Post("/pricing-sets/{id}/recalculate", s.handleRecalculate)

	r.Get("/quotes", s.handleQuotesList)
	r.Post("/quotes", s.handleQuoteCreate)
	r.Get("/quotes/{id}", s.handleQuoteDetail)
	r.Post("/quotes/{id}/items", s.handleItemAdd)
	r.Post("/quotes/{id}/items/{itemID}/duplicate", s.handleItemDuplicate)
	r.Delete("/quotes/{id}/items/{itemID}", s.handleItemDelete)

	return r
}

type createQuoteRequest struct {
	Title        string `json:"title"`
	PricingSetID string `json:"pricing_set_id"`
}

// invalidItemResponse mirrors pricing.Output for a rejected commit.
type invalidItemResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handlePricingSet(w http.ResponseWriter, r *http.Request) {
	card, err := s.quotes.RateCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleRecalculate previews an item. Validation failures are a normal response here,
// so they come back as 200 with ok=false.
func (s *server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err))
		return
	}

	out, err := s.quotes.Recalculate(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.ListQuotes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err))
		return
	}
	if req.PricingSetID == "" {
		req.PricingSetID = s.defaultPricingSet
	}

	q, err := s.quotes.CreateQuote(r.Context(), req.Title, req.PricingSetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleItemAdd(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(err))
		return
	}

	item, err := s.quotes.AddItem(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *server) handleItemDuplicate(w http.ResponseWriter, r *http.Request) {
	item, err := s.quotes.DuplicateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *server) handleItemDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.quotes.DeleteItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *quote.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, invalidItemResponse{OK: false, Errors: verr.Errors})
	case errors.Is(err, quote.ErrQuoteNotFound),
		errors.Is(err, quote.ErrItemNotFound),
		errors.Is(err, quote.ErrPricingSetNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err))
	case errors.Is(err, quote.ErrInvalidQuote):
		writeJSON(w, http.StatusBadRequest, errorResponse(err))
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func errorResponse(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
