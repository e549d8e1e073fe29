package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chadn/cmf-server/internal/filters"
	"github.com/chadn/cmf-server/internal/httperror"
	"github.com/chadn/cmf-server/internal/models/domain"
	"github.com/chadn/cmf-server/internal/transport/httpServer/handlers/dto"
	"github.com/chadn/cmf-server/internal/utils"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

type EventHandler struct {
	log      *slog.Logger
	fetcher  EventsFetcher
	resolver EventsResolver
	warmer   Warmer
	validate *validator.Validate
}

func NewEventHandler(log *slog.Logger, fetcher EventsFetcher, resolver EventsResolver, warmer Warmer) *EventHandler {
	return &EventHandler{
		log:      log,
		fetcher:  fetcher,
		resolver: resolver,
		warmer:   warmer,
		validate: validator.New(),
	}
}

// GetEvents handles GET /api/v1/events?id=<prefix>:<id>&timeMin=&timeMax=
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetEvents()"
	log := h.log.With(slog.String("op", op))

	req := dto.EventsRequest{
		ID:      r.URL.Query().Get("id"),
		TimeMin: r.URL.Query().Get("timeMin"),
		TimeMax: r.URL.Query().Get("timeMax"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(log, fmt.Errorf("invalid query: %w", err), w, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	resp, err := h.fetcher.Fetch(ctx, req.ID, domain.EventsSourceParams{
		TimeMin: req.TimeMin,
		TimeMax: req.TimeMax,
	})
	if err != nil {
		h.respondError(log, err, w, httperror.StatusOf(err))
		return
	}

	if err := h.resolver.ResolveResponse(ctx, resp); err != nil {
		h.respondError(log, fmt.Errorf("failed to resolve events: %w", err), w, http.StatusInternalServerError)
		return
	}

	if err := utils.Json(w, http.StatusOK, resp); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// GetQuickFilterRange handles
// GET /api/v1/filters/range?filterId=&minDate=&todayOffset=&totalDays=
func (h *EventHandler) GetQuickFilterRange(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.GetQuickFilterRange()"
	log := h.log.With(slog.String("op", op))

	q := r.URL.Query()
	todayOffset, _ := strconv.Atoi(q.Get("todayOffset"))
	totalDays, _ := strconv.Atoi(q.Get("totalDays"))

	req := dto.RangeRequest{
		FilterID:    q.Get("filterId"),
		MinDate:     q.Get("minDate"),
		TodayOffset: todayOffset,
		TotalDays:   totalDays,
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(log, fmt.Errorf("invalid query: %w", err), w, http.StatusBadRequest)
		return
	}

	minDate, err := time.Parse("2006-01-02", req.MinDate)
	if err != nil {
		h.respondError(log, fmt.Errorf("invalid minDate: %w", err), w, http.StatusBadRequest)
		return
	}

	rng := filters.CalculateRange(req.FilterID, minDate, req.TodayOffset, req.TotalDays)

	response := dto.RangeResponse{FilterID: req.FilterID}
	if rng != nil {
		response.Range = rng
	}

	if err := utils.Json(w, http.StatusOK, response); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

// Refresh handles POST /api/v1/admin/refresh, kicking off a warm-up of all
// configured sources in the background.
func (h *EventHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	op := "httpServer.handlers.EventHandler.Refresh()"
	log := h.log.With(slog.String("op", op))

	log.Info("manual source refresh requested")
	go h.warmer.RunAll()

	if err := utils.Json(w, http.StatusAccepted, map[string]string{"status": "refreshing"}); err != nil {
		log.Error("error encoding response", sl.Err(err))
	}
}

func (h *EventHandler) respondError(log *slog.Logger, err error, w http.ResponseWriter, status int) {
	log.Error("handler error", sl.Err(err))
	if httpErr := utils.Err(w, status, err); httpErr != nil {
		log.Error("error sending http response", sl.Err(httpErr))
	}
}
