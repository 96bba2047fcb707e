package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/api/shared"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/service/schedule"
)

// ScheduleHandler serves the engine's HTTP surface.
type ScheduleHandler struct {
	svc      schedule.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewScheduleHandler creates a handler backed by the given engine.
func NewScheduleHandler(svc schedule.Service, log *slog.Logger) *ScheduleHandler {
	if svc == nil {
		panic("schedule service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ScheduleHandler{
		svc:      svc,
		validate: validator.New(),
		logger:   log.With(slog.String("component", "schedule_handler")),
	}
}

// Routes mounts all engine endpoints on a chi router.
func (h *ScheduleHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/users", h.RegisterUser)
	r.Post("/sweep", h.Sweep)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/materials", h.CreateMaterial)
		r.Get("/materials", h.ListMaterials)
		r.Get("/due", h.GetDue)
		r.Get("/overdue", h.GetOverdue)
		r.Get("/stats", h.GetStatistics)
		r.Route("/materials/{materialID}", func(r chi.Router) {
			r.Get("/history", h.GetHistory)
			r.Delete("/", h.DeactivateMaterial)
		})
		r.Route("/entries/{entryID}", func(r chi.Router) {
			r.Post("/complete", h.CompleteEntry)
			r.Post("/fail", h.FailEntry)
		})
	})

	return r
}

// RegisterUser handles POST /users.
func (h *ScheduleHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Timezone is required")
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), req.Username, req.FirstName, req.Timezone)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// CreateMaterial handles POST /users/{userID}/materials.
func (h *ScheduleHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Content is required")
		return
	}

	material, entries, err := h.svc.CreateMaterial(r.Context(), userID, req.Content)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateMaterialResponse{
		Material: material,
		Entries:  entries,
	})
}

// ListMaterials handles GET /users/{userID}/materials?active=true.
// Without the active flag every material is returned.
func (h *ScheduleHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid active flag")
			return
		}
		activeOnly = parsed
	}

	materials, total, err := h.svc.ListMaterials(r.Context(), userID, activeOnly)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MaterialListResponse{
		Materials: materials,
		Total:     total,
	})
}

// CompleteEntry handles POST /users/{userID}/entries/{entryID}/complete.
func (h *ScheduleHandler) CompleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	entryID, ok := h.pathID(w, r, "entryID")
	if !ok {
		return
	}

	next, err := h.svc.CompleteRepetition(r.Context(), userID, entryID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EntryTransitionResponse{NextEntry: next})
}

// FailEntry handles POST /users/{userID}/entries/{entryID}/fail.
func (h *ScheduleHandler) FailEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	entryID, ok := h.pathID(w, r, "entryID")
	if !ok {
		return
	}

	next, err := h.svc.MarkFailed(r.Context(), userID, entryID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EntryTransitionResponse{NextEntry: next})
}

// GetDue handles GET /users/{userID}/due.
func (h *ScheduleHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	items, err := h.svc.GetDueSet(r.Context(), &userID, time.Now())
	if err != nil {
		if errors.Is(err, schedule.ErrNoDueEntries) {
			shared.RespondWithJSON(w, r, http.StatusOK, []*schedule.DueItem{})
			return
		}
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// GetOverdue handles GET /users/{userID}/overdue.
func (h *ScheduleHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	items, err := h.svc.GetOverdueSet(r.Context(), &userID, time.Now())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// GetHistory handles GET /users/{userID}/materials/{materialID}/history.
func (h *ScheduleHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	materialID, ok := h.pathID(w, r, "materialID")
	if !ok {
		return
	}

	history, err := h.svc.GetMaterialHistory(r.Context(), userID, materialID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, history)
}

// DeactivateMaterial handles DELETE /users/{userID}/materials/{materialID}.
func (h *ScheduleHandler) DeactivateMaterial(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	materialID, ok := h.pathID(w, r, "materialID")
	if !ok {
		return
	}

	if err := h.svc.DeactivateMaterial(r.Context(), userID, materialID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatistics handles GET /users/{userID}/stats?date=2006-01-02.
// The date defaults to today.
func (h *ScheduleHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	stats, err := h.svc.GetDailyStatistics(r.Context(), userID, day)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserStatisticsResponse{
		UserID:              stats.UserID,
		Date:                stats.Date,
		SuccessfulRepeats:   stats.SuccessfulRepeats,
		FailedRepeats:       stats.FailedRepeats,
		TotalMaterialsAdded: stats.TotalMaterialsAdded,
	})
}

// Sweep handles POST /sweep. It closes every expired intraday entry as a
// failed repetition, the same pass the dispatcher runs before each daily
// cycle, exposed for operators who need to trigger it by hand.
func (h *ScheduleHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	swept, err := h.svc.SweepExpiredIntraday(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SweepResponse{Swept: swept})
}

// pathID parses a UUID path parameter, responding with 400 on failure.
func (h *ScheduleHandler) pathID(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps engine sentinel errors to HTTP status codes.
func (h *ScheduleHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schedule.ErrUserNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, schedule.ErrMaterialNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Material not found")
	case errors.Is(err, schedule.ErrEntryNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, "Schedule entry not found")
	case errors.Is(err, schedule.ErrEntryNotOwned):
		shared.RespondWithError(w, r, http.StatusForbidden, "Schedule entry belongs to another user")
	case errors.Is(err, schedule.ErrAlreadyCompleted):
		shared.RespondWithError(w, r, http.StatusConflict, "Schedule entry already completed")
	default:
		h.logger.Error("unexpected service error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
