package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"facilitybooking/internal/api"
	"facilitybooking/internal/approval"
	"facilitybooking/internal/schedule"
)

type Handlers struct {
	Service   *Service
	Engine    *Engine
	Store     *Repository
	Approvals *approval.Repository
}

// View is the JSON shape of a booking. Dates and times render in the same
// formats the creation request uses.
type View struct {
	ID                 string      `json:"id"`
	RequesterAccountID string      `json:"requesterAccountId"`
	Organization       string      `json:"organization"`
	Purpose            string      `json:"purpose"`
	FacilityID         string      `json:"facilityId"`
	EventDateStart     string      `json:"eventDateStart"`
	EventDateEnd       string      `json:"eventDateEnd"`
	EventTimeStart     string      `json:"eventTimeStart"`
	EventTimeEnd       string      `json:"eventTimeEnd"`
	ScheduleEntries    []EntryView `json:"scheduleEntries,omitempty"`
	SetupDateStart     string      `json:"setupDateStart,omitempty"`
	SetupDateEnd       string      `json:"setupDateEnd,omitempty"`
	SetupTimeStart     string      `json:"setupTimeStart,omitempty"`
	SetupTimeEnd       string      `json:"setupTimeEnd,omitempty"`
	Status             string      `json:"status"`
	FacilityFee        string      `json:"facilityFee"`
	EquipmentFee       string      `json:"equipmentFee"`
	RequestedAt        time.Time   `json:"requestedAt"`
	CreatedAt          time.Time   `json:"createdAt"`
}

type EntryView struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	TimeStart string `json:"timeStart"`
	TimeEnd   string `json:"timeEnd"`
}

const dateLayout = "2006-01-02"

func ViewOf(b *Booking) View {
	v := View{
		ID:                 b.ID,
		RequesterAccountID: b.RequesterAccountID,
		Organization:       b.Organization,
		Purpose:            b.Purpose,
		FacilityID:         b.FacilityID,
		EventDateStart:     b.EventDateStart.Format(dateLayout),
		EventDateEnd:       b.EventDateEnd.Format(dateLayout),
		EventTimeStart:     b.EventWindow.Start.String(),
		EventTimeEnd:       b.EventWindow.End.String(),
		Status:             string(b.Status),
		FacilityFee:        b.FacilityFee.String(),
		EquipmentFee:       b.EquipmentFee.String(),
		RequestedAt:        b.RequestedAt,
		CreatedAt:          b.CreatedAt,
	}
	for _, e := range b.Entries {
		v.ScheduleEntries = append(v.ScheduleEntries, EntryView{
			ID:        e.ID,
			Date:      e.Date.Format(dateLayout),
			TimeStart: e.Window.Start.String(),
			TimeEnd:   e.Window.End.String(),
		})
	}
	if b.Setup != nil {
		v.SetupDateStart = b.Setup.DateStart.Format(dateLayout)
		v.SetupDateEnd = b.Setup.DateEnd.Format(dateLayout)
		v.SetupTimeStart = b.Setup.Start.String()
		v.SetupTimeEnd = b.Setup.End.String()
	}
	return v
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if in.FacilityID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing facilityId")
		return
	}

	b, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"booking": ViewOf(b)})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	b, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	history, err := h.Approvals.ListByBooking(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if history == nil {
		history = []approval.Record{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"booking":   ViewOf(b),
		"approvals": history,
	})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	facilityID := r.URL.Query().Get("facilityId")
	if facilityID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing facilityId")
		return
	}

	bookings, err := h.Store.ListByFacility(r.Context(), facilityID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	items := make([]View, 0, len(bookings))
	for i := range bookings {
		items = append(items, ViewOf(&bookings[i]))
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// TransitionRequest carries the action plus any accompanying field updates.
// Updates are orthogonal to the state machine but commit in the same
// transaction.
type TransitionRequest struct {
	Action  string `json:"action"`
	Remarks string `json:"remarks,omitempty"`

	FacilityID     string `json:"facilityId,omitempty"`
	EventDateStart string `json:"eventDateStart,omitempty"`
	EventDateEnd   string `json:"eventDateEnd,omitempty"`
	EventTimeStart string `json:"eventTimeStart,omitempty"`
	EventTimeEnd   string `json:"eventTimeEnd,omitempty"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	action, err := ParseAction(req.Action)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "action must be approve or reject")
		return
	}

	updates, err := decodeUpdates(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	b, err := h.Engine.Transition(r.Context(), id, action, actor, req.Remarks, updates)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": ViewOf(b)})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req struct {
		Remarks string `json:"remarks,omitempty"`
	}
	// Body is optional for cancels.
	_ = json.NewDecoder(r.Body).Decode(&req)

	b, err := h.Engine.Cancel(r.Context(), id, actor, req.Remarks)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": ViewOf(b)})
}

func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	// Ensure the booking exists so a bad id is a 404, not an empty list.
	if _, err := h.Store.GetByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	history, err := h.Approvals.ListByBooking(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if history == nil {
		history = []approval.Record{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": history})
}

func decodeUpdates(req TransitionRequest) (*Updates, error) {
	u := &Updates{}
	set := false

	if req.FacilityID != "" {
		u.FacilityID = &req.FacilityID
		set = true
	}
	if req.EventDateStart != "" {
		d, err := parseDate(req.EventDateStart)
		if err != nil {
			return nil, err
		}
		u.EventDateStart = &d
		set = true
	}
	if req.EventDateEnd != "" {
		d, err := parseDate(req.EventDateEnd)
		if err != nil {
			return nil, err
		}
		u.EventDateEnd = &d
		set = true
	}
	if req.EventTimeStart != "" {
		c, err := schedule.ParseClock(req.EventTimeStart)
		if err != nil {
			return nil, ErrInvalidInterval
		}
		u.EventTimeStart = &c
		set = true
	}
	if req.EventTimeEnd != "" {
		c, err := schedule.ParseClock(req.EventTimeEnd)
		if err != nil {
			return nil, ErrInvalidInterval
		}
		u.EventTimeEnd = &c
		set = true
	}

	if !set {
		return nil, nil
	}
	return u, nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
	case errors.Is(err, ErrUnauthorizedTransition):
		api.WriteError(w, http.StatusForbidden, "UNAUTHORIZED_TRANSITION", "role is not permitted to perform this transition")
	case errors.Is(err, ErrConcurrentModification):
		api.WriteError(w, http.StatusConflict, "CONCURRENT_MODIFICATION", "booking was modified concurrently, re-read and retry")
	case errors.Is(err, ErrInvalidInterval):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid schedule interval")
	case errors.Is(err, ErrInvalidAction):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "action must be approve or reject")
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
