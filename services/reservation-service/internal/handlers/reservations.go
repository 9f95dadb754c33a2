package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

type ReservationHandler struct {
	engine *booking.Engine
	logger *slog.Logger
}

func NewReservationHandler(engine *booking.Engine, logger *slog.Logger) *ReservationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{engine: engine, logger: logger}
}

type createReservationRequest struct {
	BusinessID  string `json:"business_id"`
	EmployeeID  string `json:"employee_id"`
	ServiceID   string `json:"service_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
}

type createReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type cancelReservationRequest struct {
	BusinessID    string `json:"business_id"`
	ReservationID string `json:"reservation_id"`
	Reason        string `json:"reason"`
}

type cancelReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}

type employeeItem struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
}

type reservationItem struct {
	ReservationID string `json:"reservation_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	ClientName    string `json:"client_name"`
}

// Slots lists bookable start times as "HH:MM" strings, ascending. A closed
// day is an empty array, not an error.
func (h *ReservationHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" || employeeID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "business_id, employee_id, service_id, and date are required", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.engine.ListSlots(r.Context(), businessID, employeeID, serviceID, date)
	if err != nil {
		h.writeEngineError(w, err, "failed to list slots")
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartMinute.Clock())
	}
	writeJSON(w, http.StatusOK, out)
}

// EligibleEmployees lists the employees that may be offered for a service.
func (h *ReservationHandler) EligibleEmployees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if businessID == "" || serviceID == "" {
		http.Error(w, "business_id and service_id are required", http.StatusBadRequest)
		return
	}

	emps, err := h.engine.ListEligibleEmployees(r.Context(), businessID, serviceID)
	if err != nil {
		h.writeEngineError(w, err, "failed to list employees")
		return
	}

	out := make([]employeeItem, 0, len(emps))
	for _, e := range emps {
		out = append(out, employeeItem{EmployeeID: e.ID, Name: e.Name, Role: e.Role})
	}
	writeJSON(w, http.StatusOK, out)
}

// Create commits a reservation for a slot previously returned by Slots.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.BusinessID == "" || req.EmployeeID == "" || req.ServiceID == "" || req.ClientName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	date, err := schedule.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	start, err := schedule.ParseClock(strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	res, err := h.engine.Commit(r.Context(), booking.CommitRequest{
		BusinessID:  req.BusinessID,
		EmployeeID:  req.EmployeeID,
		ServiceID:   req.ServiceID,
		Date:        date,
		StartMinute: start,
		Client: schedule.ClientContact{
			Name:  req.ClientName,
			Email: strings.TrimSpace(req.ClientEmail),
			Phone: strings.TrimSpace(req.ClientPhone),
		},
	})
	if err != nil {
		h.writeEngineError(w, err, "failed to create reservation")
		return
	}

	writeJSON(w, http.StatusCreated, createReservationResponse{
		ReservationID: res.ID,
		Status:        string(res.Status),
	})
}

// Cancel releases a reservation's slot. Cancelling twice is not an error.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if req.BusinessID == "" || req.ReservationID == "" {
		http.Error(w, "business_id and reservation_id required", http.StatusBadRequest)
		return
	}

	res, err := h.engine.Cancel(r.Context(), req.BusinessID, req.ReservationID, strings.TrimSpace(req.Reason))
	if err != nil {
		h.writeEngineError(w, err, "failed to cancel reservation")
		return
	}

	resp := cancelReservationResponse{ReservationID: res.ID, Status: string(res.Status)}
	if res.CancelledAt != nil {
		resp.CancelledAt = res.CancelledAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSON(w, http.StatusOK, resp)
}

// List returns a business's reservations for one employee/date.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" || employeeID == "" || dateStr == "" {
		http.Error(w, "business_id, employee_id, and date are required", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	list, err := h.engine.DayReservations(r.Context(), businessID, employeeID, date)
	if err != nil {
		h.writeEngineError(w, err, "failed to list reservations")
		return
	}

	out := make([]reservationItem, 0, len(list))
	for _, res := range list {
		out = append(out, reservationItem{
			ReservationID: res.ID,
			ServiceID:     res.ServiceID,
			Date:          res.Date.Format("2006-01-02"),
			StartTime:     res.StartMinute.Clock(),
			EndTime:       res.EndMinute().Clock(),
			Status:        string(res.Status),
			ClientName:    res.Client.Name,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationHandler) writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrNotAssigned):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrOutOfWindow):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error(fallback, "err", err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
