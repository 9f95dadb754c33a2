// Package testfixtures provides in-memory ProfileStore and ReservationStore
// implementations for tests. The reservation store applies the same
// list-revalidate-insert discipline under a single lock that the SQL store
// applies under its per-(employee,date) advisory lock, so concurrency
// properties can be exercised without a database.
package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

type ProfileStore struct {
	mu          sync.RWMutex
	hours       map[string]schedule.WeekSchedule
	employees   map[string][]schedule.Employee
	services    map[string]map[string]schedule.Service
	assignments map[string]map[string][]schedule.Assignment
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		hours:       map[string]schedule.WeekSchedule{},
		employees:   map[string][]schedule.Employee{},
		services:    map[string]map[string]schedule.Service{},
		assignments: map[string]map[string][]schedule.Assignment{},
	}
}

func (s *ProfileStore) SetBusinessHours(businessID string, ws schedule.WeekSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours[businessID] = ws
}

func (s *ProfileStore) AddEmployee(businessID string, emp schedule.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp.BusinessID = businessID
	s.employees[businessID] = append(s.employees[businessID], emp)
}

func (s *ProfileStore) AddService(businessID string, svc schedule.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc.BusinessID = businessID
	if s.services[businessID] == nil {
		s.services[businessID] = map[string]schedule.Service{}
	}
	s.services[businessID][svc.ID] = svc
}

func (s *ProfileStore) AddAssignment(businessID string, a schedule.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignments[businessID] == nil {
		s.assignments[businessID] = map[string][]schedule.Assignment{}
	}
	s.assignments[businessID][a.ServiceID] = append(s.assignments[businessID][a.ServiceID], a)

	// Keep the employee's own view in sync so calendar lookups see it too.
	for i, emp := range s.employees[businessID] {
		if emp.ID == a.EmployeeID {
			s.employees[businessID][i].Assignments = append(emp.Assignments, a)
		}
	}
}

func (s *ProfileStore) BusinessHours(_ context.Context, businessID string) (schedule.WeekSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.hours[businessID]
	if !ok {
		return schedule.WeekSchedule{}, booking.ErrNotFound
	}
	return ws, nil
}

func (s *ProfileStore) Employee(_ context.Context, businessID, employeeID string) (schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, emp := range s.employees[businessID] {
		if emp.ID == employeeID {
			return emp, nil
		}
	}
	return schedule.Employee{}, booking.ErrNotFound
}

func (s *ProfileStore) Employees(_ context.Context, businessID string) ([]schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schedule.Employee, len(s.employees[businessID]))
	copy(out, s.employees[businessID])
	return out, nil
}

func (s *ProfileStore) Service(_ context.Context, businessID, serviceID string) (schedule.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[businessID][serviceID]
	if !ok {
		return schedule.Service{}, booking.ErrNotFound
	}
	return svc, nil
}

func (s *ProfileStore) ServiceAssignments(_ context.Context, businessID, serviceID string) ([]schedule.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.assignments[businessID][serviceID]
	out := make([]schedule.Assignment, len(list))
	copy(out, list)
	return out, nil
}

var _ booking.ProfileStore = (*ProfileStore)(nil)

type ReservationStore struct {
	mu           sync.Mutex
	reservations []schedule.Reservation
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{}
}

func (s *ReservationStore) ListActive(_ context.Context, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(employeeID, date), nil
}

func (s *ReservationStore) activeLocked(employeeID string, date time.Time) []schedule.Reservation {
	var out []schedule.Reservation
	for _, r := range s.reservations {
		if r.EmployeeID == employeeID && r.Date.Equal(schedule.DateOf(date)) && r.Status != schedule.StatusCancelled {
			out = append(out, r)
		}
	}
	return out
}

func (s *ReservationStore) Commit(ctx context.Context, res schedule.Reservation, revalidate booking.RevalidateFunc) (schedule.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeLocked(res.EmployeeID, res.Date)
	if err := revalidate(ctx, active); err != nil {
		return schedule.Reservation{}, err
	}

	res.CreatedAt = time.Now().UTC()
	s.reservations = append(s.reservations, res)
	return res, nil
}

func (s *ReservationStore) ListDay(_ context.Context, businessID, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schedule.Reservation
	for _, r := range s.reservations {
		if r.BusinessID == businessID && r.EmployeeID == employeeID && r.Date.Equal(schedule.DateOf(date)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out, nil
}

func (s *ReservationStore) Cancel(_ context.Context, businessID, reservationID, reason string) (schedule.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reservations {
		if r.BusinessID != businessID || r.ID != reservationID {
			continue
		}
		if r.Status == schedule.StatusCancelled {
			return r, nil
		}
		now := time.Now().UTC()
		s.reservations[i].Status = schedule.StatusCancelled
		s.reservations[i].CancelledAt = &now
		return s.reservations[i], nil
	}
	return schedule.Reservation{}, booking.ErrNotFound
}

var _ booking.ReservationStore = (*ReservationStore)(nil)
