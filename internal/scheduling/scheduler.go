// Package scheduling books property visits: business-hour slot generation,
// availability checks against recorded appointments, and reminder queueing.
package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/logger"
)

// Visiting hours: weekday mornings and afternoons, hourly starts.
// Sundays have no visits.
var visitRanges = []struct{ startHour, endHour int }{
	{10, 14},
	{16, 19},
}

const reminderLead = 24 * time.Hour

// ReminderScheduler queues a visit reminder for later delivery.
type ReminderScheduler interface {
	ScheduleVisitReminder(ctx context.Context, appt domain.Appointment, at time.Time) error
}

// Scheduler books visits against the appointment store.
type Scheduler struct {
	store     repository.AppointmentStore
	reminders ReminderScheduler
	log       *logger.Logger
	now       func() time.Time
}

// New creates a visit scheduler. The reminder scheduler may be nil when no
// queue is configured; booking then proceeds without reminders.
func New(store repository.AppointmentStore, reminders ReminderScheduler, log *logger.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		reminders: reminders,
		log:       log,
		now:       time.Now,
	}
}

// AvailableSlots returns the open visit start times for a calendar day.
func (s *Scheduler) AvailableSlots(ctx context.Context, day time.Time) ([]time.Time, error) {
	if day.Weekday() == time.Sunday {
		return nil, nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	booked, err := s.store.ListAppointmentsBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	taken := make(map[time.Time]bool, len(booked))
	for _, appt := range booked {
		taken[appt.ScheduledAt.Truncate(time.Hour)] = true
	}

	var slots []time.Time
	for _, r := range visitRanges {
		for hour := r.startHour; hour < r.endHour; hour++ {
			slot := dayStart.Add(time.Duration(hour) * time.Hour)
			if slot.Before(s.now()) {
				continue
			}
			if taken[slot] {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// IsAvailable reports whether a specific slot can still be booked.
func (s *Scheduler) IsAvailable(ctx context.Context, at time.Time) (bool, error) {
	if !isVisitHour(at) {
		return false, nil
	}
	slots, err := s.AvailableSlots(ctx, at)
	if err != nil {
		return false, err
	}
	target := at.Truncate(time.Hour)
	for _, slot := range slots {
		if slot.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}

// ErrSlotUnavailable is returned when the requested slot is outside visiting
// hours or already booked.
var ErrSlotUnavailable = fmt.Errorf("slot not available")

// Book records a confirmed visit and queues its reminder a day ahead. A
// reminder queue failure is logged, not surfaced; the visit stands.
func (s *Scheduler) Book(ctx context.Context, lead domain.Lead, propertyRef string, at time.Time) (domain.Appointment, error) {
	available, err := s.IsAvailable(ctx, at)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !available {
		return domain.Appointment{}, ErrSlotUnavailable
	}

	appt, err := s.store.CreateAppointment(ctx, domain.Appointment{
		LeadID:      lead.ID,
		PropertyRef: propertyRef,
		ScheduledAt: at.Truncate(time.Hour),
		Status:      domain.AppointmentConfirmed,
	})
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	if s.reminders != nil {
		remindAt := appt.ScheduledAt.Add(-reminderLead)
		if remindAt.After(s.now()) {
			if err := s.reminders.ScheduleVisitReminder(ctx, appt, remindAt); err != nil {
				s.log.PersistenceInconsistency("visit_reminder", appt.ID.String(), err)
			}
		}
	}
	return appt, nil
}

func isVisitHour(at time.Time) bool {
	if at.Weekday() == time.Sunday {
		return false
	}
	hour := at.Hour()
	for _, r := range visitRanges {
		if hour >= r.startHour && hour < r.endHour {
			return true
		}
	}
	return false
}

// FormatSlots renders the open slots of a day as a chat message.
func FormatSlots(day time.Time, slots []time.Time) string {
	if len(slots) == 0 {
		return fmt.Sprintf("Lo siento, no hay horarios disponibles para el %s. ¿Quieres probar otro día?", day.Format("02/01/2006"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Horarios disponibles para %s %s:*\n\n", dayNameES(day.Weekday()), day.Format("02/01/2006"))
	for _, slot := range slots {
		fmt.Fprintf(&b, "• %s — %s\n", slot.Format("15:04"), slot.Add(time.Hour).Format("15:04"))
	}
	b.WriteString("\n¿Cuál te viene mejor? 🏠")
	return b.String()
}

func dayNameES(day time.Weekday) string {
	names := map[time.Weekday]string{
		time.Monday:    "lunes",
		time.Tuesday:   "martes",
		time.Wednesday: "miércoles",
		time.Thursday:  "jueves",
		time.Friday:    "viernes",
		time.Saturday:  "sábado",
		time.Sunday:    "domingo",
	}
	return names[day]
}
