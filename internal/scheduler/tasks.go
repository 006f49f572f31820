// Package scheduler queues and runs the background jobs: visit reminders and
// the periodic nurturing pass. It is backed by asynq over Redis.
package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskVisitReminder = "visits.reminder"

const TaskNurturingRun = "leads.nurturing_run"

type VisitReminderPayload struct {
	AppointmentID string    `json:"appointmentId"`
	LeadID        string    `json:"leadId"`
	PropertyRef   string    `json:"propertyRef"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

type NurturingRunPayload struct {
	BatchSize int `json:"batchSize"`
}

func NewVisitReminderTask(payload VisitReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVisitReminder, data), nil
}

func ParseVisitReminderPayload(task *asynq.Task) (VisitReminderPayload, error) {
	var payload VisitReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return VisitReminderPayload{}, err
	}
	return payload, nil
}

func NewNurturingRunTask(payload NurturingRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNurturingRun, data), nil
}

func ParseNurturingRunPayload(task *asynq.Task) (NurturingRunPayload, error) {
	var payload NurturingRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NurturingRunPayload{}, err
	}
	return payload, nil
}
