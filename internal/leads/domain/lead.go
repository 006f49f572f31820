// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusNew            Status = "nuevo"
	StatusContacted      Status = "contactado"
	StatusQualified      Status = "calificado"
	StatusVisitScheduled Status = "visita_agendada"
	StatusClosed         Status = "cerrado"
	StatusLost           Status = "perdido"
)

// Tier is the qualification bucket derived from the score.
type Tier string

const (
	TierCold  Tier = "frio"
	TierWarm  Tier = "tibio"
	TierHot   Tier = "caliente"
	TierReady Tier = "listo"
)

// Channel identifies the communication channel of a conversation.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelWeb      Channel = "web"
	ChannelEmail    Channel = "email"
)

// IsKnownChannel reports whether the channel is one we can deliver on.
func IsKnownChannel(ch Channel) bool {
	switch ch {
	case ChannelWhatsApp, ChannelWeb, ChannelEmail:
		return true
	}
	return false
}

// Preferences is the qualification profile extracted from conversation.
// Pointer fields distinguish "never mentioned" from a zero value; extraction
// only ever fills empty fields, it never overwrites.
type Preferences struct {
	Zone         *string  `json:"zone,omitempty"`
	MinBudget    *float64 `json:"min_budget,omitempty"`
	MaxBudget    *float64 `json:"max_budget,omitempty"`
	Operation    *string  `json:"operation,omitempty"` // comprar | alquilar | vender
	PropertyType *string  `json:"property_type,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	MinSqm       *int     `json:"min_sqm,omitempty"`
	Parking      *bool    `json:"parking,omitempty"`
	Urgency      *string  `json:"urgency,omitempty"` // inmediata | 1-3 meses | 3-6 meses | sin prisa
	Purpose      *string  `json:"purpose,omitempty"` // primera vivienda | inversión | segunda residencia
	Interest     *string  `json:"interest,omitempty"` // bajo | medio | alto | muy alto
	WantsVisit   *bool    `json:"wants_visit,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// BudgetAmount returns the budget signal for scoring and display, preferring
// the upper bound when both ends of the range are known.
func (p Preferences) BudgetAmount() *float64 {
	if p.MaxBudget != nil && *p.MaxBudget > 0 {
		return p.MaxBudget
	}
	if p.MinBudget != nil && *p.MinBudget > 0 {
		return p.MinBudget
	}
	return nil
}

// Lead is an aggregate root: a prospective buyer or renter identified by phone.
type Lead struct {
	ID                uuid.UUID
	Phone             string
	Name              string
	Email             string
	Channel           Channel
	Status            Status
	Score             int
	Tier              Tier
	Preferences       Preferences
	TotalInteractions int
	CreatedAt         time.Time
	LastContact       *time.Time
}

// FirstName returns the lead's first name, for message templating.
func (l *Lead) FirstName() string {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ""
	}
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		return name[:idx]
	}
	return name
}

// DaysSinceContact returns whole days since the last contact. A lead that was
// never contacted reports the staleness sentinel so it sorts as maximally stale.
func (l *Lead) DaysSinceContact(now time.Time) int {
	if l.LastContact == nil {
		return NeverContactedDays
	}
	days := int(now.Sub(*l.LastContact).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// NeverContactedDays is the staleness sentinel for leads without a recorded
// last contact.
const NeverContactedDays = 999

// Score thresholds at which a fresh lead auto-advances through the pipeline.
const (
	scoreQualifiedAt = 75
	scoreContactedAt = 50
)

// StatusForScore returns the lifecycle status a freshly scored lead should
// advance to. Auto-advance applies only to leads still in StatusNew; statuses
// set further along the pipeline are never regressed by scoring.
func StatusForScore(current Status, score int) Status {
	if current != StatusNew {
		return current
	}
	switch {
	case score >= scoreQualifiedAt:
		return StatusQualified
	case score >= scoreContactedAt:
		return StatusContacted
	}
	return current
}
