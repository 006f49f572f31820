// Package scoring computes the deterministic qualification score and tier
// for a lead. The score is recomputed from scratch on every pass so it is a
// pure function of the profile, never an accumulator.
package scoring

import (
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
)

// Field weights. Zone and budget dominate because they narrow the catalog
// search the most.
const (
	weightZone         = 15
	weightBudget       = 15
	weightOperation    = 10
	weightPropertyType = 10
	weightUrgency      = 10
	weightName         = 5
	weightBedrooms     = 5
	weightPurpose      = 5

	bonusImmediateUrgency = 10
	bonusWantsVisit       = 15

	bonusThreeInteractions = 5
	bonusFiveInteractions  = 5

	maxScore = 100
)

// Tier boundaries, inclusive upper bounds.
const (
	tierColdMax = 25
	tierWarmMax = 50
	tierHotMax  = 75
)

// Compute returns the qualification score for a lead, clamped to [0, 100].
func Compute(lead domain.Lead) int {
	p := lead.Preferences
	score := 0

	if hasText(p.Zone) {
		score += weightZone
	}
	if p.BudgetAmount() != nil {
		score += weightBudget
	}
	if hasText(p.Operation) {
		score += weightOperation
	}
	if hasText(p.PropertyType) {
		score += weightPropertyType
	}
	if hasText(p.Urgency) {
		score += weightUrgency
		if isImmediate(*p.Urgency) {
			score += bonusImmediateUrgency
		}
	}
	if strings.TrimSpace(lead.Name) != "" {
		score += weightName
	}
	if p.Bedrooms != nil && *p.Bedrooms > 0 {
		score += weightBedrooms
	}
	if hasText(p.Purpose) {
		score += weightPurpose
	}

	score += interestPoints(p.Interest)

	if p.WantsVisit != nil && *p.WantsVisit {
		score += bonusWantsVisit
	}

	if lead.TotalInteractions >= 3 {
		score += bonusThreeInteractions
	}
	if lead.TotalInteractions >= 5 {
		score += bonusFiveInteractions
	}

	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

// TierFor maps a score to its qualification bucket.
func TierFor(score int) domain.Tier {
	switch {
	case score <= tierColdMax:
		return domain.TierCold
	case score <= tierWarmMax:
		return domain.TierWarm
	case score <= tierHotMax:
		return domain.TierHot
	default:
		return domain.TierReady
	}
}

// MissingFields lists unanswered profile fields in descending weight order,
// so the agent asks for the most valuable information first.
func MissingFields(lead domain.Lead) []string {
	missing := make([]string, 0, 8)
	p := lead.Preferences

	if !hasText(p.Zone) {
		missing = append(missing, "zona")
	}
	if p.BudgetAmount() == nil {
		missing = append(missing, "presupuesto")
	}
	if !hasText(p.Operation) {
		missing = append(missing, "operacion")
	}
	if !hasText(p.PropertyType) {
		missing = append(missing, "tipo_propiedad")
	}
	if !hasText(p.Urgency) {
		missing = append(missing, "urgencia")
	}
	if strings.TrimSpace(lead.Name) == "" {
		missing = append(missing, "nombre")
	}
	if p.Bedrooms == nil || *p.Bedrooms <= 0 {
		missing = append(missing, "habitaciones")
	}
	if !hasText(p.Purpose) {
		missing = append(missing, "finalidad")
	}
	return missing
}

func interestPoints(interest *string) int {
	if interest == nil {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(*interest)) {
	case "medio":
		return 5
	case "alto":
		return 10
	case "muy alto", "muy_alto":
		return 15
	default:
		return 0
	}
}

// isImmediate reports whether the urgency earns the bonus. Buying within
// three months counts as immediate for scoring purposes.
func isImmediate(urgency string) bool {
	normalized := strings.ToLower(strings.TrimSpace(urgency))
	return normalized == "inmediata" || normalized == "inmediato" || normalized == "1-3 meses"
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
