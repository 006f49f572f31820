package qualifier

import (
	"encoding/json"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"
)

const extractionSystemPrompt = "Eres un extractor de datos. Responde SOLO con JSON válido, sin markdown ni explicaciones."

const extractionPrompt = `Analiza la siguiente conversación con un cliente inmobiliario y extrae la información disponible.

Responde SOLO con un JSON válido con estos campos (usa null si no se mencionó):
{
    "operation": "comprar|alquilar|vender|null",
    "property_type": "piso|casa|chalet|ático|dúplex|estudio|local|oficina|terreno|null",
    "zone": "zona mencionada o null",
    "min_budget": número o null,
    "max_budget": número o null,
    "bedrooms": número o null,
    "bathrooms": número o null,
    "min_sqm": número o null,
    "parking": true|false|null,
    "urgency": "inmediata|1-3 meses|3-6 meses|sin prisa|null",
    "purpose": "primera vivienda|inversión|segunda residencia|null",
    "name": "nombre del cliente o null",
    "interest_level": "bajo|medio|alto|muy alto",
    "wants_visit": true|false,
    "wants_human_agent": true|false,
    "notes": "cualquier otra info relevante"
}

CONVERSACIÓN:
`

// extraction mirrors the JSON contract of the extraction call. Pointers keep
// "not mentioned" distinct from zero values.
type extraction struct {
	Operation    *string  `json:"operation"`
	PropertyType *string  `json:"property_type"`
	Zone         *string  `json:"zone"`
	MinBudget    *float64 `json:"min_budget"`
	MaxBudget    *float64 `json:"max_budget"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	MinSqm       *int     `json:"min_sqm"`
	Parking      *bool    `json:"parking"`
	Urgency      *string  `json:"urgency"`
	Purpose      *string  `json:"purpose"`
	Name         *string  `json:"name"`
	Interest     *string  `json:"interest_level"`
	WantsVisit   *bool    `json:"wants_visit"`
	WantsHuman   *bool    `json:"wants_human_agent"`
	Notes        *string  `json:"notes"`
}

// parseExtraction decodes the model output, tolerating a markdown fence.
// A reply that is not a JSON object returns ok=false; the caller skips the
// pass instead of corrupting the profile.
func parseExtraction(raw string) (extraction, bool) {
	cleaned := reasoning.StripCodeFences(raw)
	var ext extraction
	if err := json.Unmarshal([]byte(cleaned), &ext); err != nil {
		return extraction{}, false
	}
	ext.normalize()
	return ext, true
}

// normalize drops literal "null" strings and blank values the model sometimes
// emits instead of JSON null.
func (e *extraction) normalize() {
	e.Operation = cleanString(e.Operation)
	e.PropertyType = cleanString(e.PropertyType)
	e.Zone = cleanString(e.Zone)
	e.Urgency = cleanString(e.Urgency)
	e.Purpose = cleanString(e.Purpose)
	e.Name = cleanString(e.Name)
	e.Interest = cleanString(e.Interest)
	e.Notes = cleanString(e.Notes)
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// merge applies the extraction to the lead profile, fill-only: a field the
// lead already answered is never overwritten by a later extraction.
func merge(lead domain.Lead, ext extraction) domain.Lead {
	p := &lead.Preferences

	if p.Operation == nil && ext.Operation != nil {
		p.Operation = ext.Operation
	}
	if p.PropertyType == nil && ext.PropertyType != nil {
		p.PropertyType = ext.PropertyType
	}
	if p.Zone == nil && ext.Zone != nil {
		p.Zone = ext.Zone
	}
	if p.MinBudget == nil && ext.MinBudget != nil && *ext.MinBudget > 0 {
		p.MinBudget = ext.MinBudget
	}
	if p.MaxBudget == nil && ext.MaxBudget != nil && *ext.MaxBudget > 0 {
		p.MaxBudget = ext.MaxBudget
	}
	if p.Bedrooms == nil && ext.Bedrooms != nil && *ext.Bedrooms > 0 {
		p.Bedrooms = ext.Bedrooms
	}
	if p.Bathrooms == nil && ext.Bathrooms != nil && *ext.Bathrooms > 0 {
		p.Bathrooms = ext.Bathrooms
	}
	if p.MinSqm == nil && ext.MinSqm != nil && *ext.MinSqm > 0 {
		p.MinSqm = ext.MinSqm
	}
	if p.Parking == nil && ext.Parking != nil {
		p.Parking = ext.Parking
	}
	if p.Urgency == nil && ext.Urgency != nil {
		p.Urgency = ext.Urgency
	}
	if p.Purpose == nil && ext.Purpose != nil {
		p.Purpose = ext.Purpose
	}
	if p.Notes == nil && ext.Notes != nil {
		p.Notes = ext.Notes
	}
	if lead.Name == "" && ext.Name != nil {
		lead.Name = *ext.Name
	}

	// Interest and visit intent track the current conversation, they are
	// refreshed rather than filled once.
	if ext.Interest != nil {
		p.Interest = ext.Interest
	}
	if ext.WantsVisit != nil && *ext.WantsVisit {
		p.WantsVisit = ext.WantsVisit
	}

	return lead
}
