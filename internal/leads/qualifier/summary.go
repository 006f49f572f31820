package qualifier

import (
	"fmt"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/scoring"
)

// Summary renders the qualification state of a lead for a human reader, used
// in handoff and hot-lead notifications.
func Summary(lead domain.Lead) string {
	p := lead.Preferences

	lines := []string{
		"📊 *Cualificación de Lead*",
		fmt.Sprintf("• Nombre: %s", orUnknown(lead.Name)),
		fmt.Sprintf("• Score: %d/100 (%s)", lead.Score, lead.Tier),
		fmt.Sprintf("• Estado: %s", lead.Status),
		fmt.Sprintf("• Canal: %s", lead.Channel),
		fmt.Sprintf("• Interacciones: %d", lead.TotalInteractions),
		"",
		"🏠 *Preferencias*",
		fmt.Sprintf("• Operación: %s", orMissing(p.Operation)),
		fmt.Sprintf("• Tipo: %s", orMissing(p.PropertyType)),
		fmt.Sprintf("• Zona: %s", orMissing(p.Zone)),
		fmt.Sprintf("• Presupuesto: %s", budgetText(p.BudgetAmount())),
		fmt.Sprintf("• Habitaciones: %s", bedroomsText(p.Bedrooms)),
		fmt.Sprintf("• Urgencia: %s", orMissing(p.Urgency)),
		fmt.Sprintf("• Finalidad: %s", orMissing(p.Purpose)),
	}

	if missing := scoring.MissingFields(lead); len(missing) > 0 {
		lines = append(lines, "", fmt.Sprintf("⚠️ *Falta por averiguar*: %s", strings.Join(missing, ", ")))
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No proporcionado"
	}
	return s
}

func orMissing(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "❓"
	}
	return *s
}

func budgetText(budget *float64) string {
	if budget == nil || *budget <= 0 {
		return "❓"
	}
	return fmt.Sprintf("%.0f€", *budget)
}

func bedroomsText(bedrooms *int) string {
	if bedrooms == nil || *bedrooms <= 0 {
		return "❓"
	}
	return fmt.Sprintf("%d", *bedrooms)
}
