// Package properties serves the listing catalog to the conversational agent:
// criteria search, reference lookup, chat formatting and mortgage estimates.
package properties

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/repository"
)

const defaultSearchLimit = 5

// Manager answers catalog queries.
type Manager struct {
	catalog repository.PropertyReader
}

// NewManager creates a property manager over the given catalog.
func NewManager(catalog repository.PropertyReader) *Manager {
	return &Manager{catalog: catalog}
}

// Search returns up to limit available listings matching the criteria.
func (m *Manager) Search(ctx context.Context, criteria repository.PropertyCriteria) ([]domain.Property, error) {
	if criteria.Limit <= 0 {
		criteria.Limit = defaultSearchLimit
	}
	return m.catalog.SearchProperties(ctx, criteria)
}

// ByReference looks up one listing by its public reference code.
func (m *Manager) ByReference(ctx context.Context, reference string) (domain.Property, error) {
	return m.catalog.GetPropertyByReference(ctx, reference)
}

// FormatForChat renders one listing as a chat message.
func FormatForChat(prop domain.Property) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("🏠 *%s*", prop.Title))

	if prop.Operation == "alquiler" {
		lines = append(lines, fmt.Sprintf("💰 %s€/mes", formatThousands(prop.Price)))
	} else {
		lines = append(lines, fmt.Sprintf("💰 %s€", formatThousands(prop.Price)))
	}

	var details []string
	if prop.SquareMeters > 0 {
		details = append(details, fmt.Sprintf("📐 %d m²", prop.SquareMeters))
	}
	if prop.Bedrooms > 0 {
		details = append(details, fmt.Sprintf("🛏️ %d hab.", prop.Bedrooms))
	}
	if prop.Bathrooms > 0 {
		details = append(details, fmt.Sprintf("🚿 %d baños", prop.Bathrooms))
	}
	if prop.Zone != "" {
		details = append(details, fmt.Sprintf("📍 %s", prop.Zone))
	}
	if len(details) > 0 {
		lines = append(lines, strings.Join(details, " · "))
	}

	if desc := strings.TrimSpace(prop.Description); desc != "" {
		if len(desc) > 150 {
			desc = desc[:150] + "..."
		}
		lines = append(lines, "", desc)
	}
	if prop.Reference != "" {
		lines = append(lines, "", fmt.Sprintf("_Ref: %s_", prop.Reference))
	}
	return strings.Join(lines, "\n")
}

// FormatList renders a search result as a single chat message, with a
// friendly fallback when nothing matched.
func FormatList(properties []domain.Property) string {
	if len(properties) == 0 {
		return "No he encontrado propiedades que encajen exactamente con lo que buscas en este momento. " +
			"Pero puedo tomar nota de tus preferencias y avisarte en cuanto tengamos algo nuevo. " +
			"¿Te parece bien? 😊"
	}

	parts := []string{fmt.Sprintf("He encontrado %d propiedad(es) que podrían interesarte:\n", len(properties))}
	for i, prop := range properties {
		parts = append(parts, fmt.Sprintf("━━━ Opción %d ━━━", i+1))
		parts = append(parts, FormatForChat(prop))
	}
	parts = append(parts, "\n¿Te gustaría más información sobre alguna de estas propiedades? ¿O quieres que agendemos una visita? 🏡")
	return strings.Join(parts, "\n\n")
}

// Mortgage is a fixed-rate loan estimate.
type Mortgage struct {
	Price          float64
	DownPayment    float64
	DownPaymentPct float64
	LoanAmount     float64
	InterestRate   float64
	Years          int
	MonthlyPayment float64
	TotalPaid      float64
	TotalInterest  float64
}

// CalculateMortgage estimates a fixed-rate mortgage using the French
// amortization formula. Zero parameters take standard defaults
// (20% down, 3.5% annual, 30 years).
func CalculateMortgage(price, downPaymentPct, interestRate float64, years int) Mortgage {
	if downPaymentPct <= 0 {
		downPaymentPct = 20
	}
	if interestRate <= 0 {
		interestRate = 3.5
	}
	if years <= 0 {
		years = 30
	}

	downPayment := price * (downPaymentPct / 100)
	loanAmount := price - downPayment

	monthlyRate := (interestRate / 100) / 12
	payments := float64(years * 12)

	var monthly float64
	if monthlyRate > 0 {
		factor := math.Pow(1+monthlyRate, payments)
		monthly = loanAmount * (monthlyRate * factor) / (factor - 1)
	} else {
		monthly = loanAmount / payments
	}

	totalPaid := monthly * payments
	return Mortgage{
		Price:          price,
		DownPayment:    downPayment,
		DownPaymentPct: downPaymentPct,
		LoanAmount:     loanAmount,
		InterestRate:   interestRate,
		Years:          years,
		MonthlyPayment: math.Round(monthly*100) / 100,
		TotalPaid:      math.Round(totalPaid*100) / 100,
		TotalInterest:  math.Round((totalPaid-loanAmount)*100) / 100,
	}
}

// FormatMortgage renders a mortgage estimate as a chat message.
func FormatMortgage(m Mortgage) string {
	return fmt.Sprintf(
		"💰 *Simulación de Hipoteca*\n\n"+
			"🏷️ Precio: %s€\n"+
			"💵 Entrada (%.0f%%): %s€\n"+
			"🏦 Importe financiado: %s€\n"+
			"📊 Tipo de interés: %.2f%% fijo\n"+
			"📅 Plazo: %d años\n\n"+
			"📌 *Cuota mensual: %s€/mes*\n\n"+
			"_⚠️ Esta es una estimación orientativa. "+
			"El tipo de interés y las condiciones reales dependerán de tu banco y perfil financiero._",
		formatThousands(m.Price), m.DownPaymentPct, formatThousands(m.DownPayment),
		formatThousands(m.LoanAmount), m.InterestRate, m.Years,
		formatThousands(m.MonthlyPayment),
	)
}

// formatThousands renders a rounded amount with dot thousand separators,
// Spanish style.
func formatThousands(amount float64) string {
	raw := fmt.Sprintf("%.0f", math.Round(amount))
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	var b strings.Builder
	for i, digit := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
