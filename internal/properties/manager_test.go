package properties

import (
	"math"
	"strings"
	"testing"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
)

func TestCalculateMortgage(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		downPct     float64
		rate        float64
		years       int
		wantMonthly float64
	}{
		{
			// 300000, 20% down, 3.5%, 30y: loan 240000, monthly ~1077.71
			name:        "standard defaults",
			price:       300000,
			wantMonthly: 1077.71,
		},
		{
			// 200000, 30% down, 2.5%, 20y: loan 140000, monthly ~741.85
			name:        "custom terms",
			price:       200000,
			downPct:     30,
			rate:        2.5,
			years:       20,
			wantMonthly: 741.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CalculateMortgage(tt.price, tt.downPct, tt.rate, tt.years)
			if math.Abs(m.MonthlyPayment-tt.wantMonthly) > 0.5 {
				t.Errorf("MonthlyPayment = %.2f, want ~%.2f", m.MonthlyPayment, tt.wantMonthly)
			}
			if m.LoanAmount+m.DownPayment != m.Price {
				t.Errorf("loan %.2f + down %.2f != price %.2f", m.LoanAmount, m.DownPayment, m.Price)
			}
			wantTotal := m.MonthlyPayment * float64(m.Years*12)
			if math.Abs(m.TotalPaid-wantTotal) > 1 {
				t.Errorf("TotalPaid = %.2f, want ~%.2f", m.TotalPaid, wantTotal)
			}
		})
	}
}

func TestCalculateMortgageDefaults(t *testing.T) {
	m := CalculateMortgage(100000, 0, 0, 0)
	if m.DownPaymentPct != 20 {
		t.Errorf("default down payment = %.0f, want 20", m.DownPaymentPct)
	}
	if m.InterestRate != 3.5 {
		t.Errorf("default rate = %.2f, want 3.5", m.InterestRate)
	}
	if m.Years != 30 {
		t.Errorf("default years = %d, want 30", m.Years)
	}
}

func TestFormatForChat(t *testing.T) {
	prop := domain.Property{
		Reference:    "REF-001",
		Title:        "Piso luminoso en Chamberí",
		PropertyType: "piso",
		Operation:    "venta",
		Price:        325000,
		Zone:         "Chamberí",
		Bedrooms:     3,
		Bathrooms:    2,
		SquareMeters: 95,
		Description:  "Reformado, exterior, tercera planta con ascensor.",
	}

	text := FormatForChat(prop)
	for _, fragment := range []string{"Piso luminoso en Chamberí", "325.000€", "3 hab.", "95 m²", "Ref: REF-001"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("FormatForChat() missing %q in:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, "€/mes") {
		t.Error("sale listing formatted with rental price suffix")
	}
}

func TestFormatForChatRental(t *testing.T) {
	prop := domain.Property{Title: "Ático", Operation: "alquiler", Price: 1200}
	if text := FormatForChat(prop); !strings.Contains(text, "1.200€/mes") {
		t.Errorf("rental price not formatted per month:\n%s", text)
	}
}

func TestFormatListEmpty(t *testing.T) {
	text := FormatList(nil)
	if !strings.Contains(text, "No he encontrado propiedades") {
		t.Errorf("empty result fallback missing, got:\n%s", text)
	}
}

func TestFormatListNumbersOptions(t *testing.T) {
	props := []domain.Property{
		{Title: "Uno", Price: 100000},
		{Title: "Dos", Price: 200000},
	}
	text := FormatList(props)
	if !strings.Contains(text, "Opción 1") || !strings.Contains(text, "Opción 2") {
		t.Errorf("options not numbered:\n%s", text)
	}
	if !strings.Contains(text, "He encontrado 2 propiedad(es)") {
		t.Errorf("header missing count:\n%s", text)
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1200, "1.200"},
		{325000, "325.000"},
		{1250000, "1.250.000"},
	}
	for _, tt := range tests {
		if got := formatThousands(tt.in); got != tt.want {
			t.Errorf("formatThousands(%.0f) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
