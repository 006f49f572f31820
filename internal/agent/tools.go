package agent

import "github.com/AldoPgm/Agente-Inmobiliario/platform/ai/reasoning"

// Action names the model may request.
const (
	actionSearchProperties   = "search_properties"
	actionGetPropertyDetails = "get_property_details"
	actionScheduleVisit      = "schedule_visit"
	actionCheckAvailability  = "check_availability"
	actionCalculateMortgage  = "calculate_mortgage"
	actionTransferToHuman    = "transfer_to_human"
)

// agentTools declares the fixed action set offered on every reasoning call.
var agentTools = []reasoning.Tool{
	{
		Name:        actionSearchProperties,
		Description: "Busca propiedades disponibles que coincidan con los criterios del cliente. Úsalo cuando el cliente describe lo que busca.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"zone": map[string]any{
					"type":        "string",
					"description": "Zona o barrio donde busca (ej: 'Centro', 'Chamberí', 'Salamanca')",
				},
				"property_type": map[string]any{
					"type":        "string",
					"enum":        []string{"piso", "casa", "chalet", "ático", "dúplex", "estudio", "local"},
					"description": "Tipo de inmueble",
				},
				"max_price": map[string]any{
					"type":        "number",
					"description": "Presupuesto máximo en euros",
				},
				"bedrooms": map[string]any{
					"type":        "integer",
					"description": "Número mínimo de habitaciones",
				},
				"operation": map[string]any{
					"type":        "string",
					"enum":        []string{"comprar", "alquilar"},
					"description": "Tipo de operación",
				},
			},
		},
	},
	{
		Name:        actionGetPropertyDetails,
		Description: "Obtiene los detalles completos de una propiedad específica por su referencia. Úsalo cuando el cliente pide más info sobre un inmueble.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reference": map[string]any{
					"type":        "string",
					"description": "Referencia de la propiedad (ej: 'REF-001', 'REF-015')",
				},
			},
			"required": []string{"reference"},
		},
	},
	{
		Name:        actionScheduleVisit,
		Description: "Agenda una visita a una propiedad. Úsalo cuando el cliente quiere ver un inmueble y da una fecha/hora.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"property_reference": map[string]any{
					"type":        "string",
					"description": "Referencia de la propiedad a visitar",
				},
				"preferred_date": map[string]any{
					"type":        "string",
					"description": "Fecha preferida en formato YYYY-MM-DD",
				},
				"preferred_time": map[string]any{
					"type":        "string",
					"description": "Hora preferida en formato HH:MM",
				},
			},
			"required": []string{"property_reference", "preferred_date", "preferred_time"},
		},
	},
	{
		Name:        actionCheckAvailability,
		Description: "Consulta los horarios disponibles para agendar una visita en una fecha concreta.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": map[string]any{
					"type":        "string",
					"description": "Fecha a consultar en formato YYYY-MM-DD",
				},
			},
			"required": []string{"date"},
		},
	},
	{
		Name:        actionCalculateMortgage,
		Description: "Calcula la hipoteca aproximada para una propiedad. Úsalo cuando el cliente pregunta por cuotas mensuales o financiación.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"price": map[string]any{
					"type":        "number",
					"description": "Precio del inmueble en euros",
				},
				"down_payment_percent": map[string]any{
					"type":        "number",
					"description": "Porcentaje de entrada (por defecto 20)",
				},
				"years": map[string]any{
					"type":        "integer",
					"description": "Años de la hipoteca (por defecto 30)",
				},
				"interest_rate": map[string]any{
					"type":        "number",
					"description": "Tipo de interés anual (por defecto 3.5)",
				},
			},
			"required": []string{"price"},
		},
	},
	{
		Name:        actionTransferToHuman,
		Description: "Transfiere la conversación a un agente humano. Úsalo SOLO cuando: el cliente lo pide explícitamente, quiere negociar/hacer oferta, tiene una queja, o el caso es muy complejo.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":        "string",
					"enum":        []string{"solicitud_directa", "negociacion", "queja_cliente", "urgente", "otro"},
					"description": "Motivo de la derivación",
				},
				"summary": map[string]any{
					"type":        "string",
					"description": "Breve resumen de la conversación para el agente humano",
				},
			},
			"required": []string{"reason", "summary"},
		},
	},
}
