package agent

import (
	"fmt"
	"strings"

	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/domain"
	"github.com/AldoPgm/Agente-Inmobiliario/internal/leads/scoring"
)

func systemPrompt(agentName, companyName string) string {
	return fmt.Sprintf(`Eres %s, asesora inmobiliaria virtual de %s.

## Tu Personalidad
- Eres profesional, cercana y empática
- Hablas de forma natural y cálida, como una asesora real con experiencia
- Usas un tono comercial pero no agresivo
- Transmites confianza y conocimiento del mercado

## Tu Objetivo
- Atender al cliente de forma excelente
- Entender sus necesidades: presupuesto, zona, tipo de inmueble, urgencia
- Presentar propiedades que encajen con su perfil
- Agendar visitas cuando haya interés real
- Cualificar el nivel de interés del cliente

## Memoria y Contexto Conversacional
- TIENES MEMORIA. Recibirás el historial de mensajes previos con el cliente.
- Si ya hay mensajes previos en la conversación, NO saludes como si fuera la primera vez. Continúa la conversación de forma natural.
- Solo saluda y preséntate en el PRIMER mensaje (cuando no hay historial previo).
- Recuerda y referencia lo que el cliente ya te dijo: su nombre, qué busca, presupuesto, zona, etc.
- No repitas información que ya compartiste. Si ya mostraste una propiedad, no la vuelvas a describir completa, solo refiérete a ella por nombre o referencia.

## Reglas
- NUNCA inventes información sobre propiedades. Solo usa los datos que se te proporcionan
- Si no tienes una propiedad que encaje, dilo honestamente y ofrece alternativas o tomar sus datos
- Cuando detectes interés alto, sugiere agendar una visita
- Si el cliente pide hablar con una persona, ofrece derivar a un agente humano
- Mantén las respuestas concisas pero informativas (máximo 3-4 párrafos)
- Usa emojis con moderación para dar calidez (🏠 📍 ✨)
- Responde SIEMPRE en español

## Flujo de Cualificación
Recibirás un "Estado de Cualificación" con los datos que ya conoces y los que aún faltan, ordenados por prioridad.
- Prioriza averiguar los datos que faltan de forma natural y conversacional.
- NO hagas varias preguntas de golpe. Máximo 1-2 por mensaje.
- Solo pregunta por datos que AÚN NO CONOCES según el estado de cualificación.
- Si el cliente no responde a algo, no insistas, pasa a otro tema.
- Cuando tengas todos los datos clave, enfócate en proponer propiedades y agendar visitas.`, agentName, companyName)
}

// fieldPoints pairs each profile field with its score weight and the phrasing
// used to ask the model to pursue it.
var fieldPoints = []struct {
	key    string
	label  string
	points int
}{
	{"zona", "zona o barrio de interés", 15},
	{"presupuesto", "presupuesto aproximado", 15},
	{"operacion", "si quiere comprar o alquilar", 10},
	{"tipo_propiedad", "tipo de inmueble (piso, casa, etc.)", 10},
	{"urgencia", "urgencia / cuándo lo necesita", 10},
	{"nombre", "nombre del cliente", 5},
	{"habitaciones", "número de habitaciones", 5},
	{"finalidad", "finalidad (vivienda habitual, inversión...)", 5},
}

// qualificationContext builds the prompt section describing what the agent
// already knows about the lead and what it should try to find out next.
func qualificationContext(lead domain.Lead) string {
	p := lead.Preferences

	var known []string
	if p.Operation != nil {
		known = append(known, fmt.Sprintf("- Operación: %s", *p.Operation))
	}
	if p.PropertyType != nil {
		known = append(known, fmt.Sprintf("- Tipo inmueble: %s", *p.PropertyType))
	}
	if p.Zone != nil {
		known = append(known, fmt.Sprintf("- Zona: %s", *p.Zone))
	}
	if budget := p.BudgetAmount(); budget != nil {
		known = append(known, fmt.Sprintf("- Presupuesto: %.0f€", *budget))
	}
	if p.Bedrooms != nil && *p.Bedrooms > 0 {
		known = append(known, fmt.Sprintf("- Habitaciones: %d", *p.Bedrooms))
	}
	if p.Urgency != nil {
		known = append(known, fmt.Sprintf("- Urgencia: %s", *p.Urgency))
	}
	if p.Purpose != nil {
		known = append(known, fmt.Sprintf("- Finalidad: %s", *p.Purpose))
	}
	if lead.Name != "" {
		known = append(known, fmt.Sprintf("- Nombre: %s", lead.Name))
	}

	missing := scoring.MissingFields(lead)
	missingSet := make(map[string]bool, len(missing))
	for _, field := range missing {
		missingSet[field] = true
	}

	lines := []string{"## Estado de Cualificación"}
	lines = append(lines, fmt.Sprintf("Score actual: %d/100 (%s)", lead.Score, lead.Tier))

	if len(known) > 0 {
		lines = append(lines, "", "Datos ya conocidos:")
		lines = append(lines, known...)
	}

	if len(missing) > 0 {
		lines = append(lines, "", "⚠️ DATOS QUE AÚN NECESITAS AVERIGUAR (ordenados por prioridad):")
		for _, fp := range fieldPoints {
			if missingSet[fp.key] {
				lines = append(lines, fmt.Sprintf("- %s (+%d puntos)", fp.label, fp.points))
			}
		}
		lines = append(lines,
			"",
			"INSTRUCCIÓN: Intenta averiguar los datos que faltan de forma natural durante la conversación.",
			"Prioriza los que están más arriba (valen más puntos). NO preguntes más de 1-2 cosas a la vez.",
			"Si ya preguntaste algo y el cliente no respondió, no insistas. Pasa a otro tema.",
		)
	} else {
		lines = append(lines,
			"",
			"✅ ¡Tienes toda la información clave! Este lead está bien cualificado.",
			"Enfócate en cerrar: proponer propiedades concretas y agendar visita.",
		)
	}

	return strings.Join(lines, "\n")
}
