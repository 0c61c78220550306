// Package ai contiene los adaptadores del puerto Narrator hacia proveedores de LLM.
// Todos comparten el mismo prompt y el mismo parseo de la respuesta JSON.
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

const narrativeSystemPrompt = `Você é um auditor especialista em fiscalização de recursos públicos da alimentação escolar.
Recebe o resultado de uma análise automática já concluída. Não recalcule o score nem altere os alertas.
Devolva ÚNICAMENTE um objeto JSON válido (sem markdown) com esta estrutura exata:
{
  "justificativa": "<explicação técnica da análise, máximo 600 caracteres>",
  "pontos_atencao": ["<ponto 1>", "<ponto 2>"],
  "recomendacao_final": "<o que o órgão fiscalizador deve fazer>"
}`

// narrativePayload JSON esperado del modelo.
type narrativePayload struct {
	Justification  string   `json:"justificativa"`
	AttentionItems []string `json:"pontos_atencao"`
	Recommendation string   `json:"recomendacao_final"`
}

type promptAlert struct {
	Kind        string `json:"tipo"`
	Severity    string `json:"severidade"`
	Description string `json:"descricao"`
}

// buildNarrativePrompt describe la factura y el análisis final para el modelo.
func buildNarrativePrompt(a *entity.Analysis) string {
	alerts := make([]promptAlert, 0, len(a.Alerts))
	for _, al := range a.Alerts {
		alerts = append(alerts, promptAlert{
			Kind:        string(al.Kind),
			Severity:    string(al.Severity),
			Description: al.Description,
		})
	}
	alertsJSON, _ := json.MarshalIndent(alerts, "", "  ")

	var b strings.Builder
	b.WriteString("NOTA FISCAL:\n")
	fmt.Fprintf(&b, "- Escola: %s\n", a.SchoolID)
	fmt.Fprintf(&b, "- Fornecedor: %s (CNPJ %s)\n", a.SupplierName, a.SupplierTaxID)
	fmt.Fprintf(&b, "- Valor Total: R$ %s\n", a.DeclaredTotal.StringFixed(2))
	fmt.Fprintf(&b, "- Itens verificados: %d\n\n", a.Details.Price.LinesChecked)
	b.WriteString("ALERTAS DETECTADOS AUTOMATICAMENTE:\n")
	b.Write(alertsJSON)
	fmt.Fprintf(&b, "\n\nSCORE: %.2f/100 (risco %s)\n", a.Score, a.Tier)
	if a.RequiresInvestigation {
		b.WriteString("A nota já está marcada para investigação.\n")
	}
	return b.String()
}

// parseNarrative extrae el JSON de la respuesta y lo compone en un único texto.
func parseNarrative(raw string) (string, error) {
	clean := extractJSON(raw)
	if clean == "" {
		return "", fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", truncate(raw, 200))
	}
	var p narrativePayload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return "", fmt.Errorf("AI: parsear JSON de narrativa: %w", err)
	}
	if strings.TrimSpace(p.Justification) == "" {
		return "", fmt.Errorf("AI: narrativa sin justificativa")
	}

	parts := []string{strings.TrimSpace(p.Justification)}
	var items []string
	for _, it := range p.AttentionItems {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	if len(items) > 0 {
		parts = append(parts, "Pontos de atenção: "+strings.Join(items, "; ")+".")
	}
	if r := strings.TrimSpace(p.Recommendation); r != "" {
		parts = append(parts, "Recomendação: "+r)
	}
	return strings.Join(parts, "\n"), nil
}

// jsonBlockRe captura desde el primer '{' hasta el último '}'.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el primer objeto JSON de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
