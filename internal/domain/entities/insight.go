package entities

import "fmt"

// InsightType classifies a user's energy distribution over a period.
type InsightType string

const (
	InsightBurnout            InsightType = "BURNOUT"
	InsightLazy               InsightType = "LAZY"
	InsightNeglectingRenewal  InsightType = "NEGLECTING_RENEWAL"
	InsightHighPerformer      InsightType = "HIGH_PERFORMER"
	InsightBalanced           InsightType = "BALANCED"
	InsightUndefined          InsightType = "UNDEFINED"
)

// Insight is the coaching verdict shown on the dashboard.
type Insight struct {
	Type     InsightType `json:"type"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`
	ColorHex string      `json:"color_hex"`
}

// EnergyDistribution holds the percentage of completed minutes per energy
// level, each rounded to one decimal.
type EnergyDistribution struct {
	HighEnergy float64 `json:"HIGH_ENERGY"`
	Renewal    float64 `json:"RENEWAL"`
	LowEnergy  float64 `json:"LOW_ENERGY"`
}

// CalculateInsight maps a distribution to an insight. Rules are evaluated
// in order and the first match wins.
func CalculateInsight(d EnergyDistribution) Insight {
	high, renewal, low := d.HighEnergy, d.Renewal, d.LowEnergy

	if high > 60 {
		return Insight{
			Type:     InsightBurnout,
			Title:    "Cuidado com Burnout",
			Message:  fmt.Sprintf("Você está dedicando %.0f%% do tempo em tarefas de Alta Energia. Inclua pausas de Renovação para manter a produtividade sustentável e evitar esgotamento mental.", high),
			ColorHex: "#FF453A",
		}
	}

	if low > 50 {
		return Insight{
			Type:     InsightLazy,
			Title:    "Foco Insuficiente",
			Message:  fmt.Sprintf("%.0f%% do seu tempo está em tarefas de Baixa Energia. Reserve blocos dedicados para tarefas de Alta Energia e avance em projetos importantes.", low),
			ColorHex: "#FF9F0A",
		}
	}

	if renewal < 10 && high+low > 80 {
		return Insight{
			Type:     InsightNeglectingRenewal,
			Title:    "Pause e Recarregue",
			Message:  fmt.Sprintf("Apenas %.0f%% do tempo em Renovação. Atividades como exercício, meditação ou hobbies são essenciais para manter energia e criatividade ao longo do tempo.", renewal),
			ColorHex: "#BF5AF2",
		}
	}

	if high >= 35 && high <= 55 && renewal >= 15 {
		return Insight{
			Type:     InsightHighPerformer,
			Title:    "Excelente Equilíbrio",
			Message:  fmt.Sprintf("Você está distribuindo bem sua energia: %.0f%% em foco, %.0f%% em renovação. Continue alternando para manter alta performance sustentável.", high, renewal),
			ColorHex: "#32D74B",
		}
	}

	if renewal >= 15 && high >= 25 && low <= 45 {
		return Insight{
			Type:     InsightBalanced,
			Title:    "Ritmo Saudável",
			Message:  "Sua distribuição de energia está adequada. Continue alternando entre foco intenso, tarefas rotineiras e momentos de renovação.",
			ColorHex: "#30D158",
		}
	}

	return Insight{
		Type:     InsightUndefined,
		Title:    "Ajuste sua Energia",
		Message:  fmt.Sprintf("Sua distribuição atual (%.0f%% alta, %.0f%% baixa, %.0f%% renovação) pode ser otimizada. Busque mais equilíbrio entre as categorias.", high, low, renewal),
		ColorHex: "#8E8E93",
	}
}
