package domain

// Sentiment es la lectura agregada del moneyline de un equipo.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// TeamSignal es la señal externa por equipo que consume el sentiment filter.
type TeamSignal struct {
	Sentiment     Sentiment `json:"sentiment"`
	Trap          bool      `json:"trap"`
	BlowoutRisk   float64   `json:"blowout_risk"` // 0.0 - 1.0
	ConsensusOdds int       `json:"consensus_odds"`
	Books         []string  `json:"books,omitempty"`
}

// Moneyline es una cuota de moneyline de un book para un juego.
type Moneyline struct {
	Sportsbook string
	HomeTeam   string
	AwayTeam   string
	HomeOdds   int
	AwayOdds   int
}

// Umbrales del análisis de moneyline, calibrados empíricamente.
const (
	bullishThreshold = -130 // consenso más cargado que esto → bullish
	bearishThreshold = 130  // consenso más flojo que esto → bearish
	juiceOutlier     = 50   // un book >50 puntos fuera del consenso → trap
	juiceAllHeavy    = -180 // todos los books por debajo → trap
)

// AssignSentiment clasifica el consenso de odds de un equipo.
func AssignSentiment(consensusOdds int) Sentiment {
	switch {
	case consensusOdds < bullishThreshold:
		return SentimentBullish
	case consensusOdds > bearishThreshold:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// DetectJuiceTrap busca señales de trampa en las odds de todos los books:
// un outlier muy lejos del promedio, o todas las odds excesivamente cargadas.
func DetectJuiceTrap(odds []int) bool {
	if len(odds) == 0 {
		return false
	}
	sum := 0
	for _, o := range odds {
		sum += o
	}
	avg := float64(sum) / float64(len(odds))

	allHeavy := true
	for _, o := range odds {
		diff := float64(o) - avg
		if diff < 0 {
			diff = -diff
		}
		if diff > juiceOutlier {
			return true
		}
		if o >= juiceAllHeavy {
			allHeavy = false
		}
	}
	return allHeavy
}

// BlowoutRisk estima el riesgo de paliza (0-1) según el gap entre los
// consensos de ambos equipos. Gaps chicos igual llevan riesgo residual.
func BlowoutRisk(consensusOdds, opponentOdds int) float64 {
	gap := consensusOdds - opponentOdds
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap > 200:
		return 0.8
	case gap > 150:
		return 0.6
	case gap > 100:
		return 0.4
	case gap > 50:
		return 0.2
	default:
		return 0.1
	}
}

// AnalyzeGame agrega los moneylines de todos los books de un juego y produce
// la señal por equipo: consenso, sentiment, trap y riesgo de blowout.
func AnalyzeGame(lines []Moneyline) map[string]TeamSignal {
	type agg struct {
		odds  []int
		books []string
	}
	byTeam := make(map[string]*agg)
	add := func(team string, odds int, book string) {
		if team == "" {
			return
		}
		a, ok := byTeam[team]
		if !ok {
			a = &agg{}
			byTeam[team] = a
		}
		a.odds = append(a.odds, odds)
		a.books = append(a.books, book)
	}
	for _, ml := range lines {
		add(ml.HomeTeam, ml.HomeOdds, ml.Sportsbook)
		add(ml.AwayTeam, ml.AwayOdds, ml.Sportsbook)
	}
	if len(byTeam) < 2 {
		return nil
	}

	consensus := make(map[string]int, len(byTeam))
	for team, a := range byTeam {
		sum := 0
		for _, o := range a.odds {
			sum += o
		}
		consensus[team] = sum / len(a.odds)
	}

	signals := make(map[string]TeamSignal, len(byTeam))
	for team, a := range byTeam {
		opp := 0
		for other, c := range consensus {
			if other != team {
				opp = c
				break
			}
		}
		signals[team] = TeamSignal{
			Sentiment:     AssignSentiment(consensus[team]),
			Trap:          DetectJuiceTrap(a.odds),
			BlowoutRisk:   BlowoutRisk(consensus[team], opp),
			ConsensusOdds: consensus[team],
			Books:         a.books,
		}
	}
	return signals
}
