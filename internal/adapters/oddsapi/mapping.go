package oddsapi

import (
	"strings"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// Umbrales de clasificación de tier por odds.
const (
	lowRiskOdds  = -160 // juice pesado: el book lo considera casi seguro
	highRiskOdds = 120  // plus-odds largo: longshot
)

// mapEventProps agrega los mercados de props de un evento en PropRecords.
// Por cada clave (player, prop_type) se queda con el lean del book de
// referencia (el primero que la lista), y usa el resto de los books para
// las señales de contexto: en cuántos books existe y cuánto difieren las
// líneas entre sí.
func mapEventProps(event eventOddsDTO) []domain.PropRecord {
	type seen struct {
		record  domain.PropRecord
		books   int
		minLine float64
		maxLine float64
	}
	byKey := make(map[string]*seen)
	var order []string

	for _, book := range event.Bookmakers {
		for _, market := range book.Markets {
			propType := marketPropType(market.Key)
			for _, bestSide := range bestSides(market.Outcomes) {
				key := domain.PropKey(bestSide.Description, propType)
				entry, ok := byKey[key]
				if !ok {
					entry = &seen{
						record: domain.PropRecord{
							Player:    bestSide.Description,
							PropType:  propType,
							Sport:     sportLabel(event.SportKey),
							GameKey:   event.AwayTeam + "@" + event.HomeTeam,
							Line:      bestSide.Point,
							Side:      pickSide(bestSide.Name),
							Odds:      bestSide.Price,
							Platform:  book.Key,
							GameStart: event.CommenceTime,
							Tag:       riskTag(bestSide.Price),
						},
						minLine: bestSide.Point,
						maxLine: bestSide.Point,
					}
					byKey[key] = entry
					order = append(order, key)
				}
				entry.books++
				if bestSide.Point < entry.minLine {
					entry.minLine = bestSide.Point
				}
				if bestSide.Point > entry.maxLine {
					entry.maxLine = bestSide.Point
				}
			}
		}
	}

	props := make([]domain.PropRecord, 0, len(order))
	for _, key := range order {
		entry := byKey[key]
		entry.record.BookCount = entry.books
		entry.record.LineMovement = entry.maxLine - entry.minLine
		props = append(props, entry.record)
	}
	return props
}

// bestSides devuelve, por jugador, el lado Over/Under con el precio más
// cargado: el lean del book sobre esa línea.
func bestSides(outcomes []outcomeDTO) []outcomeDTO {
	byPlayer := make(map[string]outcomeDTO)
	var order []string
	for _, o := range outcomes {
		if o.Description == "" {
			continue
		}
		current, ok := byPlayer[o.Description]
		if !ok {
			byPlayer[o.Description] = o
			order = append(order, o.Description)
			continue
		}
		if o.Price < current.Price {
			byPlayer[o.Description] = o
		}
	}
	best := make([]outcomeDTO, 0, len(order))
	for _, player := range order {
		best = append(best, byPlayer[player])
	}
	return best
}

// mapMoneylines convierte los h2h de un evento en una línea por book.
func mapMoneylines(event eventOddsDTO) []domain.Moneyline {
	var lines []domain.Moneyline
	for _, book := range event.Bookmakers {
		for _, market := range book.Markets {
			if market.Key != "h2h" {
				continue
			}
			line := domain.Moneyline{
				Sportsbook: book.Key,
				HomeTeam:   event.HomeTeam,
				AwayTeam:   event.AwayTeam,
			}
			for _, o := range market.Outcomes {
				switch o.Name {
				case event.HomeTeam:
					line.HomeOdds = o.Price
				case event.AwayTeam:
					line.AwayOdds = o.Price
				}
			}
			if line.HomeOdds != 0 && line.AwayOdds != 0 {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func pickSide(name string) domain.PickSide {
	if strings.EqualFold(name, "Under") {
		return domain.SideUnder
	}
	return domain.SideOver
}

func riskTag(odds int) string {
	switch {
	case odds <= lowRiskOdds:
		return domain.TagLowRisk
	case odds >= highRiskOdds:
		return domain.TagHighRisk
	default:
		return ""
	}
}

// marketPropType traduce el market key del API al nombre de stat interno.
func marketPropType(market string) string {
	switch market {
	case "player_points":
		return "Points"
	case "player_rebounds":
		return "Rebounds"
	case "player_assists":
		return "Assists"
	case "player_threes":
		return "Triples"
	case "batter_hits":
		return "Hits"
	case "batter_total_bases":
		return "Total Bases"
	case "pitcher_strikeouts":
		return "Strikeouts"
	case "player_pass_yds":
		return "Pass Yards"
	case "player_rush_yds":
		return "Rush Yards"
	case "player_receptions":
		return "Receptions"
	case "player_shots_on_goal":
		return "Shots on Goal"
	default:
		return titleWords(strings.TrimPrefix(market, "player_"))
	}
}

func titleWords(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// sportLabel reduce el sport key del API a la etiqueta corta interna.
func sportLabel(sportKey string) string {
	if i := strings.LastIndex(sportKey, "_"); i >= 0 {
		return strings.ToUpper(sportKey[i+1:])
	}
	return strings.ToUpper(sportKey)
}
