package domain

import "math"

// ImpliedProbability convierte odds americanas a probabilidad implícita (0-1).
// Devuelve 0 para odds inválidas (0 no existe en la convención americana).
func ImpliedProbability(american int) float64 {
	switch {
	case american > 0:
		return 100.0 / (float64(american) + 100.0)
	case american < 0:
		a := math.Abs(float64(american))
		return a / (a + 100.0)
	default:
		return 0
	}
}

// DecimalOdds convierte odds americanas al multiplicador decimal.
func DecimalOdds(american int) float64 {
	switch {
	case american > 0:
		return 1.0 + float64(american)/100.0
	case american < 0:
		return 1.0 + 100.0/math.Abs(float64(american))
	default:
		return 0
	}
}

// ParlayPayout devuelve el pago potencial de un parlay para un stake dado,
// multiplicando las odds decimales de cada leg.
func ParlayPayout(stake float64, legs []int) float64 {
	if stake <= 0 || len(legs) == 0 {
		return 0
	}
	mult := 1.0
	for _, odds := range legs {
		d := DecimalOdds(odds)
		if d == 0 {
			return 0
		}
		mult *= d
	}
	return math.Round(stake*mult*100) / 100
}

// AbsOdds devuelve el valor absoluto de las odds, usado como tie-break
// al ordenar candidatos (odds más extremas = tickets más distintos).
func AbsOdds(american int) int {
	if american < 0 {
		return -american
	}
	return american
}
