package domain

// GradeSelection compara el valor real contra la línea según el lado elegido.
// Igualdad exacta con la línea es PUSH, nunca WIN ni LOSS.
func GradeSelection(side PickSide, line, actual float64) Result {
	if actual == line {
		return ResultPush
	}
	over := actual > line
	if (side == SideOver && over) || (side == SideUnder && !over) {
		return ResultWin
	}
	return ResultLoss
}

// CombineLegResults deriva el resultado del ticket a partir de sus legs:
//   - LOSS si cualquier leg perdió (decide aunque haya legs UNKNOWN).
//   - PENDING si queda algún leg UNKNOWN y ninguno perdió — un ticket con
//     legs sin gradear nunca se marca WIN.
//   - PUSH si no hubo LOSS y al menos un leg empujó (push-or-win cuenta
//     como push, no como win: regla de negocio, no la "corrijas").
//   - WIN solo si todos los legs ganaron.
func CombineLegResults(legs []Result) Result {
	if len(legs) == 0 {
		return ResultPending
	}
	anyUnknown, anyPush := false, false
	for _, r := range legs {
		switch r {
		case ResultLoss:
			return ResultLoss
		case ResultUnknown, ResultPending:
			anyUnknown = true
		case ResultPush:
			anyPush = true
		}
	}
	if anyUnknown {
		return ResultPending
	}
	if anyPush {
		return ResultPush
	}
	return ResultWin
}

// TightMiss devuelve true si un leg perdido falló la línea por el margen
// mínimo: ≤1 unidad, o ≤0.5 para líneas de medio punto.
func TightMiss(line, actual float64, halfPointLine bool) bool {
	diff := actual - line
	if diff < 0 {
		diff = -diff
	}
	if halfPointLine {
		return diff <= 0.5
	}
	return diff <= 1.0
}
