package pipeline

import (
	"log/slog"
)

// TightMissFilter suprime claves (player, prop_type) que vienen fallando
// la línea por el margen mínimo: 3+ tight misses en la ventana de 7 días.
// Un near-miss repetido no es mala lectura, pero tampoco es pick.
type TightMissFilter struct{}

func (f *TightMissFilter) Name() string { return "tight_miss" }

func (f *TightMissFilter) Apply(run *Run) {
	if len(run.History.TightMissSuppressed) == 0 {
		return
	}
	suppressed := 0
	for i := range run.Props {
		p := &run.Props[i]
		if run.History.TightMissSuppressed[p.Key()] {
			p.Block("3+ tight misses in trailing window")
			p.Flag("tight_miss_suppressed", "repeated near-miss pattern")
			suppressed++
		}
	}
	if suppressed > 0 {
		slog.Info("tight-miss suppression", "count", suppressed)
	}
}

// RedFlagFilter bloquea claves red-flagged: 3 derrotas seguidas. El flag
// no expira por tiempo sino por performance — recién se levanta con 2
// victorias seguidas, y eso lo decide el tracker al gradear.
type RedFlagFilter struct{}

func (f *RedFlagFilter) Name() string { return "red_flag" }

func (f *RedFlagFilter) Apply(run *Run) {
	if len(run.History.RedFlags) == 0 {
		return
	}
	flagged := 0
	for i := range run.Props {
		p := &run.Props[i]
		if run.History.RedFlags[p.Key()] {
			p.Block("red-flagged: 3 straight losses")
			p.Flag("red_flag", "cold key, needs 2 straight wins to lift")
			flagged++
		}
	}
	if flagged > 0 {
		slog.Info("red-flag filter", "count", flagged)
	}
}
