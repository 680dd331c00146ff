package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/propbot/internal/domain"
)

// tightMissEntry registra un near-miss: una derrota por el margen mínimo.
type tightMissEntry struct {
	Key string `json:"key"`
	Day string `json:"day"`
}

// Performance es el resumen acumulado de resultados y bankroll.
type Performance struct {
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Pushes   int     `json:"pushes"`
	Staked   float64 `json:"staked"`
	Returned float64 `json:"returned"`
}

// WinRate devuelve wins / (wins + losses). Los pushes no cuentan.
func (p Performance) WinRate() float64 {
	decided := p.Wins + p.Losses
	if decided == 0 {
		return 0
	}
	return float64(p.Wins) / float64(decided)
}

// ROI devuelve el retorno neto sobre lo apostado.
func (p Performance) ROI() float64 {
	if p.Staked == 0 {
		return 0
	}
	return (p.Returned - p.Staked) / p.Staked
}

// tierSample es un resultado gradeado etiquetado con su bucket de confidence.
type tierSample struct {
	Bucket string `json:"bucket"`
	Day    string `json:"day"`
	Won    bool   `json:"won"`
}

// calibrationDoc guarda las muestras recientes por tier y el ajuste derivado
// que consume el scorer del próximo run.
type calibrationDoc struct {
	Samples []tierSample       `json:"samples"`
	Adjust  map[string]float64 `json:"adjust"`
}

// Parámetros de la calibración por tier.
const (
	calibWindowDays = 7
	calibMinSamples = 5
	calibStep       = 0.02
	calibMaxAdjust  = 0.10
	calibUnderGap   = 0.15 // hit rate por debajo de lo esperado → bajar
	calibOverGap    = 0.10 // hit rate por encima → subir
)

// expectedHitRate es lo que cada tier promete: si no lo cumple, el scorer
// está sobre-confiado en ese rango y hay que corregirlo.
func expectedHitRate(bucket string) float64 {
	switch bucket {
	case domain.BucketElite:
		return 0.70
	case domain.BucketReliable:
		return 0.60
	case domain.BucketPlayable:
		return 0.50
	default:
		return 0.45
	}
}

// applyFeedback incorpora los resultados recién gradeados a todo el estado
// histórico: historia por clave, tight misses, red flags, oponentes duros,
// resumen de performance y calibración. Un solo Put por documento al final.
func (t *Tracker) applyFeedback(ctx context.Context, day string, graded []domain.Ticket) error {
	players := make(map[string]domain.PlayerHistory)
	if _, err := t.store.Get(ctx, keyHistory, &players); err != nil {
		return fmt.Errorf("tracker.applyFeedback: history: %w", err)
	}
	var misses []tightMissEntry
	if _, err := t.store.Get(ctx, keyTightMiss, &misses); err != nil {
		return fmt.Errorf("tracker.applyFeedback: tight misses: %w", err)
	}
	redFlags := make(map[string]bool)
	if _, err := t.store.Get(ctx, keyRedFlags, &redFlags); err != nil {
		return fmt.Errorf("tracker.applyFeedback: red flags: %w", err)
	}
	opponents := make(map[string]int)
	if _, err := t.store.Get(ctx, keyOpponents, &opponents); err != nil {
		return fmt.Errorf("tracker.applyFeedback: opponents: %w", err)
	}
	var perf Performance
	if _, err := t.store.Get(ctx, keyPerformance, &perf); err != nil {
		return fmt.Errorf("tracker.applyFeedback: performance: %w", err)
	}
	var calib calibrationDoc
	if _, err := t.store.Get(ctx, keyCalibration, &calib); err != nil {
		return fmt.Errorf("tracker.applyFeedback: calibration: %w", err)
	}

	for _, ticket := range graded {
		perf.apply(ticket)
		for _, s := range ticket.Selections {
			key := s.Key()

			h := players[key]
			h.Append(s.Result)
			players[key] = h

			updateRedFlag(redFlags, key, h.Streak)

			if s.Result == domain.ResultLoss {
				if s.Opponent != "" {
					opponents[s.Opponent]++
				}
				if domain.TightMiss(s.Line, s.Actual, s.HalfPointLine()) {
					misses = append(misses, tightMissEntry{Key: key, Day: day})
				}
			}

			switch s.Result {
			case domain.ResultWin:
				calib.Samples = append(calib.Samples, tierSample{
					Bucket: domain.ConfidenceBucket(s.Confidence), Day: day, Won: true,
				})
			case domain.ResultLoss:
				calib.Samples = append(calib.Samples, tierSample{
					Bucket: domain.ConfidenceBucket(s.Confidence), Day: day, Won: false,
				})
			}
		}
	}

	misses = pruneMisses(misses, t.now())
	calib.Samples = pruneSamples(calib.Samples, t.now())
	calib.Adjust = calibrate(calib.Samples, calib.Adjust)

	if err := t.store.Put(ctx, keyHistory, players); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put history: %w", err)
	}
	if err := t.store.Put(ctx, keyTightMiss, misses); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put tight misses: %w", err)
	}
	if err := t.store.Put(ctx, keyRedFlags, redFlags); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put red flags: %w", err)
	}
	if err := t.store.Put(ctx, keyOpponents, opponents); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put opponents: %w", err)
	}
	if err := t.store.Put(ctx, keyPerformance, perf); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put performance: %w", err)
	}
	if err := t.store.Put(ctx, keyCalibration, calib); err != nil {
		return fmt.Errorf("tracker.applyFeedback: put calibration: %w", err)
	}
	return nil
}

// apply suma un ticket terminal al resumen. PUSH devuelve el stake.
func (p *Performance) apply(t domain.Ticket) {
	switch t.Result {
	case domain.ResultWin:
		p.Wins++
		p.Staked += t.Stake
		p.Returned += t.Payout
	case domain.ResultLoss:
		p.Losses++
		p.Staked += t.Stake
	case domain.ResultPush:
		p.Pushes++
		p.Staked += t.Stake
		p.Returned += t.Stake
	}
}

// updateRedFlag aplica la regla de frío/recuperación sobre una clave:
// 3 derrotas seguidas la flaggea; el flag no expira por tiempo, se levanta
// recién con 2 victorias seguidas.
func updateRedFlag(flags map[string]bool, key string, streak int) {
	if streak <= redFlagStreak {
		if !flags[key] {
			slog.Info("red flag raised", "key", key, "streak", streak)
		}
		flags[key] = true
		return
	}
	if flags[key] && streak >= redFlagLift {
		slog.Info("red flag lifted", "key", key, "streak", streak)
		delete(flags, key)
	}
}

// suppressedKeys cuenta tight misses dentro de la ventana y devuelve las
// claves que superan el límite.
func suppressedKeys(misses []tightMissEntry, now time.Time) map[string]bool {
	cutoff := Day(now.AddDate(0, 0, -tightMissWindow))
	counts := make(map[string]int)
	for _, m := range misses {
		if m.Day >= cutoff {
			counts[m.Key]++
		}
	}
	suppressed := make(map[string]bool)
	for key, n := range counts {
		if n >= tightMissLimit {
			suppressed[key] = true
		}
	}
	return suppressed
}

func pruneMisses(misses []tightMissEntry, now time.Time) []tightMissEntry {
	cutoff := Day(now.AddDate(0, 0, -tightMissWindow))
	kept := misses[:0]
	for _, m := range misses {
		if m.Day >= cutoff {
			kept = append(kept, m)
		}
	}
	return kept
}

func pruneSamples(samples []tierSample, now time.Time) []tierSample {
	cutoff := Day(now.AddDate(0, 0, -calibWindowDays))
	kept := samples[:0]
	for _, s := range samples {
		if s.Day >= cutoff {
			kept = append(kept, s)
		}
	}
	return kept
}

// calibrate compara el hit rate real de cada tier contra el esperado y
// nudgea el ajuste: muy por debajo baja, por encima sube. Tiers con muestra
// chica no se tocan.
func calibrate(samples []tierSample, current map[string]float64) map[string]float64 {
	adjust := make(map[string]float64, len(current))
	for bucket, v := range current {
		adjust[bucket] = v
	}

	wins := make(map[string]int)
	totals := make(map[string]int)
	for _, s := range samples {
		totals[s.Bucket]++
		if s.Won {
			wins[s.Bucket]++
		}
	}

	for bucket, total := range totals {
		if total < calibMinSamples {
			continue
		}
		rate := float64(wins[bucket]) / float64(total)
		expected := expectedHitRate(bucket)
		switch {
		case rate < expected-calibUnderGap:
			adjust[bucket] = clampAdjust(adjust[bucket] - calibStep)
			slog.Info("tier calibrated down", "bucket", bucket, "hit_rate", rate, "expected", expected)
		case rate > expected+calibOverGap:
			adjust[bucket] = clampAdjust(adjust[bucket] + calibStep)
			slog.Info("tier calibrated up", "bucket", bucket, "hit_rate", rate, "expected", expected)
		}
	}
	return adjust
}

func clampAdjust(v float64) float64 {
	return math.Max(-calibMaxAdjust, math.Min(calibMaxAdjust, v))
}
