package domain

import (
	"math"
	"time"
)

// PickSide es el lado de la apuesta sobre la línea.
type PickSide string

const (
	SideOver  PickSide = "Over"
	SideUnder PickSide = "Under"
)

// Tags de tier de riesgo asignados por el clasificador del book.
const (
	TagLowRisk  = "low-risk"  // legs seguros, odds muy cargadas
	TagHighRisk = "high-risk" // longshots con odds positivas
)

// PropRecord es una apuesta candidata: un jugador/equipo cruzando una línea.
// Todos los stages del pipeline mutan Confidence y acumulan Flags in-place.
type PropRecord struct {
	Player   string
	Team     string
	Opponent string
	PropType string // categoría de stat: Hits, Points, Rebounds...
	Sport    string
	GameKey  string

	Line     float64
	Side     PickSide
	Odds     int // convención americana (-110, +140)
	Platform string

	GameStart time.Time

	// --- Señales de intake (opcionales, 0 = ausente) ---
	BookCount    int     // en cuántos books existe la línea
	LineMovement float64 // movimiento de línea desde apertura
	Disappeared  bool    // el book retiró la prop a mitad de día
	CLV          float64 // closing line value (+ = cerró a favor)
	Tag          string  // tier de riesgo: low-risk | high-risk | ""

	// --- Estado mutable del pipeline ---
	Confidence  float64
	Blocked     bool
	BlockReason string
	Flags       map[string]string // flag → razón; last-writer-wins por flag
}

// Key devuelve la clave natural (player, prop_type) del record.
func (p PropRecord) Key() string {
	return PropKey(p.Player, p.PropType)
}

// PropKey construye la clave (player, prop_type) usada en historia y supresión.
func PropKey(player, propType string) string {
	return player + "|" + propType
}

// Flag registra un flag con su razón. Los flags son aditivos durante el run;
// solo la razón de un mismo flag se sobreescribe.
func (p *PropRecord) Flag(name, reason string) {
	if p.Flags == nil {
		p.Flags = make(map[string]string)
	}
	p.Flags[name] = reason
}

// HasFlag devuelve true si el record acumuló el flag dado.
func (p *PropRecord) HasFlag(name string) bool {
	_, ok := p.Flags[name]
	return ok
}

// Block excluye el record del armado de tickets sin borrarlo (audit trail).
func (p *PropRecord) Block(reason string) {
	p.Blocked = true
	p.BlockReason = reason
}

// Adjust aplica un delta a Confidence y la clampea a [0, 1].
func (p *PropRecord) Adjust(delta float64) {
	p.Confidence = ClampConfidence(p.Confidence + delta)
}

// Valid hace la validación básica de forma. Records inválidos se excluyen
// del run (soft error) — nunca abortan el batch.
func (p PropRecord) Valid() bool {
	if p.Player == "" || p.PropType == "" || p.GameKey == "" {
		return false
	}
	if p.Side != SideOver && p.Side != SideUnder {
		return false
	}
	if math.IsNaN(p.Line) || math.IsInf(p.Line, 0) || p.Line < 0 {
		return false
	}
	return true
}

// HalfPointLine devuelve true si la línea termina en .5 (no puede haber push).
func (p PropRecord) HalfPointLine() bool {
	_, frac := math.Modf(p.Line)
	return math.Abs(frac-0.5) < 1e-9
}

// ClampConfidence fuerza una confidence al rango [0, 1].
func ClampConfidence(c float64) float64 {
	return math.Max(0.0, math.Min(1.0, c))
}

// RoundConfidence clampea y redondea a 2 decimales para determinismo.
func RoundConfidence(c float64) float64 {
	return math.Round(ClampConfidence(c)*100) / 100
}

// Buckets de reporting por confidence.
const (
	BucketElite    = "Elite"    // >= 0.80
	BucketReliable = "Reliable" // >= 0.70
	BucketPlayable = "Playable" // >= 0.60
	BucketFade     = "Fade"     // resto
)

// ConfidenceBucket devuelve el bucket de reporting para una confidence.
func ConfidenceBucket(c float64) string {
	switch {
	case c >= 0.80:
		return BucketElite
	case c >= 0.70:
		return BucketReliable
	case c >= 0.60:
		return BucketPlayable
	default:
		return BucketFade
	}
}
