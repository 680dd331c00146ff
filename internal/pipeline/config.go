package pipeline

// Weights son las constantes aditivas de cada ajuste de confidence.
// Son valores calibrados empíricamente, no invariantes: viven en config
// para poder tunearlos sin tocar la estructura del pipeline.
type Weights struct {
	// --- Scorer ---
	OddsCap            float64 // tope del ajuste por valor de odds (|odds|/1000)
	VolatilityPenalty  float64 // prop types de alta varianza sin tag low-risk
	TierBoost          float64 // tag low-risk
	TierPenalty        float64 // tag high-risk
	StreakBoost        float64 // racha > 2 (simétrico para racha < -2)
	ColdHitRatePenalty float64 // hit rate < 0.30 con muestra suficiente
	HotHitRateBoost    float64 // hit rate > 0.70 con muestra suficiente

	// --- Context filters ---
	TrapPenalty      float64
	BlowoutPenalty   float64
	BullishBoost     float64
	CLVBoost         float64
	CLVPenalty       float64
	OpponentPenalty  float64
	TeamExposure     float64
	TypeExposure     float64
	HighConfExposure float64
}

// DefaultWeights devuelve los valores calibrados en producción.
func DefaultWeights() Weights {
	return Weights{
		OddsCap:            0.20,
		VolatilityPenalty:  0.08,
		TierBoost:          0.05,
		TierPenalty:        0.05,
		StreakBoost:        0.05,
		ColdHitRatePenalty: 0.15,
		HotHitRateBoost:    0.10,

		TrapPenalty:      0.12,
		BlowoutPenalty:   0.10,
		BullishBoost:     0.08,
		CLVBoost:         0.06,
		CLVPenalty:       0.03,
		OpponentPenalty:  0.08,
		TeamExposure:     0.10,
		TypeExposure:     0.08,
		HighConfExposure: 0.07,
	}
}

// StageToggles habilita/deshabilita filtros individuales. El pipeline se
// construye como lista ordenada de stages habilitados — no hay branching
// en runtime sobre un mapa compartido.
type StageToggles struct {
	Sentiment bool `yaml:"sentiment"`
	CLV       bool `yaml:"clv"`
	Opponent  bool `yaml:"opponent"`
	BookTrap  bool `yaml:"book_trap"`
	TightMiss bool `yaml:"tight_miss"`
	RedFlag   bool `yaml:"red_flag"`
	Exposure  bool `yaml:"exposure"`
}

// AllStages devuelve todos los filtros habilitados.
func AllStages() StageToggles {
	return StageToggles{
		Sentiment: true,
		CLV:       true,
		Opponent:  true,
		BookTrap:  true,
		TightMiss: true,
		RedFlag:   true,
		Exposure:  true,
	}
}

// ExposureLimits son los umbrales de concentración del exposure filter.
// Superado un umbral, TODOS los records de ese grupo se penalizan y
// flaggean, no solo el excedente.
type ExposureLimits struct {
	TeamMax           int     // ocurrencias por equipo
	TypeMax           int     // ocurrencias por prop type
	HighConfMax       int     // records por encima del umbral de confidence
	HighConfThreshold float64 // qué cuenta como "alta confidence"
}

// DefaultExposureLimits devuelve los umbrales de producción.
func DefaultExposureLimits() ExposureLimits {
	return ExposureLimits{
		TeamMax:           3,
		TypeMax:           4,
		HighConfMax:       5,
		HighConfThreshold: 0.70,
	}
}

// Config arma el pipeline completo: pesos, toggles, límites del assembler
// y umbrales de lock-time.
type Config struct {
	Weights   Weights
	Stages    StageToggles
	Exposure  ExposureLimits
	MinSample int // muestra mínima para ajustar por hit rate (anti-overfit)

	// VolatilePropTypes son categorías de alta varianza que arrancan
	// penalizadas salvo que vengan tageadas low-risk.
	VolatilePropTypes []string

	// --- Assembler ---
	MaxTickets    int
	MaxLegs       int
	MaxSingles    int     // tickets de un leg permitidos por run
	SingleMinConf float64 // confidence mínima para un single
	Stake         float64 // stake nominal por ticket
	MaxPerType    int     // repeticiones de un prop type dentro de un ticket

	// --- Lock-time ---
	TooLateMinutes  float64 // un leg arranca antes de esto → ticket muerto
	LastCallMinutes float64 // entre TooLate y esto → cola last-call
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Weights:   DefaultWeights(),
		Stages:    AllStages(),
		Exposure:  DefaultExposureLimits(),
		MinSample: 5,
		VolatilePropTypes: []string{
			"Triples", "Stolen Bases", "Turnovers", "Fantasy Score",
		},
		MaxTickets:      5,
		MaxLegs:         3,
		MaxSingles:      2,
		SingleMinConf:   0.75,
		Stake:           10,
		MaxPerType:      3,
		TooLateMinutes:  20,
		LastCallMinutes: 30,
	}
}
