package oddsapi

import "time"

// DTOs del API de odds. Se mapean a domain en mapping.go; nada de esto
// sale del paquete.

type eventDTO struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

type eventOddsDTO struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []bookmakerDTO `json:"bookmakers"`
}

type bookmakerDTO struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []marketDTO `json:"markets"`
}

type marketDTO struct {
	Key      string       `json:"key"`
	Outcomes []outcomeDTO `json:"outcomes"`
}

type outcomeDTO struct {
	Name        string  `json:"name"`        // Over | Under, o nombre de equipo en h2h
	Description string  `json:"description"` // nombre del jugador en player props
	Price       int     `json:"price"`       // odds americanas
	Point       float64 `json:"point"`       // la línea
}

type playerStatDTO struct {
	Player string  `json:"player"`
	Market string  `json:"market"`
	Value  float64 `json:"value"`
}
