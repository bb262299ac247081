package domain

import (
	"sort"
	"strings"
	"time"
)

// RankingType identifica o circuito do ranking.
type RankingType string

const (
	RankingATP RankingType = "atp"
	RankingWTA RankingType = "wta"
	RankingPGA RankingType = "pga"
)

// RankingTypes lista os circuitos na ordem de exibição.
var RankingTypes = []RankingType{RankingATP, RankingWTA, RankingPGA}

// ParseRankingType aceita o tipo sem diferenciar caixa.
func ParseRankingType(s string) (RankingType, error) {
	t := RankingType(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range RankingTypes {
		if t == v {
			return t, nil
		}
	}
	return "", Invalid("type", "invalid ranking type, use: atp, wta or pga")
}

// RankingEntry é uma linha do ranking. Points é fracionário no golfe.
type RankingEntry struct {
	Rank    int     `json:"rank" validate:"gte=1"`
	Player  string  `json:"player" validate:"required,max=100"`
	Country string  `json:"country"`
	Points  float64 `json:"points" validate:"gte=0"`
}

// Ranking é a lista completa de um circuito; há no máximo um por tipo.
type Ranking struct {
	Type        RankingType    `json:"type" validate:"oneof=atp wta pga"`
	Players     []RankingEntry `json:"players" validate:"unique=Rank,dive"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// Validate normaliza os nomes e ordena por posição.
func (r *Ranking) Validate() error {
	for i := range r.Players {
		r.Players[i].Player = strings.TrimSpace(r.Players[i].Player)
	}
	if err := Check(r); err != nil {
		return err
	}
	sort.SliceStable(r.Players, func(i, j int) bool { return r.Players[i].Rank < r.Players[j].Rank })
	return nil
}
