package domain

import "math"

// Rates are compensation units paid per hour in each tier.
type Rates struct {
	Normal  float64
	Stellar float64
}

func DefaultRates() Rates {
	return Rates{Normal: 1, Stellar: 2}
}

// Coins converts minutes to compensation units rounded half-up to two decimals.
func (r Rates) Coins(normalMinutes, stellarMinutes int64) float64 {
	value := float64(normalMinutes)/60*r.Normal + float64(stellarMinutes)/60*r.Stellar
	return math.Floor(value*100+0.5) / 100
}

func (r Rates) CoinsFor(split Split) float64 {
	return r.Coins(split.Normal, split.Stellar)
}
