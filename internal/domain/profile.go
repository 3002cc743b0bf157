package domain

import "math"

// ResourceProfile describes the responder being tokenized. It is only consulted at mint time.
type ResourceProfile struct {
	Specialty   string
	DisplayName string
	Level       int
	Accuracy    float64
}

// SeedValueScore is max(1, level + accuracy/100).
func (p ResourceProfile) SeedValueScore() float64 {
	return RoundScore(math.Max(1, float64(p.Level)+p.Accuracy/100))
}
