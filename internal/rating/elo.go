// Package rating computes Elo updates for finished matches.
package rating

import "math"

// K is the Elo adjustment factor.
const K = 32

// Expected returns the expected score of a player rated ra against rb.
func Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// Singles returns the new ratings of a and b after a 1v1 match.
// aWon is the result from a's point of view. Ratings never drop below 0.
func Singles(a, b int, aWon bool) (int, int) {
	resA := 0.0
	if aWon {
		resA = 1
	}
	expA := Expected(float64(a), float64(b))
	expB := Expected(float64(b), float64(a))

	newA := float64(a) + K*(resA-expA)
	newB := float64(b) + K*((1-resA)-expB)
	return clamp(newA), clamp(newB)
}

// Pairs returns the new ratings for team and opponents after a 2v2 match.
// Each side's strength is the mean of its members; every member moves by the
// same K*(actual-expected) computed from those means.
func Pairs(team, opponents [2]int, teamWon bool) ([2]int, [2]int) {
	teamAvg := float64(team[0]+team[1]) / 2
	oppAvg := float64(opponents[0]+opponents[1]) / 2

	res := 0.0
	if teamWon {
		res = 1
	}
	teamDelta := K * (res - Expected(teamAvg, oppAvg))
	oppDelta := K * ((1 - res) - Expected(oppAvg, teamAvg))

	var newTeam, newOpp [2]int
	for i := 0; i < 2; i++ {
		newTeam[i] = clamp(float64(team[i]) + teamDelta)
		newOpp[i] = clamp(float64(opponents[i]) + oppDelta)
	}
	return newTeam, newOpp
}

func clamp(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	return r
}
