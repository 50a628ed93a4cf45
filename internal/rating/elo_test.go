package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSinglesEqualRatings(t *testing.T) {
	a, b := Singles(1000, 1000, true)
	assert.Equal(t, 1016, a)
	assert.Equal(t, 984, b)
}

// TestSinglesWinnerGainsLoserLoses covers an upset and a favourite win.
func TestSinglesWinnerGainsLoserLoses(t *testing.T) {
	a, b := Singles(900, 1300, true)
	assert.Greater(t, a, 900)
	assert.Less(t, b, 1300)
	assert.Equal(t, 929, a, "underdog win should move ~29 points")

	a, b = Singles(1300, 900, true)
	assert.Greater(t, a, 1300)
	assert.Less(t, b, 900)
}

func TestSinglesFloorAtZero(t *testing.T) {
	_, b := Singles(10, 5, true)
	assert.Equal(t, 0, b)
}

func TestPairsUsesTeamAverage(t *testing.T) {
	team, opp := Pairs([2]int{1100, 900}, [2]int{1000, 1000}, true)
	// Equal averages: every member moves by 16.
	assert.Equal(t, [2]int{1116, 916}, team)
	assert.Equal(t, [2]int{984, 984}, opp)
}

func TestPairsLoss(t *testing.T) {
	team, opp := Pairs([2]int{1200, 1200}, [2]int{1000, 1000}, false)
	assert.Less(t, team[0], 1200)
	assert.Less(t, team[1], 1200)
	assert.Greater(t, opp[0], 1000)
	assert.Greater(t, opp[1], 1000)
}
