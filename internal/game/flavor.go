package game

import (
	"github.com/google/uuid"
	"github.com/sotacaballorey/guinote/internal/rating"
)

// flavor holds the rules that depend on table size.
type flavor interface {
	// name labels the flavor in logs and lifecycle events.
	name() string
	// partnerWaiver reports whether a winning teammate lifts arrastre constraints.
	partnerWaiver() bool
	// pairsRating selects the 2v2 rating column.
	pairsRating() bool
	// rate returns new ratings for every seat given current ratings, teams and the winning team.
	rate(current map[uuid.UUID]int, teams map[uuid.UUID]int, winner int) map[uuid.UUID]int
}

func flavorFor(capacity int) flavor {
	if capacity == 4 {
		return pairsFlavor{}
	}
	return singlesFlavor{}
}

type singlesFlavor struct{}

func (singlesFlavor) name() string        { return "1v1" }
func (singlesFlavor) partnerWaiver() bool { return false }
func (singlesFlavor) pairsRating() bool   { return false }

func (singlesFlavor) rate(current map[uuid.UUID]int, teams map[uuid.UUID]int, winner int) map[uuid.UUID]int {
	var a, b uuid.UUID
	for id, team := range teams {
		if team == 1 {
			a = id
		} else {
			b = id
		}
	}
	newA, newB := rating.Singles(current[a], current[b], winner == 1)
	return map[uuid.UUID]int{a: newA, b: newB}
}

type pairsFlavor struct{}

func (pairsFlavor) name() string        { return "2v2" }
func (pairsFlavor) partnerWaiver() bool { return true }
func (pairsFlavor) pairsRating() bool   { return true }

func (pairsFlavor) rate(current map[uuid.UUID]int, teams map[uuid.UUID]int, winner int) map[uuid.UUID]int {
	var ids [3][]uuid.UUID
	for id, team := range teams {
		ids[team] = append(ids[team], id)
	}
	out := make(map[uuid.UUID]int, len(teams))
	if len(ids[1]) != 2 || len(ids[2]) != 2 {
		return out
	}
	t1 := [2]int{current[ids[1][0]], current[ids[1][1]]}
	t2 := [2]int{current[ids[2][0]], current[ids[2][1]]}
	new1, new2 := rating.Pairs(t1, t2, winner == 1)
	out[ids[1][0]], out[ids[1][1]] = new1[0], new1[1]
	out[ids[2][0]], out[ids[2][1]] = new2[0], new2[1]
	return out
}
