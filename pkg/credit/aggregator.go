package credit

import (
	"sort"

	"github.com/HamiGames/Lucid-sub007/pkg/db"
)

// liveScoreProofTarget is the proof count at which an entity's live score
// saturates at 1.
const liveScoreProofTarget = 100

// Aggregator sums the credits of work proofs over a window and ranks the
// credit entities.
type Aggregator struct {
	calculator *Calculator
}

// NewAggregator creates an Aggregator using the given calculator for the
// per-proof credit amounts.
func NewAggregator(calculator *Calculator) *Aggregator {
	return &Aggregator{calculator: calculator}
}

// Tally aggregates the given window of proofs into ranked credit tallies for
// the given epoch. Proofs are grouped by credit entity (the pool id of pooled
// nodes, the node id otherwise). The result is ordered by total credits
// descending; ties share adjacent but distinct ranks, in lexicographic entity
// order. Entities without proofs in the window are absent from the result.
func (a *Aggregator) Tally(epoch uint64, proofs []db.WorkProof) []db.CreditTally {
	grouped := make(map[string]*db.CreditTally)
	for i := range proofs {
		proof := &proofs[i]
		entity := proof.CreditEntity()
		tally, found := grouped[entity]
		if !found {
			tally = &db.CreditTally{Epoch: epoch, Entity: entity}
			grouped[entity] = tally
		}
		credits := a.calculator.Credits(proof)
		tally.Credits += credits
		tally.ProofCount++
		switch proof.Kind {
		case db.RelayBandwidth:
			tally.RelayCredits += credits
		case db.StorageAvailability:
			tally.StorageCredits += credits
		case db.ValidationSignature:
			tally.ValidationCredits += credits
		case db.UptimeBeacon:
			tally.UptimeCredits += credits
		}
	}
	tallies := make([]db.CreditTally, 0, len(grouped))
	for _, tally := range grouped {
		tally.LiveScore = float64(tally.ProofCount) / liveScoreProofTarget
		if tally.LiveScore > 1 {
			tally.LiveScore = 1
		}
		tallies = append(tallies, *tally)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Credits != tallies[j].Credits {
			return tallies[i].Credits > tallies[j].Credits
		}
		return tallies[i].Entity < tallies[j].Entity
	})
	for i := range tallies {
		tallies[i].Rank = uint(i) + 1
	}
	return tallies
}
