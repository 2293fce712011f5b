// Package streak implements the sustainable-purchase streak state
// machine and its reward rule.
//
// The per-user state is a single non-negative counter: an AI_SUGGESTED
// choice increments it, an ORIGINAL choice resets it to zero. The
// counter is always derivable by replaying the user's ledger from the
// most recent record back to the first ORIGINAL choice, which makes any
// persisted counter a rebuildable cache rather than a source of truth.
package streak

import (
	"fmt"

	"github.com/mzare/ecotrace/internal/domain/model"
)

// Reward rule constants: 100 credits at every positive multiple of 5
// reached by an AI_SUGGESTED choice.
const (
	rewardInterval = 5
	rewardCredits  = 100
)

// Transition applies one purchase choice to a streak counter and
// reports whether the new state grants a reward.
func Transition(current int, choice model.Choice) (next int, rewarded bool) {
	if current < 0 {
		current = 0
	}
	if choice != model.ChoiceAISuggested {
		return 0, false
	}
	next = current + 1
	return next, next%rewardInterval == 0
}

// RewardMessage returns the user-facing message for a granted reward.
func RewardMessage(streak int) string {
	return fmt.Sprintf("Streak of %d sustainable choices! You earned %d green credits.", streak, rewardCredits)
}

// CreditsTotal derives the lifetime credit balance from the current
// streak. It is never stored separately.
func CreditsTotal(streak int) int {
	if streak < 0 {
		return 0
	}
	return streak / rewardInterval * rewardCredits
}

// Replay recomputes the streak from a user's purchase history ordered
// newest first: the count of consecutive AI_SUGGESTED records ending at
// the most recent one.
func Replay(newestFirst []model.PurchaseRecord) int {
	n := 0
	for _, rec := range newestFirst {
		if rec.Choice != model.ChoiceAISuggested {
			break
		}
		n++
	}
	return n
}
