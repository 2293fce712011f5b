package streak_test

import (
	"testing"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/internal/domain/streak"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTransition(t *testing.T) {
	Convey("Given the streak state machine", t, func() {
		Convey("When a user makes five AI_SUGGESTED choices", func() {
			current := 0
			rewards := 0
			for i := 0; i < 5; i++ {
				next, rewarded := streak.Transition(current, model.ChoiceAISuggested)
				So(next, ShouldEqual, current+1)
				if rewarded {
					rewards++
					So(next, ShouldEqual, 5)
				}
				current = next
			}

			Convey("Then the streak is 5 and the reward fired exactly once, at the fifth", func() {
				So(current, ShouldEqual, 5)
				So(rewards, ShouldEqual, 1)
			})
		})

		Convey("When an ORIGINAL choice interrupts the run", func() {
			choices := []model.Choice{
				model.ChoiceAISuggested,
				model.ChoiceAISuggested,
				model.ChoiceOriginal,
				model.ChoiceAISuggested,
			}
			current := 0
			rewards := 0
			for _, c := range choices {
				next, rewarded := streak.Transition(current, c)
				if rewarded {
					rewards++
				}
				current = next
			}

			Convey("Then the final streak is 1 with no reward", func() {
				So(current, ShouldEqual, 1)
				So(rewards, ShouldEqual, 0)
			})
		})

		Convey("When the counter crosses later multiples of five", func() {
			_, rewardedAt10 := streak.Transition(9, model.ChoiceAISuggested)
			_, rewardedAt11 := streak.Transition(10, model.ChoiceAISuggested)

			Convey("Then only the multiple grants a reward", func() {
				So(rewardedAt10, ShouldBeTrue)
				So(rewardedAt11, ShouldBeFalse)
			})
		})

		Convey("When an ORIGINAL choice arrives at zero", func() {
			next, rewarded := streak.Transition(0, model.ChoiceOriginal)

			Convey("Then the streak stays zero without reward", func() {
				So(next, ShouldEqual, 0)
				So(rewarded, ShouldBeFalse)
			})
		})

		Convey("When the stored counter is negative", func() {
			next, rewarded := streak.Transition(-3, model.ChoiceAISuggested)

			Convey("Then it recovers to a fresh run", func() {
				So(next, ShouldEqual, 1)
				So(rewarded, ShouldBeFalse)
			})
		})
	})
}

func TestCreditsTotal(t *testing.T) {
	Convey("Given the derived credit balance", t, func() {
		So(streak.CreditsTotal(0), ShouldEqual, 0)
		So(streak.CreditsTotal(4), ShouldEqual, 0)
		So(streak.CreditsTotal(5), ShouldEqual, 100)
		So(streak.CreditsTotal(12), ShouldEqual, 200)
		So(streak.CreditsTotal(-1), ShouldEqual, 0)
	})
}

func TestRewardMessage(t *testing.T) {
	Convey("Given a granted reward", t, func() {
		msg := streak.RewardMessage(5)

		Convey("Then the message names the streak and the credits", func() {
			So(msg, ShouldContainSubstring, "5")
			So(msg, ShouldContainSubstring, "100 green credits")
		})
	})
}

func TestReplay(t *testing.T) {
	rec := func(choice model.Choice) model.PurchaseRecord {
		return model.PurchaseRecord{Choice: choice}
	}

	Convey("Given a newest-first purchase history", t, func() {
		Convey("When the latest records are all AI_SUGGESTED", func() {
			history := []model.PurchaseRecord{
				rec(model.ChoiceAISuggested),
				rec(model.ChoiceAISuggested),
				rec(model.ChoiceAISuggested),
				rec(model.ChoiceOriginal),
				rec(model.ChoiceAISuggested),
			}

			Convey("Then the replayed streak stops at the first ORIGINAL", func() {
				So(streak.Replay(history), ShouldEqual, 3)
			})
		})

		Convey("When the most recent record is ORIGINAL", func() {
			history := []model.PurchaseRecord{
				rec(model.ChoiceOriginal),
				rec(model.ChoiceAISuggested),
			}

			So(streak.Replay(history), ShouldEqual, 0)
		})

		Convey("When the history is empty", func() {
			So(streak.Replay(nil), ShouldEqual, 0)
		})

		Convey("And replay matches the incremental transitions", func() {
			// Oldest to newest.
			choices := []model.Choice{
				model.ChoiceAISuggested,
				model.ChoiceOriginal,
				model.ChoiceAISuggested,
				model.ChoiceAISuggested,
			}
			current := 0
			history := make([]model.PurchaseRecord, 0, len(choices))
			for _, c := range choices {
				current, _ = streak.Transition(current, c)
				// Prepend so the slice stays newest first.
				history = append([]model.PurchaseRecord{rec(c)}, history...)
			}

			So(streak.Replay(history), ShouldEqual, current)
		})
	})
}
