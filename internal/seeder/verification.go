package seeder

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults checks the consistency of individual ranks against the
// greenest listing.
func verifyResults(config *Config, ranks, greenest []Entry) error {
	log.Println("verifying results...")

	if len(ranks) == 0 {
		return fmt.Errorf("no ranks to verify")
	}

	// Sort ranks by score ascending: lowest footprint first.
	sortedRanks := make([]Entry, len(ranks))
	copy(sortedRanks, ranks)
	sort.Slice(sortedRanks, func(i, j int) bool {
		return sortedRanks[i].CFScore < sortedRanks[j].CFScore
	})

	if len(greenest) > 0 {
		if err := verifyGreenestConsistency(sortedRanks, greenest); err != nil {
			log.Printf("greenest consistency warning: %v", err)
		} else {
			log.Println("greenest consistency verified")
		}
	}

	displayGreenestEntries(sortedRanks, greenest, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// verifyGreenestConsistency checks that the greenest listing matches
// the lowest individually-ranked scores and is sorted ascending.
func verifyGreenestConsistency(sortedRanks, greenest []Entry) error {
	if len(greenest) == 0 {
		return fmt.Errorf("empty greenest listing")
	}

	lowestRank := sortedRanks[0]
	topGreenest := greenest[0]

	if lowestRank.CFScore != topGreenest.CFScore {
		return fmt.Errorf("top greenest score (%.3f) does not match lowest ranked score (%.3f)",
			topGreenest.CFScore, lowestRank.CFScore)
	}

	for i := 1; i < len(greenest); i++ {
		if greenest[i].CFScore < greenest[i-1].CFScore {
			return fmt.Errorf("greenest listing not sorted: entry %d has lower score than entry %d", i, i-1)
		}
	}
	return nil
}

// displayGreenestEntries shows the lowest-footprint entries.
func displayGreenestEntries(sortedRanks, greenest []Entry, verbose bool) {
	topN := 10
	if len(sortedRanks) < topN {
		topN = len(sortedRanks)
	}

	log.Printf("top %d greenest products from ranks:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedRanks[i]
		log.Printf("   %d. %s (%s) - CF: %.3f [%s]", i+1, entry.ProductID, entry.Brand, entry.CFScore, entry.CFCategory)
	}

	if len(greenest) > 0 {
		greenestTopN := topN
		if len(greenest) < greenestTopN {
			greenestTopN = len(greenest)
		}

		log.Printf("top %d greenest products from listing:", greenestTopN)
		for i := 0; i < greenestTopN; i++ {
			entry := greenest[i]
			log.Printf("   %d. %s (%s) - CF: %.3f [%s]", i+1, entry.ProductID, entry.Brand, entry.CFScore, entry.CFCategory)
		}
	}

	if verbose && len(sortedRanks) > 0 {
		avgScore := calculateAverageScore(sortedRanks)
		minScore := sortedRanks[0].CFScore
		maxScore := sortedRanks[len(sortedRanks)-1].CFScore

		log.Printf(`score statistics:
   Average: %.3f
   Minimum: %.3f
   Maximum: %.3f
`, avgScore, minScore, maxScore)
	}
}

// calculateAverageScore calculates the average CF score from ranks.
func calculateAverageScore(ranks []Entry) float64 {
	if len(ranks) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range ranks {
		sum += entry.CFScore
	}
	return sum / float64(len(ranks))
}
