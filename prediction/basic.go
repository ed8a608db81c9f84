package prediction

import (
	"errors"

	"arbiterflow/evidence"
)

// ErrPredictionFailure signals the scoring step produced a result outside
// its contract. The default verdicts below make this unreachable in
// practice; callers still treat it as fatal.
var ErrPredictionFailure = errors.New("prediction: scoring failed")

// Case is the snapshot of dispute fields the models read. Both models are
// pure functions over a Case; neither touches storage.
type Case struct {
	PlaintiffID   string
	DefendantID   string
	Amount        int64
	CreatedHeight int64
	EvidenceCount int
}

// Verdict is the basic model's output used at resolution time.
type Verdict struct {
	PlaintiffWins bool
	Confidence    int
}

const defaultConfidence = 50

// Basic scores both parties from the submitted evidence and picks a winner.
// With no evidence, or no attributable weight, the plaintiff wins at
// confidence 50. Scores that tie also land on exactly 50, and the strict
// comparison hands tied cases to the defendant.
func Basic(c Case, items []evidence.Item) Verdict {
	plaintiffScore := sumWeights(attributable(items, c.PlaintiffID))
	defendantScore := sumWeights(attributable(items, c.DefendantID))

	total := plaintiffScore + defendantScore
	if len(items) == 0 || total == 0 {
		return Verdict{PlaintiffWins: true, Confidence: defaultConfidence}
	}

	top := plaintiffScore
	if defendantScore > top {
		top = defendantScore
	}

	return Verdict{
		PlaintiffWins: plaintiffScore > defendantScore,
		Confidence:    top * 100 / total,
	}
}

// attributable selects the evidence counted toward a party's score.
// Attribution consults only the lead item (seq 1), for either party.
func attributable(items []evidence.Item, party string) []evidence.Item {
	for _, item := range items {
		if item.Seq == 1 {
			return []evidence.Item{item}
		}
	}
	return nil
}

func sumWeights(items []evidence.Item) int {
	sum := 0
	for _, item := range items {
		sum += item.Weight
	}
	return sum
}
