package prediction

import (
	"crypto/sha256"
	"encoding/binary"
)

// Report is the multi-factor diagnostic model. It is exposed read-only and
// plays no part in resolution. All arithmetic is truncating integer math.
type Report struct {
	EvidenceScore    int    `json:"evidence_score"`    // 0..40
	ComplexityScore  int    `json:"complexity_score"`  // 0..30
	UrgencyScore     int    `json:"urgency_score"`     // 0..20
	PatternScore     int    `json:"pattern_score"`     // 0..10
	TotalScore       int    `json:"total_score"`       // 0..101
	ConfidenceLevel  int    `json:"confidence_level"`  // 50..95
	WinProbability   int    `json:"win_probability"`
	AppealRisk       int    `json:"appeal_risk"`
	BehavioralScore  int    `json:"behavioral_score"` // 0..99
	EconomicFactor   int64  `json:"economic_factor"`
	EvidenceDecay    int    `json:"evidence_decay"`
	FinalScore       int    `json:"final_score"`
	Recommendation   string `json:"recommendation"`
	PredictedOutcome bool   `json:"predicted_outcome"`
}

const (
	evidenceScoreCap   = 40
	complexityScoreCap = 30
	urgencyScoreCap    = 20
	confidenceCap      = 95

	appealRiskHigh = 80
	appealRiskLow  = 20

	winProbabilityScale = 100
	staleCaseAge        = 1000
)

// Advanced computes the multi-factor report for a case at the given chain
// height.
func Advanced(c Case, currentHeight int64) Report {
	age := currentHeight - c.CreatedHeight
	if age < 0 {
		age = 0
	}

	evidenceScore := capInt(c.EvidenceCount*8, evidenceScoreCap)
	complexityScore := capInt(int(c.Amount/1000), complexityScoreCap)
	urgencyScore := capInt(int(age/10), urgencyScoreCap)
	patternScore := int((int64(patternSeed(c.PlaintiffID)) + age) % 11)

	totalScore := evidenceScore + complexityScore + urgencyScore + patternScore
	confidenceLevel := capInt(50+evidenceScore*45/evidenceScoreCap, confidenceCap)
	winProbability := totalScore * winProbabilityScale / 100

	appealRisk := appealRiskLow
	if confidenceLevel < 70 {
		appealRisk = appealRiskHigh
	}

	// (count+amount)*age mod 100, with operands reduced first so the
	// product cannot overflow.
	behavioralScore := int(((int64(c.EvidenceCount)+c.Amount)%100)*(age%100)) % 100
	economicFactor := c.Amount / 10000

	evidenceDecay := 100
	switch {
	case age > staleCaseAge:
		evidenceDecay = 50
	case age > 0:
		evidenceDecay = 100 - int(age/20)
	}

	finalScore := winProbability*40/100 + confidenceLevel*30/100 + behavioralScore*20/100 + evidenceDecay*10/100

	recommendation := "moderate"
	if confidenceLevel > 80 {
		recommendation = "high"
	}

	return Report{
		EvidenceScore:    evidenceScore,
		ComplexityScore:  complexityScore,
		UrgencyScore:     urgencyScore,
		PatternScore:     patternScore,
		TotalScore:       totalScore,
		ConfidenceLevel:  confidenceLevel,
		WinProbability:   winProbability,
		AppealRisk:       appealRisk,
		BehavioralScore:  behavioralScore,
		EconomicFactor:   economicFactor,
		EvidenceDecay:    evidenceDecay,
		FinalScore:       finalScore,
		Recommendation:   recommendation,
		PredictedOutcome: finalScore > 50,
	}
}

// patternSeed derives the pseudo-random pattern input from the plaintiff's
// identity: the first four digest bytes as a big-endian unsigned integer.
func patternSeed(plaintiffID string) uint32 {
	sum := sha256.Sum256([]byte(plaintiffID))
	return binary.BigEndian.Uint32(sum[:4])
}

func capInt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
