package domain

// Operation identifies one of the CV processing operations exposed at the
// API boundary.
type Operation string

// Operations accepted by the process endpoint.
const (
	OpOptimize                     Operation = "optimize"
	OpFeedback                     Operation = "feedback"
	OpCoverLetter                  Operation = "cover_letter"
	OpATSCheck                     Operation = "ats_check"
	OpInterviewQuestions           Operation = "interview_questions"
	OpCVScore                      Operation = "cv_score"
	OpKeywordAnalysis              Operation = "keyword_analysis"
	OpGrammarCheck                 Operation = "grammar_check"
	OpPositionOptimization         Operation = "position_optimization"
	OpInterviewTips                Operation = "interview_tips"
	OpAdvancedPositionOptimization Operation = "advanced_position_optimization"
	OpCVBuilder                    Operation = "cv_builder"

	// Guard-list spellings used by the paid-tier catalog.
	OpATSOptimizationCheck Operation = "ats_optimization_check"
	OpRecruiterFeedback    Operation = "recruiter_feedback"
)

// Tier is the access level an operation requires.
type Tier int

const (
	// TierFree operations are open to everyone; unpaid output may still be
	// watermarked.
	TierFree Tier = iota
	// TierBasicPaid operations require the one-time CV payment or premium.
	TierBasicPaid
	// TierPremium operations require an active premium subscription.
	TierPremium
	// TierBuilder operations require the separate CV builder payment.
	TierBuilder
)

// catalog maps every known operation to its access tier.
var catalog = map[Operation]Tier{
	OpOptimize:             TierBasicPaid,
	OpATSOptimizationCheck: TierBasicPaid,
	OpGrammarCheck:         TierBasicPaid,

	OpRecruiterFeedback:            TierPremium,
	OpCoverLetter:                  TierPremium,
	OpCVScore:                      TierPremium,
	OpInterviewTips:                TierPremium,
	OpKeywordAnalysis:              TierPremium,
	OpPositionOptimization:         TierPremium,
	OpInterviewQuestions:           TierPremium,
	OpAdvancedPositionOptimization: TierPremium,

	OpCVBuilder: TierBuilder,

	OpFeedback: TierFree,
	OpATSCheck: TierFree,
}

// TierOf returns the access tier for an operation. The second return value
// is false for operations outside the catalog.
func TierOf(op Operation) (Tier, bool) {
	t, ok := catalog[op]
	return t, ok
}

// IsOptimizeClass reports whether the operation produces a rewritten CV,
// which is the subset subject to demo watermarking for unpaid callers.
func IsOptimizeClass(op Operation) bool {
	switch op {
	case OpOptimize, OpPositionOptimization, OpAdvancedPositionOptimization:
		return true
	}
	return false
}
