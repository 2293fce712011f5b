// Package types contains common types used across the application
package types

// ScoreResult is the response shape for score and predict queries.
type ScoreResult struct {
	CFScore    float64 `json:"cf_score"`
	CFCategory string  `json:"cf_category"`
}

// ProductEntry represents a scored corpus product in API responses.
type ProductEntry struct {
	Rank         int     `json:"rank,omitempty"`
	ProductID    string  `json:"product_id"`
	CategoryCode string  `json:"category_code"`
	Brand        string  `json:"brand"`
	Price        float64 `json:"price"`
	CFScore      float64 `json:"cf_score"`
	CFCategory   string  `json:"cf_category"`
}

// StreakState is the gamification state derived for a user.
type StreakState struct {
	UserID        string `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	CreditsTotal  int    `json:"credits_total"`
}

// PurchaseAck is returned after a purchase submission has been durably
// recorded and the streak transition applied.
type PurchaseAck struct {
	UserID        string  `json:"user_id"`
	ProductID     string  `json:"product_id"`
	CFScore       float64 `json:"cf_score"`
	CFCategory    string  `json:"cf_category"`
	CurrentStreak int     `json:"current_streak"`
	RewardGranted bool    `json:"reward_granted"`
	RewardMessage string  `json:"reward_message,omitempty"`
	CreditsTotal  int     `json:"credits_total"`
}

// PurchaseEntry mirrors a ledger record in history responses.
type PurchaseEntry struct {
	ProductID  string  `json:"product_id"`
	TS         string  `json:"ts"`
	Choice     string  `json:"choice"`
	CFScore    float64 `json:"cf_score"`
	CFCategory string  `json:"cf_category"`
}

// Insights carries the advisory fields produced by the insight
// collaborator, or its local fallback.
type Insights struct {
	ProductAssessment          string `json:"product_assessment"`
	UserImpact                 string `json:"user_impact"`
	AlternativesRecommendation string `json:"alternatives_recommendation"`
	SustainabilityTips         string `json:"sustainability_tips"`
	BrandInfo                  string `json:"brand_info"`
}
