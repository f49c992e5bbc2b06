package models

// LearningStats summarizes the learning progress over a word bank
type LearningStats struct {
	TotalWords      int `json:"totalWords"`
	WordsLearned    int `json:"wordsLearned"` // mastery level 70 or above
	WordsInLearning int `json:"wordsInLearning"`
	WordsInReview   int `json:"wordsInReview"`
	WordsMastered   int `json:"wordsMastered"`
	TotalReviews    int `json:"totalReviews"`
	OverallAccuracy int `json:"overallAccuracy"` // percent
	AverageMastery  int `json:"averageMastery"`
}
