package model

import "time"

type Review struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewSummary struct {
	Reviews       []Review `json:"reviews"`
	Count         int      `json:"count"`
	AverageRating float64  `json:"average_rating"`
}

// Summarize computes count and average rating over reviews.
func Summarize(reviews []Review) ReviewSummary {
	s := ReviewSummary{Reviews: reviews, Count: len(reviews)}
	if len(reviews) == 0 {
		s.Reviews = []Review{}
		return s
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	s.AverageRating = float64(total) / float64(len(reviews))
	return s
}
