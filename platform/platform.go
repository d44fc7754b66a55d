// Package platform holds the typed collaborators over the quiz platform's
// read-oriented REST resources: users, companies and quizzes.
package platform

import (
	"sort"
	"time"
)

// User is a platform account as listed by /api/users/.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Company is a quiz-owning organisation. The member id list backs the
// membership check guarding company-scoped quiz routes.
type Company struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	OwnerID     int64   `json:"owner"`
	Members     []int64 `json:"members"`
}

// HasMember reports whether userID belongs to the company's member set.
// The owner counts as a member.
func (c *Company) HasMember(userID int64) bool {
	if c == nil || userID == 0 {
		return false
	}
	if c.OwnerID == userID {
		return true
	}
	for _, member := range c.Members {
		if member == userID {
			return true
		}
	}
	return false
}

// Quiz is a single quiz under a company.
type Quiz struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Frequency   int       `json:"frequency,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SortByTimestamp orders quizzes oldest first.
func SortByTimestamp(quizzes []Quiz) {
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].Timestamp.Before(quizzes[j].Timestamp)
	})
}
