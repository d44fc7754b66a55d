package platform

import (
	"context"
	"fmt"

	"github.com/mtarnavskyi/quiz-webclient/apiclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Service fetches platform resources through the authenticated API client.
type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Users fetches the full account list, following the paginated "next" links
// and concatenating the results. The total count comes from the envelope.
func (s *Service) Users(ctx context.Context) ([]User, int, error) {
	var (
		all   []User
		total int
	)

	next := "/api/users/"
	for next != "" {
		var page struct {
			Results []User `json:"results"`
			Count   int    `json:"count"`
			Next    string `json:"next"`
		}
		if err := s.client.GetJSON(ctx, next, &page); err != nil {
			log.Error().Err(err).Str("url", next).Msg("API error fetching users")
			return nil, 0, errors.Wrap(err, "[Service.Users] fetch page")
		}
		all = append(all, page.Results...)
		total = page.Count
		next = page.Next
	}
	return all, total, nil
}

// Me fetches the account owning the current session. Unlike the list
// fetchers it propagates failures, because callers on the login path must
// observe them.
func (s *Service) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.GetJSON(ctx, "/api/users/me/", &user); err != nil {
		return nil, errors.Wrap(err, "[Service.Me] fetch current user")
	}
	return &user, nil
}

// UserByID fetches one account.
func (s *Service) UserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/api/users/%d/", id), &user); err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("API error fetching user")
		return nil, errors.Wrap(err, "[Service.UserByID] fetch user")
	}
	return &user, nil
}

// CompanyByID fetches one company, including its member id list.
func (s *Service) CompanyByID(ctx context.Context, id int64) (*Company, error) {
	var company Company
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/api/companies/%d/", id), &company); err != nil {
		log.Error().Err(err).Int64("company_id", id).Msg("API error fetching company")
		return nil, errors.Wrap(err, "[Service.CompanyByID] fetch company")
	}
	return &company, nil
}

// CompanyQuizzes lists a company's quizzes, oldest first.
func (s *Service) CompanyQuizzes(ctx context.Context, companyID int64) ([]Quiz, error) {
	var quizzes []Quiz
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/api/companies/%d/quizzes/", companyID), &quizzes); err != nil {
		log.Error().Err(err).Int64("company_id", companyID).Msg("API error fetching quizzes")
		return nil, errors.Wrap(err, "[Service.CompanyQuizzes] fetch quizzes")
	}
	SortByTimestamp(quizzes)
	return quizzes, nil
}

// QuizByID fetches one quiz.
func (s *Service) QuizByID(ctx context.Context, id int64) (*Quiz, error) {
	var quiz Quiz
	if err := s.client.GetJSON(ctx, fmt.Sprintf("/api/quizzes/%d/", id), &quiz); err != nil {
		log.Error().Err(err).Int64("quiz_id", id).Msg("API error fetching quiz")
		return nil, errors.Wrap(err, "[Service.QuizByID] fetch quiz")
	}
	return &quiz, nil
}

// IsMember checks userID against the company's member set. Errors count as
// non-membership for the caller deciding between entry and a not-found
// redirect, but are still propagated for logging.
func (s *Service) IsMember(ctx context.Context, companyID, userID int64) (bool, error) {
	company, err := s.CompanyByID(ctx, companyID)
	if err != nil {
		return false, errors.Wrap(err, "[Service.IsMember] fetch company")
	}
	return company.HasMember(userID), nil
}
