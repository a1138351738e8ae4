package memory

import (
	"context"
	"fmt"
	"sort"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
)

func (s *Store) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	const op = "repo.memory.CreateSubmission"
	defer s.acquire(ctx)()

	if _, ok := s.st.projects[submission.ProjectID]; !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrProjectNotFound)
	}
	if s.submissionFor(submission.ProjectID, submission.Submitter()) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionExists)
	}
	s.st.submissions[submission.ID] = *submission
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	const op = "repo.memory.GetSubmission"
	defer s.acquire(ctx)()

	sub, ok := s.st.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionNotFound)
	}
	return &sub, nil
}

func (s *Store) SubmissionExists(ctx context.Context, projectID string, by models.Participant) (bool, error) {
	defer s.acquire(ctx)()

	return s.submissionFor(projectID, by), nil
}

func (s *Store) ListProjectSubmissions(ctx context.Context, projectID string) ([]models.Submission, error) {
	defer s.acquire(ctx)()

	var subs []models.Submission
	for _, sub := range s.sortedSubmissions() {
		if sub.ProjectID == projectID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *Store) SaveReview(ctx context.Context, submission *models.Submission) error {
	const op = "repo.memory.SaveReview"
	defer s.acquire(ctx)()

	stored, ok := s.st.submissions[submission.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionNotFound)
	}
	stored.Status = submission.Status
	stored.Score = submission.Score
	stored.Feedback = submission.Feedback
	stored.ReviewedBy = submission.ReviewedBy
	stored.ReviewedAt = submission.ReviewedAt
	s.st.submissions[submission.ID] = stored
	return nil
}

func (s *Store) SaveRanking(ctx context.Context, submission *models.Submission) error {
	const op = "repo.memory.SaveRanking"
	defer s.acquire(ctx)()

	stored, ok := s.st.submissions[submission.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperrors.ErrSubmissionNotFound)
	}
	stored.Ranking = submission.Ranking
	stored.PointsAwarded = submission.PointsAwarded
	stored.RankedAt = submission.RankedAt
	s.st.submissions[submission.ID] = stored
	return nil
}

func (s *Store) submissionFor(projectID string, by models.Participant) bool {
	for _, sub := range s.st.submissions {
		if sub.ProjectID == projectID && sub.Submitter() == by {
			return true
		}
	}
	return false
}

func (s *Store) sortedSubmissions() []models.Submission {
	subs := make([]models.Submission, 0, len(s.st.submissions))
	for _, sub := range s.st.submissions {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}
