package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/lib/logger/sl"
)

const (
	minScore = 0
	maxScore = 100
)

type ScoringService struct {
	log         *slog.Logger
	tx          Transactor
	users       UserRepository
	teams       TeamRepository
	projects    ProjectRepository
	submissions SubmissionRepository
	ledger      LedgerRepository
	cache       LeaderboardCache
	opts        options
}

// NewScoringService builds the scoring ledger. cache may be nil.
func NewScoringService(
	log *slog.Logger,
	tx Transactor,
	users UserRepository,
	teams TeamRepository,
	projects ProjectRepository,
	submissions SubmissionRepository,
	ledger LedgerRepository,
	cache LeaderboardCache,
	opts ...Option,
) *ScoringService {
	return &ScoringService{
		log:         log,
		tx:          tx,
		users:       users,
		teams:       teams,
		projects:    projects,
		submissions: submissions,
		ledger:      ledger,
		cache:       cache,
		opts:        buildOptions(opts),
	}
}

type CreateSubmissionInput struct {
	GithubLink  string
	Description string
}

func (s *ScoringService) CreateSubmission(ctx context.Context, actorID, projectID string, in CreateSubmissionInput) (*models.Submission, error) {
	const op = "service.scoring.CreateSubmission"

	log := s.log.With(
		slog.String("op", op),
		slog.String("actor_id", actorID),
		slog.String("project_id", projectID),
	)

	log.Info("attempting to create submission")

	link, err := normalizeGithubLink(in.GithubLink)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var submissionID string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, projectKey(projectID)); err != nil {
			return err
		}

		project, err := s.projects.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := checkAccepting(project, s.opts.clock()); err != nil {
			return err
		}

		actor, err := s.users.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		by, err := s.submitterFor(ctx, actor, project)
		if err != nil {
			return err
		}

		exists, err := s.submissions.SubmissionExists(ctx, projectID, by)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrSubmissionExists
		}

		sub := models.NewSubmission(s.opts.newID(), projectID, by, link, strings.TrimSpace(in.Description), s.opts.clock())
		if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
			return err
		}
		submissionID = sub.ID
		return nil
	})
	if err != nil {
		log.Error("failed to create submission", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("submission created", slog.String("submission_id", submissionID))

	return s.getSubmission(ctx, op, submissionID)
}

// submitterFor resolves who a submission by actor belongs to. Any member of a
// registered team may submit on its behalf.
func (s *ScoringService) submitterFor(ctx context.Context, actor *models.User, project *models.Project) (models.Participant, error) {
	if project.Type == models.ProjectIndividual {
		by := models.UserParticipant(actor.ID)
		if !project.HasParticipant(by) {
			return models.Participant{}, apperrors.ErrNotRegistered
		}
		return by, nil
	}

	if !actor.HasTeam() {
		return models.Participant{}, apperrors.ErrTeamRequired
	}
	if _, err := s.teams.GetTeam(ctx, *actor.TeamID); err != nil {
		return models.Participant{}, err
	}
	by := models.TeamParticipant(*actor.TeamID)
	if !project.HasParticipant(by) {
		return models.Participant{}, apperrors.ErrNotRegistered
	}
	return by, nil
}

type ReviewInput struct {
	Status   models.SubmissionStatus
	Score    *int
	Feedback string
}

// ReviewSubmission records an admin decision. A second review overwrites the
// first one, reviewer and timestamp included.
func (s *ScoringService) ReviewSubmission(ctx context.Context, adminID, submissionID string, in ReviewInput) (*models.Submission, error) {
	const op = "service.scoring.ReviewSubmission"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("submission_id", submissionID),
		slog.String("status", string(in.Status)),
	)

	if in.Status != models.SubmissionApproved && in.Status != models.SubmissionRejected {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidReviewStatus)
	}
	if in.Score != nil && (*in.Score < minScore || *in.Score > maxScore) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidScore)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
			return err
		}
		if err := s.tx.Lock(ctx, submissionKey(submissionID)); err != nil {
			return err
		}

		sub, err := s.submissions.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub.IsRanked() {
			return apperrors.ErrAlreadyRanked
		}

		now := s.opts.clock()
		sub.Status = in.Status
		sub.Score = in.Score
		sub.Feedback = strings.TrimSpace(in.Feedback)
		sub.ReviewedBy = &adminID
		sub.ReviewedAt = &now
		return s.submissions.SaveReview(ctx, sub)
	})
	if err != nil {
		log.Error("failed to review submission", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("submission reviewed")

	return s.getSubmission(ctx, op, submissionID)
}

// RankSubmission ranks an approved submission once and credits the points
// of that rank to its owner, with bonuses to the owner's team or members.
func (s *ScoringService) RankSubmission(ctx context.Context, adminID, submissionID string, ranking int) (*models.Distribution, error) {
	const op = "service.scoring.RankSubmission"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("submission_id", submissionID),
		slog.Int("ranking", ranking),
	)

	log.Info("attempting to rank submission")

	if ranking < 1 {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidRanking)
	}

	var (
		report  models.Distribution
		updates []scoreUpdate
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
			return err
		}

		sub, err := s.submissions.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		owner := sub.Submitter()
		if err := s.tx.Lock(ctx, submissionKey(sub.ID), ownerKey(owner)); err != nil {
			return err
		}

		// Reload under the lock.
		sub, err = s.submissions.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub.IsRanked() {
			return apperrors.ErrAlreadyRanked
		}
		if sub.Status != models.SubmissionApproved {
			return apperrors.ErrSubmissionNotApproved
		}

		project, err := s.projects.GetProject(ctx, sub.ProjectID)
		if err != nil {
			return err
		}
		points := project.PointsForRank(ranking)

		primary, beneficiaries, hidden, err := s.recipientsFor(ctx, owner)
		if err != nil {
			return err
		}
		report = Distribute(sub.ID, ranking, points, primary, beneficiaries)

		now := s.opts.clock()
		sub.Ranking = &ranking
		sub.PointsAwarded = &points
		sub.RankedAt = &now
		if err := s.submissions.SaveRanking(ctx, sub); err != nil {
			return err
		}

		reason := fmt.Sprintf("ranked #%d in project %q", ranking, project.Title)
		for _, entry := range report.Entries {
			if entry.Amount == 0 {
				continue
			}
			recipient := models.Participant{Kind: entry.RecipientType, ID: entry.RecipientID}
			txn := &models.PointTransaction{
				ID:            s.opts.newID(),
				Kind:          entry.Kind,
				RecipientType: entry.RecipientType,
				RecipientID:   entry.RecipientID,
				Amount:        entry.Amount,
				SubmissionID:  &sub.ID,
				Reason:        reason,
				ActorID:       adminID,
				CreatedAt:     now,
			}
			if err := s.credit(ctx, txn); err != nil {
				return err
			}
			if !hidden[recipient] {
				updates = append(updates, scoreUpdate{recipient: recipient, name: entry.Name, delta: entry.Amount})
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to rank submission", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, updates)

	log.Info("submission ranked",
		slog.Int("points_awarded", report.PointsAwarded),
		slog.Int("total_distributed", report.Total()))

	return &report, nil
}

// recipientsFor resolves the primary recipient of a submission and the
// beneficiaries of its bonus. hidden marks admin accounts, which never
// appear on the leaderboard.
func (s *ScoringService) recipientsFor(ctx context.Context, owner models.Participant) (Recipient, []Recipient, map[models.Participant]bool, error) {
	hidden := make(map[models.Participant]bool)

	if owner.IsUser() {
		user, err := s.users.GetUser(ctx, owner.ID)
		if err != nil {
			return Recipient{}, nil, nil, err
		}
		if user.IsAdmin() {
			hidden[owner] = true
		}
		primary := Recipient{Participant: owner, Name: user.Username}
		if !user.HasTeam() {
			return primary, nil, hidden, nil
		}
		team, err := s.teams.GetTeam(ctx, *user.TeamID)
		if errors.Is(err, apperrors.ErrTeamNotFound) {
			return primary, nil, hidden, nil
		}
		if err != nil {
			return Recipient{}, nil, nil, err
		}
		return primary, []Recipient{{Participant: models.TeamParticipant(team.ID), Name: team.Name}}, hidden, nil
	}

	team, err := s.teams.GetTeam(ctx, owner.ID)
	if err != nil {
		return Recipient{}, nil, nil, err
	}
	members, err := s.users.ListTeamMembers(ctx, team.ID)
	if err != nil {
		return Recipient{}, nil, nil, err
	}
	beneficiaries := make([]Recipient, 0, len(members))
	for _, m := range members {
		p := models.UserParticipant(m.ID)
		if m.IsAdmin() {
			hidden[p] = true
		}
		beneficiaries = append(beneficiaries, Recipient{Participant: p, Name: m.Username})
	}
	return Recipient{Participant: owner, Name: team.Name}, beneficiaries, hidden, nil
}

type AddPointsInput struct {
	Target models.Participant
	Delta  int
	Reason string
}

// AddPoints writes a manual adjustment for exactly one user or team.
func (s *ScoringService) AddPoints(ctx context.Context, adminID string, in AddPointsInput) (*models.PointTransaction, error) {
	const op = "service.scoring.AddPoints"

	log := s.log.With(
		slog.String("op", op),
		slog.String("admin_id", adminID),
		slog.String("target", in.Target.String()),
		slog.Int("delta", in.Delta),
	)

	if !in.Target.Kind.Valid() || in.Target.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPointsTarget)
	}
	if in.Delta == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrZeroDelta)
	}

	var (
		txn    *models.PointTransaction
		update *scoreUpdate
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
			return err
		}
		if err := s.tx.Lock(ctx, ownerKey(in.Target)); err != nil {
			return err
		}

		name, listed, err := s.describe(ctx, in.Target)
		if err != nil {
			return err
		}

		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = "manual adjustment"
		}
		txn = &models.PointTransaction{
			ID:            s.opts.newID(),
			Kind:          models.TransactionManualAdjustment,
			RecipientType: in.Target.Kind,
			RecipientID:   in.Target.ID,
			Amount:        in.Delta,
			Reason:        reason,
			ActorID:       adminID,
			CreatedAt:     s.opts.clock(),
		}
		if err := s.credit(ctx, txn); err != nil {
			return err
		}
		if listed {
			update = &scoreUpdate{recipient: in.Target, name: name, delta: in.Delta}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to add points", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if update != nil {
		s.publish(ctx, []scoreUpdate{*update})
	}

	log.Info("points adjusted", slog.String("transaction_id", txn.ID))

	return txn, nil
}

func (s *ScoringService) ListTransactions(ctx context.Context, recipient models.Participant) ([]models.PointTransaction, error) {
	const op = "service.scoring.ListTransactions"

	if _, _, err := s.describe(ctx, recipient); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txs, err := s.ledger.ListTransactions(ctx, recipient)
	if err != nil {
		s.log.Error("failed to list transactions", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return txs, nil
}

func (s *ScoringService) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	const op = "service.scoring.GetSubmission"
	return s.getSubmission(ctx, op, submissionID)
}

func (s *ScoringService) ListProjectSubmissions(ctx context.Context, adminID, projectID string) ([]models.Submission, error) {
	const op = "service.scoring.ListProjectSubmissions"

	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subs, err := s.submissions.ListProjectSubmissions(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// credit appends a ledger row and moves the recipient's balance by the same amount.
func (s *ScoringService) credit(ctx context.Context, txn *models.PointTransaction) error {
	var err error
	switch txn.RecipientType {
	case models.ParticipantUser:
		err = s.users.AddUserPoints(ctx, txn.RecipientID, txn.Amount)
	case models.ParticipantTeam:
		err = s.teams.AddTeamPoints(ctx, txn.RecipientID, txn.Amount)
	default:
		err = apperrors.ErrPointsTarget
	}
	if err != nil {
		return err
	}
	return s.ledger.AppendTransaction(ctx, txn)
}

// describe resolves a ledger target to its display name. The second result is
// false for accounts kept off the leaderboard.
func (s *ScoringService) describe(ctx context.Context, p models.Participant) (string, bool, error) {
	switch p.Kind {
	case models.ParticipantUser:
		u, err := s.users.GetUser(ctx, p.ID)
		if err != nil {
			return "", false, err
		}
		return u.Username, !u.IsAdmin(), nil
	case models.ParticipantTeam:
		t, err := s.teams.GetTeam(ctx, p.ID)
		if err != nil {
			return "", false, err
		}
		return t.Name, true, nil
	default:
		return "", false, apperrors.ErrPointsTarget
	}
}

type scoreUpdate struct {
	recipient models.Participant
	name      string
	delta     int
}

// publish mirrors committed balance changes into the leaderboard cache. A
// failed update only degrades the cache; storage stays authoritative.
func (s *ScoringService) publish(ctx context.Context, updates []scoreUpdate) {
	if s.cache == nil {
		return
	}
	for _, u := range updates {
		if err := s.cache.Increment(ctx, u.recipient, u.name, u.delta); err != nil {
			s.log.Warn("failed to update leaderboard cache",
				slog.String("recipient", u.recipient.String()),
				sl.Err(err))
		}
	}
}

func (s *ScoringService) getSubmission(ctx context.Context, op, submissionID string) (*models.Submission, error) {
	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func ownerKey(p models.Participant) string {
	if p.IsTeam() {
		return teamKey(p.ID)
	}
	return userKey(p.ID)
}

// normalizeGithubLink accepts https://github.com/<owner>/<repo>[/...] links.
func normalizeGithubLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperrors.ErrGithubLinkRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", apperrors.ErrInvalidGithubLink
	}
	host := strings.ToLower(u.Host)
	if (u.Scheme != "https" && u.Scheme != "http") || (host != "github.com" && host != "www.github.com") {
		return "", apperrors.ErrInvalidGithubLink
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", apperrors.ErrInvalidGithubLink
	}
	return raw, nil
}

func checkAccepting(project *models.Project, now time.Time) error {
	if project.Status != models.ProjectActive {
		return apperrors.ErrProjectNotActive
	}
	if now.After(project.EndDate) {
		return apperrors.ErrProjectEnded
	}
	return nil
}
