package memory

import (
	"context"
	"sort"

	"competition-ledger/internal/domain/models"
)

func (s *Store) AppendTransaction(ctx context.Context, tx *models.PointTransaction) error {
	defer s.acquire(ctx)()

	s.st.ledger = append(s.st.ledger, *tx)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, recipient models.Participant) ([]models.PointTransaction, error) {
	defer s.acquire(ctx)()

	var txs []models.PointTransaction
	for _, tx := range s.st.ledger {
		if tx.Recipient() == recipient {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	defer s.acquire(ctx)()

	entries := make([]models.LeaderboardEntry, 0, len(s.st.users))
	for _, u := range s.st.users {
		if u.IsAdmin() {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{ID: u.ID, Name: u.Username, Points: u.Points})
	}
	return rank(entries, limit), nil
}

func (s *Store) TopTeams(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	defer s.acquire(ctx)()

	entries := make([]models.LeaderboardEntry, 0, len(s.st.teams))
	for _, t := range s.st.teams {
		entries = append(entries, models.LeaderboardEntry{ID: t.ID, Name: t.Name, Points: t.Points})
	}
	return rank(entries, limit), nil
}

func rank(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
