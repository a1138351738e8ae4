// Package repo holds the PostgreSQL repositories. Each one runs its queries
// on the transaction carried by the context when there is one.
package repo

import (
	"competition-ledger/internal/storage/postgresql"
)

// Store bundles the repositories over one database with its transactor.
type Store struct {
	*postgresql.Storage
	*UserRepo
	*TeamRepo
	*ProjectRepo
	*SubmissionRepo
	*InvitationRepo
	*LedgerRepo
	*StandingsRepo
}

func NewStore(storage *postgresql.Storage) *Store {
	return &Store{
		Storage:        storage,
		UserRepo:       NewUserRepo(storage),
		TeamRepo:       NewTeamRepo(storage),
		ProjectRepo:    NewProjectRepo(storage),
		SubmissionRepo: NewSubmissionRepo(storage),
		InvitationRepo: NewInvitationRepo(storage),
		LedgerRepo:     NewLedgerRepo(storage),
		StandingsRepo:  NewStandingsRepo(storage),
	}
}
