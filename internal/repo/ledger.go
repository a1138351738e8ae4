package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"competition-ledger/internal/domain/models"
	"competition-ledger/internal/storage/postgresql"
)

type LedgerRepo struct {
	storage postgresql.Conn
}

func NewLedgerRepo(storage postgresql.Conn) *LedgerRepo {
	return &LedgerRepo{storage: storage}
}

func (r *LedgerRepo) AppendTransaction(ctx context.Context, tx *models.PointTransaction) error {
	const op = "repo.ledger.AppendTransaction"

	query := `
		INSERT INTO point_transactions (id, kind, recipient_type, recipient_id, amount, submission_id, reason, actor_id, created_at)
		VALUES (:id, :kind, :recipient_type, :recipient_id, :amount, :submission_id, :reason, :actor_id, :created_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.storage.Executor(ctx), query, tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListTransactions returns the ledger of one recipient in append order.
func (r *LedgerRepo) ListTransactions(ctx context.Context, recipient models.Participant) ([]models.PointTransaction, error) {
	const op = "repo.ledger.ListTransactions"

	query := `
		SELECT id, kind, recipient_type, recipient_id, amount, submission_id, reason, actor_id, created_at
		FROM point_transactions
		WHERE recipient_type = $1 AND recipient_id = $2
		ORDER BY seq
	`

	var txs []models.PointTransaction
	if err := sqlx.SelectContext(ctx, r.storage.Executor(ctx), &txs, query, recipient.Kind, recipient.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}
