// AngelaMos | 2026
// store.go

package team

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cosmicteams/cosmic-backend/internal/core"
)

// Store hands out repositories and runs check-then-write sequences inside
// a single transaction. The DBTX passed to the callback is the same
// transaction the repository runs on, so the mail relay can join it.
type Store interface {
	Repo() Repository
	InTx(ctx context.Context, fn func(repo Repository, db core.DBTX) error) error

	// InTxSerializable is InTx at SERIALIZABLE isolation with retry. The
	// single-team and open-invitation checks have no unique index behind
	// them, so their check-then-insert sequences run here.
	InTxSerializable(ctx context.Context, fn func(repo Repository, db core.DBTX) error) error
}

type sqlStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

func (s *sqlStore) Repo() Repository {
	return NewRepository(s.db)
}

func (s *sqlStore) InTx(
	ctx context.Context,
	fn func(repo Repository, db core.DBTX) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx), tx)
	})
}

func (s *sqlStore) InTxSerializable(
	ctx context.Context,
	fn func(repo Repository, db core.DBTX) error,
) error {
	return core.InTxSerializable(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx), tx)
	})
}
