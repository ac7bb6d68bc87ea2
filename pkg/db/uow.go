package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/mail-relay/pkg/interfaces"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UOW struct {
	Pool *pgxpool.Pool
	Tx   pgx.Tx
}

func (u *UOW) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := u.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("can't begin tx, %v", err)
	}
	u.Tx = tx
	return u.Tx, nil
}

func (u *UOW) GetTx() pgx.Tx {
	return u.Tx
}

func (u *UOW) Commit(ctx context.Context) error {
	if u.Tx == nil {
		return fmt.Errorf("transaction is not started yet")
	}
	return u.Tx.Commit(ctx)
}

func (u *UOW) Rollback(ctx context.Context) error {
	if u.Tx == nil {
		return fmt.Errorf("transaction is not started yet")
	}
	return u.Tx.Rollback(ctx)
}

// Finalize commits when *err is nil and rolls back otherwise. Meant to be deferred.
func (u *UOW) Finalize(ctx context.Context, err *error) {
	if *err != nil {
		if rbErr := u.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Error("err rolling back", "err", rbErr)
		}
		return
	}
	if commitErr := u.Commit(ctx); commitErr != nil {
		*err = fmt.Errorf("err committing, %w", commitErr)
	}
}

type UOWFactory struct {
	Pool *pgxpool.Pool
}

var _ interfaces.UoWFactory = (*UOWFactory)(nil)

func (u *UOWFactory) GetUoW() interfaces.UoW {
	return &UOW{
		Pool: u.Pool,
	}
}

func NewUoWFactory(pool *pgxpool.Pool) *UOWFactory {
	return &UOWFactory{
		Pool: pool,
	}
}
