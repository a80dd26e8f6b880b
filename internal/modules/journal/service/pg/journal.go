package pg

import (
	"context"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Journal пишет принятые сигналы и терминальные исходы в Postgres.
// Замена исходному append-в-файл: то же назначение, но с нормальным
// конкурентным доступом и запросами задним числом.
type Journal struct {
	db *db.PgTxManager
}

func NewJournal(db *db.PgTxManager) *Journal {
	return &Journal{db: db}
}

// EnsureSchema — таблицы журнала; вызывается один раз на старте.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			CREATE TABLE IF NOT EXISTS signals (
				id          text PRIMARY KEY,
				symbol      text NOT NULL,
				position    text NOT NULL,
				payload     jsonb NOT NULL,
				received_at timestamptz NOT NULL
			);
			CREATE TABLE IF NOT EXISTS executions (
				id          bigserial PRIMARY KEY,
				signal_id   text NOT NULL,
				state       text NOT NULL,
				quantity    double precision,
				entry_price double precision,
				error       text,
				finished_at timestamptz NOT NULL
			);
		`)
		return errors.Wrap(err, "ensure journal schema")
	})
}

func (j *Journal) SignalAccepted(ctx context.Context, sig models.Signal) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "journal.SignalAccepted")
		}
	}()

	payload, err := sonic.Marshal(sig)
	if err != nil {
		return err
	}

	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO signals (id, symbol, position, payload, received_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			sig.ID, sig.Symbol, string(sig.Position), payload, sig.ReceivedAt,
		)
		return err
	})
}

func (j *Journal) OutcomeRecorded(ctx context.Context, out models.Outcome) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "journal.OutcomeRecorded")
		}
	}()

	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var errText *string
		if out.Err != "" {
			errText = &out.Err
		}
		_, err := tx.Exec(ctxTx, `
			INSERT INTO executions (signal_id, state, quantity, entry_price, error, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			out.Signal.ID, string(out.State), out.Quantity, out.EntryPrice, errText, out.FinishedAt,
		)
		return err
	})
}
