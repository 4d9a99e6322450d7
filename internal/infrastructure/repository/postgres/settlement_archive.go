package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fanstake/squad-ledger/internal/domain/wager"
)

// SettlementArchive persists refund/redeem audit rows. The archive is a
// downstream copy of ledger history; inserts are idempotent per
// (kind, squad_index, occurred_at) so worker retries cannot duplicate rows.
type SettlementArchive struct {
	db *sqlx.DB
}

func NewSettlementArchive(db *sqlx.DB) *SettlementArchive {
	return &SettlementArchive{db: db}
}

func (a *SettlementArchive) Insert(ctx context.Context, event wager.SettlementEvent) error {
	const query = `
INSERT INTO settlement_events (
	kind, squad_index, user_address, season_id, league_id, round_id,
	amount_wei, fee_wei, occurred_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (kind, squad_index, occurred_at) DO NOTHING`

	_, err := a.db.ExecContext(ctx, query,
		string(event.Kind),
		event.SquadIndex,
		event.User.String(),
		event.SeasonID,
		event.LeagueID,
		event.RoundID,
		fmt.Sprintf("%d", event.AmountWei),
		fmt.Sprintf("%d", event.FeeWei),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement event: %w", err)
	}
	return nil
}
