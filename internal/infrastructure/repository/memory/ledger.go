package memory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/domain/wager"
)

type userLeagueKey struct {
	user     access.Address
	seasonID int64
	leagueID int64
}

// SquadLedger is the in-memory squad table with its derived indices: the
// per-slot latest-funding pointer, the per-user-per-league creation history,
// the per-round membership list, and the running validated aggregates.
// All writes go through this store so the indices can never drift from the
// table.
type SquadLedger struct {
	mu sync.RWMutex

	squads []wager.Squad

	slotIndex       map[wager.SlotKey]int
	userLeagueIndex map[userLeagueKey][]int
	roundIndex      map[wager.RoundKey][]int
	roundAggregates map[wager.RoundKey]wager.RoundAggregate
}

func NewSquadLedger() *SquadLedger {
	return &SquadLedger{
		slotIndex:       make(map[wager.SlotKey]int),
		userLeagueIndex: make(map[userLeagueKey][]int),
		roundIndex:      make(map[wager.RoundKey][]int),
		roundAggregates: make(map[wager.RoundKey]wager.RoundAggregate),
	}
}

func (l *SquadLedger) Append(_ context.Context, squad wager.Squad) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := len(l.squads)
	l.squads = append(l.squads, cloneSquad(squad))

	l.slotIndex[squad.SlotKey()] = index

	ulKey := userLeagueKey{user: squad.UserAddress, seasonID: squad.SeasonID, leagueID: squad.LeagueID}
	l.userLeagueIndex[ulKey] = append(l.userLeagueIndex[ulKey], index)

	roundKey := squad.RoundKey()
	l.roundIndex[roundKey] = append(l.roundIndex[roundKey], index)

	return index, nil
}

func (l *SquadLedger) Replace(_ context.Context, index int, squad wager.Squad) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.squads) {
		return fmt.Errorf("squad index %d out of range [0,%d)", index, len(l.squads))
	}

	current := l.squads[index]
	if current.SlotKey() != squad.SlotKey() {
		return fmt.Errorf("squad slot key mismatch at index %d", index)
	}

	l.squads[index] = cloneSquad(squad)
	return nil
}

func (l *SquadLedger) GetByIndex(_ context.Context, index int) (wager.Squad, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.squads) {
		return wager.Squad{}, false, nil
	}
	return cloneSquad(l.squads[index]), true, nil
}

func (l *SquadLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.squads), nil
}

func (l *SquadLedger) SlotIndex(_ context.Context, key wager.SlotKey) (int, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	index, ok := l.slotIndex[key]
	return index, ok, nil
}

func (l *SquadLedger) ListIndexesByUserLeague(_ context.Context, user access.Address, seasonID, leagueID int64) ([]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	key := userLeagueKey{user: user, seasonID: seasonID, leagueID: leagueID}
	return append([]int(nil), l.userLeagueIndex[key]...), nil
}

func (l *SquadLedger) ListIndexesByRound(_ context.Context, key wager.RoundKey) ([]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]int(nil), l.roundIndex[key]...), nil
}

func (l *SquadLedger) RoundAggregate(_ context.Context, key wager.RoundKey) (wager.RoundAggregate, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	agg, ok := l.roundAggregates[key]
	if !ok {
		return wager.RoundAggregate{ValidatedStake: new(big.Int)}, nil
	}
	return wager.RoundAggregate{
		ValidatedCount: agg.ValidatedCount,
		ValidatedStake: new(big.Int).Set(agg.ValidatedStake),
	}, nil
}

func (l *SquadLedger) AddValidatedStake(_ context.Context, key wager.RoundKey, stakeWei uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	agg, ok := l.roundAggregates[key]
	if !ok {
		agg = wager.RoundAggregate{ValidatedStake: new(big.Int)}
	}
	agg.ValidatedCount++
	agg.ValidatedStake = new(big.Int).Add(agg.ValidatedStake, new(big.Int).SetUint64(stakeWei))
	l.roundAggregates[key] = agg
	return nil
}

func cloneSquad(s wager.Squad) wager.Squad {
	copied := s
	copied.PlayerIDs = append([]int64(nil), s.PlayerIDs...)
	copied.BenchPlayerIDs = append([]int64(nil), s.BenchPlayerIDs...)
	return copied
}
