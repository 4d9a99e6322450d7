package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/platform/cache"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
)

// Treasury is the external custody boundary. A credit either fully happens or
// returns an error; the idempotency key is derived from the settlement
// identity, so retrying an aborted operation replays the same key and the
// custody side deduplicates it.
type Treasury interface {
	Credit(ctx context.Context, to access.Address, amountWei uint64, idempotencyKey string) error
}

// SettlementRecorder receives refund/redeem audit events. Recording is
// best-effort and must never fail ledger operations.
type SettlementRecorder interface {
	Record(event wager.SettlementEvent)
}

// FundSquadInput is the incoming payload for squad creation/re-funding.
type FundSquadInput struct {
	SeasonID       int64
	LeagueID       int64
	RoundID        int64
	CaptainID      int64
	PlayerIDs      []int64
	BenchPlayerIDs []int64
	StakeWei       uint64
}

// RoundSummary is the public, cache-served view of one round's pool. It is a
// convenience read model; settlement logic never consults it.
type RoundSummary struct {
	SeasonID       int64  `json:"season_id"`
	LeagueID       int64  `json:"league_id"`
	RoundID        int64  `json:"round_id"`
	MemberCount    int    `json:"member_count"`
	TerminalCount  int    `json:"terminal_count"`
	ValidatedCount int    `json:"validated_count"`
	ValidatedStake string `json:"validated_stake_wei"`
	Finalized      bool   `json:"finalized"`
}

// WagerService owns the squad ledger: funding, oracle resolution, round
// finality, and payout settlement. Every mutating operation runs under one
// mutex, so an operation observes and changes state with no interleaving;
// all precondition checks happen before any write, and external treasury
// effects are invoked before the first persisted mutation so a treasury fault
// aborts the whole operation.
type WagerService struct {
	mu sync.Mutex

	ledger   wager.Ledger
	accessor *AccessService
	treasury Treasury
	recorder SettlementRecorder
	summary  *cache.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewWagerService(
	ledger wager.Ledger,
	accessor *AccessService,
	treasury Treasury,
	recorder SettlementRecorder,
	summaryCache *cache.Store,
	logger *logging.Logger,
) *WagerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WagerService{
		ledger:   ledger,
		accessor: accessor,
		treasury: treasury,
		recorder: recorder,
		summary:  summaryCache,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAndFundSquad creates a squad for the caller's (season, league, round)
// slot with the attached stake. Re-funding an unresolved slot overwrites the
// existing entry in place and keeps its index; any other case allocates the
// next dense index. Returns the squad and its index.
func (s *WagerService) CreateAndFundSquad(ctx context.Context, caller access.Address, input FundSquadInput) (wager.Squad, int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.CreateAndFundSquad")
	defer span.End()

	if caller.IsZero() {
		return wager.Squad{}, 0, fmt.Errorf("%w: caller identity is required", ErrZeroAddress)
	}
	if err := wager.ValidateFunding(input.PlayerIDs, input.BenchPlayerIDs, input.StakeWei); err != nil {
		return wager.Squad{}, 0, mapFundingError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	squad := wager.Squad{
		SeasonID:       input.SeasonID,
		LeagueID:       input.LeagueID,
		RoundID:        input.RoundID,
		CaptainID:      input.CaptainID,
		PlayerIDs:      append([]int64(nil), input.PlayerIDs...),
		BenchPlayerIDs: append([]int64(nil), input.BenchPlayerIDs...),
		StakeWei:       input.StakeWei,
		Status:         wager.StatusToBeValidated,
		Initialized:    true,
		UserAddress:    caller,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}

	slotKey := squad.SlotKey()
	index, found, err := s.ledger.SlotIndex(ctx, slotKey)
	if err != nil {
		return wager.Squad{}, 0, fmt.Errorf("resolve funding slot: %w", err)
	}

	if found {
		existing, ok, err := s.ledger.GetByIndex(ctx, index)
		if err != nil {
			return wager.Squad{}, 0, fmt.Errorf("load slot squad: %w", err)
		}
		if !ok {
			return wager.Squad{}, 0, fmt.Errorf("%w: slot index %d dangling", ErrUnknownSquad, index)
		}
		if existing.Initialized && existing.UserAddress != caller {
			// Unreachable while the slot key embeds the identity; kept as a
			// guard against index corruption.
			return wager.Squad{}, 0, fmt.Errorf("%w: slot owned by %s", ErrAlreadyFunded, existing.UserAddress)
		}
		if existing.Initialized && existing.Status == wager.StatusToBeValidated {
			squad.CreatedAt = existing.CreatedAt
			if err := s.ledger.Replace(ctx, index, squad); err != nil {
				return wager.Squad{}, 0, fmt.Errorf("overwrite unresolved slot: %w", err)
			}

			s.logger.InfoContext(ctx, "squad re-funded",
				"user", caller,
				"squad_index", index,
				"round_id", input.RoundID,
				"stake_wei", input.StakeWei,
			)
			return squad, index, nil
		}
	}

	index, err = s.ledger.Append(ctx, squad)
	if err != nil {
		return wager.Squad{}, 0, fmt.Errorf("append squad: %w", err)
	}

	s.logger.InfoContext(ctx, "squad funded",
		"user", caller,
		"squad_index", index,
		"season_id", input.SeasonID,
		"league_id", input.LeagueID,
		"round_id", input.RoundID,
		"stake_wei", input.StakeWei,
	)
	return squad, index, nil
}

// MarkInvalid moves a ToBeValidated squad to the given terminal invalidation
// reason and refunds the full stake to its owner. A refund fault aborts the
// operation with no state change.
func (s *WagerService) MarkInvalid(ctx context.Context, caller access.Address, index int, reason wager.Status) (wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.MarkInvalid")
	defer span.End()

	if !s.accessor.IsOracle(caller) {
		return wager.Squad{}, fmt.Errorf("%w: caller is not the oracle", ErrUnauthorized)
	}
	if !reason.IsInvalidReason() {
		return wager.Squad{}, fmt.Errorf("%w: %s is not an invalidation reason", ErrInvalidStateTransition, reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return wager.Squad{}, err
	}
	if squad.Status != wager.StatusToBeValidated {
		return wager.Squad{}, fmt.Errorf("%w: squad %d is %s, expected %s",
			ErrInvalidState, index, squad.Status, wager.StatusToBeValidated)
	}

	if err := s.credit(ctx, squad.UserAddress, squad.StakeWei, refundKey(index)); err != nil {
		return wager.Squad{}, fmt.Errorf("refund stake: %w", err)
	}

	now := s.now().UTC()
	squad.Status = reason
	squad.Initialized = false
	squad.LastUpdatedAt = now
	if err := s.ledger.Replace(ctx, index, squad); err != nil {
		return wager.Squad{}, fmt.Errorf("persist invalidation: %w", err)
	}

	s.record(wager.SettlementEvent{
		Kind:       wager.SettlementRefund,
		SquadIndex: index,
		User:       squad.UserAddress,
		SeasonID:   squad.SeasonID,
		LeagueID:   squad.LeagueID,
		RoundID:    squad.RoundID,
		AmountWei:  squad.StakeWei,
		OccurredAt: now,
	})

	s.logger.InfoContext(ctx, "squad invalidated",
		"squad_index", index,
		"reason", reason.String(),
		"refund_wei", squad.StakeWei,
	)
	return squad, nil
}

// MarkValid moves a ToBeValidated squad to Validated and folds its stake into
// the round's validated aggregates.
func (s *WagerService) MarkValid(ctx context.Context, caller access.Address, index int) (wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.MarkValid")
	defer span.End()

	if !s.accessor.IsOracle(caller) {
		return wager.Squad{}, fmt.Errorf("%w: caller is not the oracle", ErrUnauthorized)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return wager.Squad{}, err
	}
	if squad.Status != wager.StatusToBeValidated {
		return wager.Squad{}, fmt.Errorf("%w: squad %d is %s, expected %s",
			ErrInvalidState, index, squad.Status, wager.StatusToBeValidated)
	}

	squad.Status = wager.StatusValidated
	squad.LastUpdatedAt = s.now().UTC()
	if err := s.ledger.Replace(ctx, index, squad); err != nil {
		return wager.Squad{}, fmt.Errorf("persist validation: %w", err)
	}
	if err := s.ledger.AddValidatedStake(ctx, squad.RoundKey(), squad.StakeWei); err != nil {
		return wager.Squad{}, fmt.Errorf("update round aggregates: %w", err)
	}

	s.logger.InfoContext(ctx, "squad validated", "squad_index", index, "stake_wei", squad.StakeWei)
	return squad, nil
}

// MarkLose moves a Validated squad to the terminal Lose state.
func (s *WagerService) MarkLose(ctx context.Context, caller access.Address, index int) (wager.Squad, error) {
	return s.resolveOutcome(ctx, caller, index, wager.StatusLose, 0)
}

// MarkWin moves a Validated squad to Win.
func (s *WagerService) MarkWin(ctx context.Context, caller access.Address, index int) (wager.Squad, error) {
	return s.resolveOutcome(ctx, caller, index, wager.StatusWin, 0)
}

// MarkWinWithSum is the legacy oracle variant that records a precomputed win
// sum alongside the Win transition. Redemption recomputes the payout from
// round totals regardless, so the recorded value is informational.
func (s *WagerService) MarkWinWithSum(ctx context.Context, caller access.Address, index int, winSumWei uint64) (wager.Squad, error) {
	return s.resolveOutcome(ctx, caller, index, wager.StatusWin, winSumWei)
}

func (s *WagerService) resolveOutcome(ctx context.Context, caller access.Address, index int, outcome wager.Status, legacyWinSumWei uint64) (wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.resolveOutcome")
	defer span.End()

	if !s.accessor.IsOracle(caller) {
		return wager.Squad{}, fmt.Errorf("%w: caller is not the oracle", ErrUnauthorized)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return wager.Squad{}, err
	}
	if squad.Status != wager.StatusValidated {
		return wager.Squad{}, fmt.Errorf("%w: squad %d is %s, expected %s",
			ErrInvalidState, index, squad.Status, wager.StatusValidated)
	}

	squad.Status = outcome
	if legacyWinSumWei > 0 {
		squad.WinSumWei = legacyWinSumWei
	}
	squad.LastUpdatedAt = s.now().UTC()
	if err := s.ledger.Replace(ctx, index, squad); err != nil {
		return wager.Squad{}, fmt.Errorf("persist outcome: %w", err)
	}

	s.logger.InfoContext(ctx, "squad outcome resolved", "squad_index", index, "outcome", outcome.String())
	return squad, nil
}

// CheckRoundFinalized reports whether every squad in the seed squad's round
// has reached a terminal status. Payouts are gated on this: the ratio depends
// on the final win/lose pools.
func (s *WagerService) CheckRoundFinalized(ctx context.Context, index int) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.CheckRoundFinalized")
	defer span.End()

	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return false, err
	}
	return s.roundFinalized(ctx, squad.RoundKey())
}

// GetWinSum computes the caller's payout for a winning squad. Pure read.
func (s *WagerService) GetWinSum(ctx context.Context, caller access.Address, index int) (uint64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.GetWinSum")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	squad, err := s.checkRedeemable(ctx, caller, index)
	if err != nil {
		return 0, err
	}

	totals, err := s.roundTotals(ctx, squad.RoundKey())
	if err != nil {
		return 0, err
	}
	winSum, err := wager.WinPayout(squad.StakeWei, totals)
	if err != nil {
		return 0, fmt.Errorf("compute win payout: %w", err)
	}
	return winSum, nil
}

// WithdrawWinSum settles a winning squad: recomputes the payout, splits the
// platform fee, credits owner and fee recipient, and marks the squad
// Redeemed. Either treasury credit faulting aborts the whole operation.
func (s *WagerService) WithdrawWinSum(ctx context.Context, caller access.Address, index int) (wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.WithdrawWinSum")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	squad, err := s.checkRedeemable(ctx, caller, index)
	if err != nil {
		return wager.Squad{}, err
	}

	totals, err := s.roundTotals(ctx, squad.RoundKey())
	if err != nil {
		return wager.Squad{}, err
	}
	winSum, err := wager.WinPayout(squad.StakeWei, totals)
	if err != nil {
		return wager.Squad{}, fmt.Errorf("compute win payout: %w", err)
	}

	roles := s.accessor.Roles()
	feeWei, netWei := wager.SplitPlatformFee(winSum, roles.PlatformFeeRateBps, squad.WinSumWei)

	if err := s.credit(ctx, squad.UserAddress, netWei, redeemKey(index, "owner")); err != nil {
		return wager.Squad{}, fmt.Errorf("credit win sum: %w", err)
	}
	if err := s.credit(ctx, roles.PlatformFeeAddress, feeWei, redeemKey(index, "fee")); err != nil {
		return wager.Squad{}, fmt.Errorf("credit platform fee: %w", err)
	}

	now := s.now().UTC()
	squad.Status = wager.StatusRedeemed
	squad.WinSumWei = netWei
	squad.PlatformFeeWei = feeWei
	squad.LastUpdatedAt = now
	if err := s.ledger.Replace(ctx, index, squad); err != nil {
		return wager.Squad{}, fmt.Errorf("persist redemption: %w", err)
	}

	s.record(wager.SettlementEvent{
		Kind:       wager.SettlementRedeem,
		SquadIndex: index,
		User:       squad.UserAddress,
		SeasonID:   squad.SeasonID,
		LeagueID:   squad.LeagueID,
		RoundID:    squad.RoundID,
		AmountWei:  netWei,
		FeeWei:     feeWei,
		OccurredAt: now,
	})

	s.logger.InfoContext(ctx, "squad redeemed",
		"squad_index", index,
		"win_sum_wei", netWei,
		"platform_fee_wei", feeWei,
	)
	return squad, nil
}

// GetSquad returns the squad at index.
func (s *WagerService) GetSquad(ctx context.Context, index int) (wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.GetSquad")
	defer span.End()

	return s.requireSquad(ctx, index)
}

// SquadOwner exposes ownership for cross-component checks (ticketing).
func (s *WagerService) SquadOwner(ctx context.Context, index int) (access.Address, error) {
	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return access.ZeroAddress, err
	}
	return squad.UserAddress, nil
}

// SquadsCount is the exclusive upper bound of valid squad indices.
func (s *WagerService) SquadsCount(ctx context.Context) (int, error) {
	return s.ledger.Count(ctx)
}

// ListUserSquads returns every squad the caller created for a season+league,
// in creation order, with their indices.
func (s *WagerService) ListUserSquads(ctx context.Context, caller access.Address, seasonID, leagueID int64) ([]int, []wager.Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.ListUserSquads")
	defer span.End()

	if caller.IsZero() {
		return nil, nil, fmt.Errorf("%w: caller identity is required", ErrZeroAddress)
	}

	indexes, err := s.ledger.ListIndexesByUserLeague(ctx, caller, seasonID, leagueID)
	if err != nil {
		return nil, nil, fmt.Errorf("list user squads: %w", err)
	}

	squads := make([]wager.Squad, 0, len(indexes))
	for _, idx := range indexes {
		squad, ok, err := s.ledger.GetByIndex(ctx, idx)
		if err != nil {
			return nil, nil, fmt.Errorf("load squad %d: %w", idx, err)
		}
		if !ok {
			return nil, nil, fmt.Errorf("%w: index %d dangling", ErrUnknownSquad, idx)
		}
		squads = append(squads, squad)
	}
	return indexes, squads, nil
}

// GetRoundSummary serves the cached public view of one round. Staleness is
// bounded by the cache TTL; the settlement path never reads this.
func (s *WagerService) GetRoundSummary(ctx context.Context, key wager.RoundKey) (RoundSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WagerService.GetRoundSummary")
	defer span.End()

	if s.summary == nil {
		return s.buildRoundSummary(ctx, key)
	}

	cacheKey := fmt.Sprintf("round:summary:%d:%d:%d", key.SeasonID, key.LeagueID, key.RoundID)
	v, err := s.summary.GetOrLoad(ctx, cacheKey, func(ctx context.Context) (any, error) {
		return s.buildRoundSummary(ctx, key)
	})
	if err != nil {
		return RoundSummary{}, err
	}

	summary, _ := v.(RoundSummary)
	return summary, nil
}

func (s *WagerService) buildRoundSummary(ctx context.Context, key wager.RoundKey) (RoundSummary, error) {
	squads, err := s.roundMembers(ctx, key)
	if err != nil {
		return RoundSummary{}, err
	}
	agg, err := s.ledger.RoundAggregate(ctx, key)
	if err != nil {
		return RoundSummary{}, fmt.Errorf("load round aggregates: %w", err)
	}

	validatedStake := "0"
	if agg.ValidatedStake != nil {
		validatedStake = agg.ValidatedStake.String()
	}

	summary := RoundSummary{
		SeasonID:       key.SeasonID,
		LeagueID:       key.LeagueID,
		RoundID:        key.RoundID,
		MemberCount:    len(squads),
		ValidatedCount: agg.ValidatedCount,
		ValidatedStake: validatedStake,
		Finalized:      len(squads) > 0,
	}
	for _, squad := range squads {
		if squad.Status.IsTerminal() {
			summary.TerminalCount++
		} else {
			summary.Finalized = false
		}
	}
	return summary, nil
}

// checkRedeemable runs the payout preconditions in order: state, ownership,
// round finality.
func (s *WagerService) checkRedeemable(ctx context.Context, caller access.Address, index int) (wager.Squad, error) {
	squad, err := s.requireSquad(ctx, index)
	if err != nil {
		return wager.Squad{}, err
	}
	if squad.Status != wager.StatusWin {
		return wager.Squad{}, fmt.Errorf("%w: squad %d is %s, expected %s",
			ErrInvalidState, index, squad.Status, wager.StatusWin)
	}
	if caller.IsZero() || caller != squad.UserAddress {
		return wager.Squad{}, fmt.Errorf("%w: caller is not the squad owner", ErrUnauthorized)
	}

	finalized, err := s.roundFinalized(ctx, squad.RoundKey())
	if err != nil {
		return wager.Squad{}, err
	}
	if !finalized {
		return wager.Squad{}, fmt.Errorf("%w: round (%d,%d,%d) has unresolved squads",
			ErrRoundNotFinalized, squad.SeasonID, squad.LeagueID, squad.RoundID)
	}
	return squad, nil
}

func (s *WagerService) roundFinalized(ctx context.Context, key wager.RoundKey) (bool, error) {
	squads, err := s.roundMembers(ctx, key)
	if err != nil {
		return false, err
	}
	for _, squad := range squads {
		if !squad.Status.IsTerminal() {
			return false, nil
		}
	}
	return true, nil
}

func (s *WagerService) roundTotals(ctx context.Context, key wager.RoundKey) (wager.RoundTotals, error) {
	squads, err := s.roundMembers(ctx, key)
	if err != nil {
		return wager.RoundTotals{}, err
	}
	return wager.NewRoundTotals(squads), nil
}

func (s *WagerService) roundMembers(ctx context.Context, key wager.RoundKey) ([]wager.Squad, error) {
	indexes, err := s.ledger.ListIndexesByRound(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list round members: %w", err)
	}

	squads := make([]wager.Squad, 0, len(indexes))
	for _, idx := range indexes {
		squad, ok, err := s.ledger.GetByIndex(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("load squad %d: %w", idx, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: index %d dangling", ErrUnknownSquad, idx)
		}
		squads = append(squads, squad)
	}
	return squads, nil
}

func (s *WagerService) requireSquad(ctx context.Context, index int) (wager.Squad, error) {
	squad, ok, err := s.ledger.GetByIndex(ctx, index)
	if err != nil {
		return wager.Squad{}, fmt.Errorf("load squad %d: %w", index, err)
	}
	if !ok {
		return wager.Squad{}, fmt.Errorf("%w: index %d", ErrUnknownSquad, index)
	}
	return squad, nil
}

func (s *WagerService) credit(ctx context.Context, to access.Address, amountWei uint64, idempotencyKey string) error {
	if err := s.treasury.Credit(ctx, to, amountWei, idempotencyKey); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return nil
}

// Idempotency keys are a pure function of the settlement identity: every
// attempt of the same refund or redemption carries the same key, so a retry
// after an aborted operation cannot double-credit. A squad index is refunded
// at most once (re-funding an invalidated slot allocates a fresh index) and
// redeemed at most once.
func refundKey(index int) string {
	return fmt.Sprintf("refund:%d", index)
}

func redeemKey(index int, leg string) string {
	return fmt.Sprintf("redeem:%d:%s", index, leg)
}

func (s *WagerService) record(event wager.SettlementEvent) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(event)
}

func mapFundingError(err error) error {
	if errors.Is(err, wager.ErrInvalidRosterSize) {
		return fmt.Errorf("%w: %v", ErrInvalidRosterSize, err)
	}
	return fmt.Errorf("%w: %v", ErrZeroStake, err)
}
