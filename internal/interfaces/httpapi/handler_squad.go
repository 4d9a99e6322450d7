package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/usecase"
)

// Season, league, round, captain and player ids are opaque caller-supplied
// integers and pass through unvalidated; only the roster shape and the stake
// are checked.
type fundSquadRequest struct {
	SeasonID       int64   `json:"season_id"`
	LeagueID       int64   `json:"league_id"`
	RoundID        int64   `json:"round_id"`
	CaptainID      int64   `json:"captain_id"`
	PlayerIDs      []int64 `json:"player_ids" validate:"len=11"`
	BenchPlayerIDs []int64 `json:"bench_player_ids" validate:"len=4"`
	StakeWei       string  `json:"stake_wei" validate:"required"`
}

func (h *Handler) CreateAndFundSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateAndFundSquad")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	var req fundSquadRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	stakeWei, err := strconv.ParseUint(req.StakeWei, 10, 64)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid stake_wei %q", usecase.ErrInvalidInput, req.StakeWei))
		return
	}

	squad, index, err := h.wagerService.CreateAndFundSquad(ctx, principal.Address, usecase.FundSquadInput{
		SeasonID:       req.SeasonID,
		LeagueID:       req.LeagueID,
		RoundID:        req.RoundID,
		CaptainID:      req.CaptainID,
		PlayerIDs:      req.PlayerIDs,
		BenchPlayerIDs: req.BenchPlayerIDs,
		StakeWei:       stakeWei,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "fund squad failed", "user", principal.Address, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, squadToDTO(index, squad))
}

func (h *Handler) GetSquad(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSquad")
	defer span.End()

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	squad, err := h.wagerService.GetSquad(ctx, index)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}

func (h *Handler) SquadsCount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SquadsCount")
	defer span.End()

	count, err := h.wagerService.SquadsCount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) ListMySquads(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMySquads")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	seasonID, err := int64QueryValue(r, "season_id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	leagueID, err := int64QueryValue(r, "league_id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	indexes, squads, err := h.wagerService.ListUserSquads(ctx, principal.Address, seasonID, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list squads failed", "user", principal.Address, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]squadDTO, 0, len(squads))
	for i, squad := range squads {
		items = append(items, squadToDTO(indexes[i], squad))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CheckRoundFinalized(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CheckRoundFinalized")
	defer span.End()

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	finalized, err := h.wagerService.CheckRoundFinalized(ctx, index)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"finalized": finalized})
}

func (h *Handler) GetRoundSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoundSummary")
	defer span.End()

	seasonID, err := int64QueryValue(r, "season_id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	leagueID, err := int64QueryValue(r, "league_id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	roundID, err := int64QueryValue(r, "round_id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.wagerService.GetRoundSummary(ctx, wager.RoundKey{
		SeasonID: seasonID,
		LeagueID: leagueID,
		RoundID:  roundID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "round summary failed", "season_id", seasonID, "league_id", leagueID, "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}
