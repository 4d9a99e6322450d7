package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/usecase"
)

type invalidateSquadRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type markWinRequest struct {
	WinSumWei string `json:"win_sum_wei"`
}

func (h *Handler) MarkValid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkValid")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	squad, err := h.wagerService.MarkValid(ctx, principal.Address, index)
	if err != nil {
		h.logger.WarnContext(ctx, "mark valid failed", "index", index, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}

func (h *Handler) MarkInvalid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkInvalid")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req invalidateSquadRequest
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

	reason, known := wager.ParseStatus(req.Reason)
	if !known {
		writeError(ctx, w, fmt.Errorf("%w: unknown invalidation reason %q", usecase.ErrInvalidInput, req.Reason))
		return
	}

	squad, err := h.wagerService.MarkInvalid(ctx, principal.Address, index, reason)
	if err != nil {
		h.logger.WarnContext(ctx, "mark invalid failed", "index", index, "reason", req.Reason, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}

// MarkWin accepts an optional body carrying a legacy informational win sum;
// an empty body resolves the squad with the sum computed at redemption time.
func (h *Handler) MarkWin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkWin")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err))
		return
	}

	var squad wager.Squad
	if len(body) == 0 {
		squad, err = h.wagerService.MarkWin(ctx, principal.Address, index)
	} else {
		var req markWinRequest
		if unmarshalErr := sonic.Unmarshal(body, &req); unmarshalErr != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, unmarshalErr))
			return
		}
		if req.WinSumWei == "" {
			squad, err = h.wagerService.MarkWin(ctx, principal.Address, index)
		} else {
			winSumWei, parseErr := strconv.ParseUint(req.WinSumWei, 10, 64)
			if parseErr != nil {
				writeError(ctx, w, fmt.Errorf("%w: invalid win_sum_wei %q", usecase.ErrInvalidInput, req.WinSumWei))
				return
			}
			squad, err = h.wagerService.MarkWinWithSum(ctx, principal.Address, index, winSumWei)
		}
	}
	if err != nil {
		h.logger.WarnContext(ctx, "mark win failed", "index", index, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}

func (h *Handler) MarkLose(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkLose")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	squad, err := h.wagerService.MarkLose(ctx, principal.Address, index)
	if err != nil {
		h.logger.WarnContext(ctx, "mark lose failed", "index", index, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}

func (h *Handler) GetWinSum(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWinSum")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	winSumWei, err := h.wagerService.GetWinSum(ctx, principal.Address, index)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"win_sum_wei": strconv.FormatUint(winSumWei, 10),
	})
}

func (h *Handler) WithdrawWinSum(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawWinSum")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	squad, err := h.wagerService.WithdrawWinSum(ctx, principal.Address, index)
	if err != nil {
		h.logger.WarnContext(ctx, "withdraw win sum failed", "index", index, "user", principal.Address, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, squadToDTO(index, squad))
}
