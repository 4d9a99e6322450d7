package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/usecase"
)

type setAddressRequest struct {
	Address string `json:"address" validate:"required"`
}

type setFeeRateRequest struct {
	RateBps uint32 `json:"rate_bps" validate:"lte=10000"`
}

func (h *Handler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	h.applyAddressChange(w, r, "httpapi.Handler.TransferOwnership", h.accessService.TransferOwnership)
}

func (h *Handler) ChangeOracleAddress(w http.ResponseWriter, r *http.Request) {
	h.applyAddressChange(w, r, "httpapi.Handler.ChangeOracleAddress", h.accessService.ChangeOracleAddress)
}

func (h *Handler) ChangePlatformFeeAddress(w http.ResponseWriter, r *http.Request) {
	h.applyAddressChange(w, r, "httpapi.Handler.ChangePlatformFeeAddress", h.accessService.ChangePlatformFeeAddress)
}

func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	h.applyAddressChange(w, r, "httpapi.Handler.AddAdmin", h.accessService.AddAdmin)
}

func (h *Handler) ChangePlatformFeeRate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChangePlatformFeeRate")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	var req setFeeRateRequest
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

	if err := h.accessService.ChangePlatformFeeRate(ctx, principal.Address, req.RateBps); err != nil {
		h.logger.WarnContext(ctx, "change platform fee rate failed", "rate_bps", req.RateBps, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]uint32{"rate_bps": req.RateBps})
}

func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveAdmin")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	admin := access.Normalize(r.PathValue("address"))
	if err := h.accessService.RemoveAdmin(ctx, principal.Address, admin); err != nil {
		h.logger.WarnContext(ctx, "remove admin failed", "admin", admin, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"address": admin.String()})
}

func (h *Handler) ListActiveAdmins(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListActiveAdmins")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	admins, err := h.accessService.ActiveAdmins(ctx, principal.Address)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]string, 0, len(admins))
	for _, admin := range admins {
		items = append(items, admin.String())
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) applyAddressChange(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	apply func(ctx context.Context, caller, target access.Address) error,
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	var req setAddressRequest
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

	target := access.Normalize(req.Address)
	if err := apply(ctx, principal.Address, target); err != nil {
		h.logger.WarnContext(ctx, "access change failed", "target", target, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"address": target.String()})
}
