package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/domain/ticket"
	"github.com/fanstake/squad-ledger/internal/usecase"
)

type createTicketRequest struct {
	SquadIndex *int   `json:"squad_index" validate:"required,gte=0"`
	Message    string `json:"message" validate:"required"`
}

type ticketMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTicket")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", errUnauthenticated))
		return
	}

	var req createTicketRequest
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

	created, index, err := h.ticketService.CreateTicket(ctx, principal.Address, *req.SquadIndex, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "create ticket failed", "squad_index", *req.SquadIndex, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, ticketToDTO(index, created))
}

func (h *Handler) ReplyToTicketByUser(w http.ResponseWriter, r *http.Request) {
	h.appendTicketMessage(w, r, "httpapi.Handler.ReplyToTicketByUser", h.ticketService.ReplyToTicketByUser)
}

func (h *Handler) ReplyToTicketByAdmin(w http.ResponseWriter, r *http.Request) {
	h.appendTicketMessage(w, r, "httpapi.Handler.ReplyToTicketByAdmin", h.ticketService.ReplyToTicketByAdmin)
}

func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseTicket")
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

	closed, err := h.ticketService.CloseTicket(ctx, principal.Address, index)
	if err != nil {
		h.logger.WarnContext(ctx, "close ticket failed", "index", index, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ticketToDTO(index, closed))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTicket")
	defer span.End()

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.ticketService.GetTicket(ctx, index)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ticketToDTO(index, item))
}

func (h *Handler) GetTicketMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTicketMessage")
	defer span.End()

	index, err := indexPathValue(r, "index")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	messageIndex, err := indexPathValue(r, "msg")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	message, err := h.ticketService.GetTicketMessage(ctx, index, messageIndex)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ticketMessageDTO{
		Author: string(message.Author),
		Body:   message.Body,
	})
}

func (h *Handler) TicketsCount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TicketsCount")
	defer span.End()

	count, err := h.ticketService.TicketsCount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) appendTicketMessage(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	apply func(ctx context.Context, caller access.Address, index int, message string) (ticket.Ticket, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
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

	var req ticketMessageRequest
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

	item, err := apply(ctx, principal.Address, index, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "ticket reply failed", "index", index, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ticketToDTO(index, item))
}
