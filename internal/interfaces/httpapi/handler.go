package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fanstake/squad-ledger/internal/domain/ticket"
	"github.com/fanstake/squad-ledger/internal/domain/wager"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
	"github.com/fanstake/squad-ledger/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	wagerService  *usecase.WagerService
	ticketService *usecase.TicketService
	accessService *usecase.AccessService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	wagerService *usecase.WagerService,
	ticketService *usecase.TicketService,
	accessService *usecase.AccessService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		wagerService:  wagerService,
		ticketService: ticketService,
		accessService: accessService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func indexPathValue(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: invalid index %q", usecase.ErrInvalidInput, raw)
	}
	return index, nil
}

func int64QueryValue(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", usecase.ErrInvalidInput, name, raw)
	}
	return value, nil
}

type squadDTO struct {
	Index          int     `json:"index"`
	SeasonID       int64   `json:"season_id"`
	LeagueID       int64   `json:"league_id"`
	RoundID        int64   `json:"round_id"`
	CaptainID      int64   `json:"captain_id"`
	PlayerIDs      []int64 `json:"player_ids"`
	BenchPlayerIDs []int64 `json:"bench_player_ids"`
	StakeWei       string  `json:"stake_wei"`
	Status         string  `json:"status"`
	Initialized    bool    `json:"initialized"`
	UserAddress    string  `json:"user_address"`
	WinSumWei      string  `json:"win_sum_wei"`
	PlatformFeeWei string  `json:"platform_fee_wei"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	UpdatedAtUTC   string  `json:"updated_at_utc"`
}

type ticketDTO struct {
	Index        int                `json:"index"`
	SquadIndex   int                `json:"squad_index"`
	UserAddress  string             `json:"user_address"`
	Status       string             `json:"status"`
	Messages     []ticketMessageDTO `json:"messages"`
	CreatedAtUTC string             `json:"created_at_utc"`
	ClosedAtUTC  string             `json:"closed_at_utc,omitempty"`
	UpdatedAtUTC string             `json:"updated_at_utc"`
}

type ticketMessageDTO struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

func squadToDTO(index int, v wager.Squad) squadDTO {
	return squadDTO{
		Index:          index,
		SeasonID:       v.SeasonID,
		LeagueID:       v.LeagueID,
		RoundID:        v.RoundID,
		CaptainID:      v.CaptainID,
		PlayerIDs:      append([]int64(nil), v.PlayerIDs...),
		BenchPlayerIDs: append([]int64(nil), v.BenchPlayerIDs...),
		StakeWei:       strconv.FormatUint(v.StakeWei, 10),
		Status:         v.Status.String(),
		Initialized:    v.Initialized,
		UserAddress:    string(v.UserAddress),
		WinSumWei:      strconv.FormatUint(v.WinSumWei, 10),
		PlatformFeeWei: strconv.FormatUint(v.PlatformFeeWei, 10),
		CreatedAtUTC:   v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:   v.LastUpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ticketToDTO(index int, v ticket.Ticket) ticketDTO {
	messages := make([]ticketMessageDTO, 0, len(v.Messages))
	for _, m := range v.Messages {
		messages = append(messages, ticketMessageDTO{
			Author: string(m.Author),
			Body:   m.Body,
		})
	}

	dto := ticketDTO{
		Index:        index,
		SquadIndex:   v.SquadIndex,
		UserAddress:  string(v.UserAddress),
		Status:       v.Status.String(),
		Messages:     messages,
		CreatedAtUTC: v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC: v.LastUpdatedAt.UTC().Format(time.RFC3339),
	}
	if !v.ClosedAt.IsZero() {
		dto.ClosedAtUTC = v.ClosedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
