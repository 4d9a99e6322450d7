package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/squads/count", handler.SquadsCount)
	mux.HandleFunc("GET /v1/squads/{index}", handler.GetSquad)
	mux.HandleFunc("GET /v1/squads/{index}/finalized", handler.CheckRoundFinalized)
	mux.HandleFunc("GET /v1/rounds/summary", handler.GetRoundSummary)
	mux.HandleFunc("GET /v1/tickets/count", handler.TicketsCount)
	mux.HandleFunc("GET /v1/tickets/{index}", handler.GetTicket)
	mux.HandleFunc("GET /v1/tickets/{index}/messages/{msg}", handler.GetTicketMessage)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedSquadRoutes(mux, handler, verifier)
	registerAuthorizedOracleRoutes(mux, handler, verifier)
	registerAuthorizedAdminRoutes(mux, handler, verifier)
	registerAuthorizedTicketRoutes(mux, handler, verifier)
}

func registerAuthorizedSquadRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/squads", RequireAuth(verifier, http.HandlerFunc(handler.CreateAndFundSquad)))
	mux.Handle("GET /v1/squads/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMySquads)))
	mux.Handle("GET /v1/squads/{index}/win-sum", RequireAuth(verifier, http.HandlerFunc(handler.GetWinSum)))
	mux.Handle("POST /v1/squads/{index}/redeem", RequireAuth(verifier, http.HandlerFunc(handler.WithdrawWinSum)))
}

func registerAuthorizedOracleRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/squads/{index}/validate", RequireAuth(verifier, http.HandlerFunc(handler.MarkValid)))
	mux.Handle("POST /v1/squads/{index}/invalidate", RequireAuth(verifier, http.HandlerFunc(handler.MarkInvalid)))
	mux.Handle("POST /v1/squads/{index}/win", RequireAuth(verifier, http.HandlerFunc(handler.MarkWin)))
	mux.Handle("POST /v1/squads/{index}/lose", RequireAuth(verifier, http.HandlerFunc(handler.MarkLose)))
}

func registerAuthorizedAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/admin/owner", RequireAuth(verifier, http.HandlerFunc(handler.TransferOwnership)))
	mux.Handle("POST /v1/admin/oracle", RequireAuth(verifier, http.HandlerFunc(handler.ChangeOracleAddress)))
	mux.Handle("POST /v1/admin/platform-fee-address", RequireAuth(verifier, http.HandlerFunc(handler.ChangePlatformFeeAddress)))
	mux.Handle("POST /v1/admin/platform-fee-rate", RequireAuth(verifier, http.HandlerFunc(handler.ChangePlatformFeeRate)))
	mux.Handle("GET /v1/admin/admins", RequireAuth(verifier, http.HandlerFunc(handler.ListActiveAdmins)))
	mux.Handle("POST /v1/admin/admins", RequireAuth(verifier, http.HandlerFunc(handler.AddAdmin)))
	mux.Handle("DELETE /v1/admin/admins/{address}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveAdmin)))
}

func registerAuthorizedTicketRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tickets", RequireAuth(verifier, http.HandlerFunc(handler.CreateTicket)))
	mux.Handle("POST /v1/tickets/{index}/messages", RequireAuth(verifier, http.HandlerFunc(handler.ReplyToTicketByUser)))
	mux.Handle("POST /v1/tickets/{index}/admin-messages", RequireAuth(verifier, http.HandlerFunc(handler.ReplyToTicketByAdmin)))
	mux.Handle("POST /v1/tickets/{index}/close", RequireAuth(verifier, http.HandlerFunc(handler.CloseTicket)))
}
