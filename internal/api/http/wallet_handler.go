package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/service"
)

type WalletHandler struct {
	walletSvc service.WalletService
	notifSvc  service.NotificationService
}

func NewWalletHandler(walletSvc service.WalletService, notifSvc service.NotificationService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, notifSvc: notifSvc}
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	ledger, err := h.walletSvc.GetLedger(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ledger)
}

func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	page, size := parsePage(r)
	txs, total, err := h.walletSvc.ListTransactions(r.Context(), claims.UserID, page, size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.PaymentTransaction{}
	}
	respondJSON(w, http.StatusOK, listBody{Items: txs, TotalCount: total})
}

func (h *WalletHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	page, size := parsePage(r)
	notes, total, err := h.notifSvc.GetNotifications(r.Context(), claims.UserID, page, size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	respondJSON(w, http.StatusOK, listBody{Items: notes, TotalCount: total})
}

func (h *WalletHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.notifSvc.MarkAsRead(r.Context(), claims.UserID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
