package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/security"
	"reviewhub-backend/internal/service"
	"reviewhub-backend/internal/storage"
)

type RechargeHandler struct {
	rechargeSvc service.RechargeService
	uploads     storage.UploadStore
}

func NewRechargeHandler(rechargeSvc service.RechargeService, uploads storage.UploadStore) *RechargeHandler {
	return &RechargeHandler{rechargeSvc: rechargeSvc, uploads: uploads}
}

type createRechargeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	UTRNumber     string          `json:"utr_number"`
	TransferDate  string          `json:"transfer_date"`
	ScreenshotRef string          `json:"screenshot_ref"`
}

type decideRechargeRequest struct {
	Decision domain.RechargeDecision `json:"decision"`
	Remarks  string                  `json:"remarks"`
}

// CreateRecharge accepts a multipart form with a screenshot file, or JSON
// carrying an existing screenshot reference.
func (h *RechargeHandler) CreateRecharge(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	uploads := &uploadSet{store: h.uploads}
	var req createRechargeRequest
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.uploads, 1); err != nil {
			respondServiceError(w, r, err)
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
		if err != nil {
			respondServiceError(w, r, domain.ErrInvalidAmount)
			return
		}
		req.Amount = amount
		req.UTRNumber = r.FormValue("utr_number")
		req.TransferDate = r.FormValue("transfer_date")
		ref, err := uploads.capture(r, "screenshot", storage.CategoryRecharge)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		req.ScreenshotRef = ref
	} else if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	transferDate, err := time.Parse("2006-01-02", req.TransferDate)
	if err != nil {
		uploads.discard(r.Context())
		respondError(w, http.StatusBadRequest, "transfer_date must be YYYY-MM-DD")
		return
	}

	created, err := h.rechargeSvc.CreateRechargeRequest(r.Context(), claims.UserID, service.NewRechargeRequest{
		Amount:        req.Amount,
		UTRNumber:     req.UTRNumber,
		TransferDate:  transferDate,
		ScreenshotRef: req.ScreenshotRef,
	})
	if err != nil {
		uploads.discard(r.Context())
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *RechargeHandler) DecideRecharge(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	requestID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recharge request id")
		return
	}

	var req decideRechargeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	decided, err := h.rechargeSvc.DecideRecharge(r.Context(), requestID, req.Decision, claims.UserID, req.Remarks)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, decided)
}

// ListRecharges lists a seller's own requests. Admins name the seller with
// the seller_id query parameter.
func (h *RechargeHandler) ListRecharges(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	sellerID := claims.UserID
	if claims.Role == security.RoleAdmin {
		id, err := parseID(r.URL.Query().Get("seller_id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "seller_id is required")
			return
		}
		sellerID = id
	}

	page, size := parsePage(r)
	reqs, total, err := h.rechargeSvc.ListRechargeRequests(r.Context(), sellerID, page, size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []domain.WalletRechargeRequest{}
	}
	respondJSON(w, http.StatusOK, listBody{Items: reqs, TotalCount: total})
}
