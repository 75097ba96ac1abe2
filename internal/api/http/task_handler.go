package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/security"
	"reviewhub-backend/internal/service"
	"reviewhub-backend/internal/storage"
)

type TaskHandler struct {
	taskSvc service.TaskService
	uploads storage.UploadStore
}

func NewTaskHandler(taskSvc service.TaskService, uploads storage.UploadStore) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc, uploads: uploads}
}

type assignTaskRequest struct {
	AssignedUserID   int32               `json:"assigned_user_id"`
	ProductLink      string              `json:"product_link"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
	Priority         domain.TaskPriority `json:"priority"`
	Deadline         string              `json:"deadline"`
}

type rejectTaskRequest struct {
	Reason string `json:"reason"`
}

func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req assignTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	in := service.NewTask{
		AssignedUserID:   req.AssignedUserID,
		ProductLink:      req.ProductLink,
		CommissionAmount: req.CommissionAmount,
		Priority:         req.Priority,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			respondError(w, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
			return
		}
		in.Deadline = &deadline
	}

	detail, err := h.taskSvc.AssignTask(r.Context(), claims.UserID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/tasks/"+strconv.Itoa(int(detail.Task.ID)))
	respondJSON(w, http.StatusCreated, detail)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	taskID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	detail, err := h.taskSvc.GetTask(r.Context(), taskID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if claims.Role == security.RoleReviewer && detail.Task.AssignedUserID != claims.UserID {
		respondError(w, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	q := r.URL.Query()

	filter := domain.TaskFilter{Status: domain.TaskStatus(q.Get("status"))}
	filter.Page, filter.PageSize = parsePage(r)
	if raw := q.Get("assigned_user_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid assigned_user_id")
			return
		}
		filter.AssignedUserID = id
	}
	// Reviewers only ever see their own tasks.
	if claims.Role == security.RoleReviewer {
		filter.AssignedUserID = claims.UserID
	}

	tasks, total, err := h.taskSvc.ListTasks(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	respondJSON(w, http.StatusOK, listBody{Items: tasks, TotalCount: total})
}

// ApproveStep records admin approval of one step. Step 4 approval releases
// the commission to the reviewer's wallet in the same unit of work.
func (h *TaskHandler) ApproveStep(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	taskID, stepNumber, ok := stepParams(w, r)
	if !ok {
		return
	}

	uploads := &uploadSet{store: h.uploads}
	payload, err := h.readPayload(w, r, uploads)
	if err != nil {
		uploads.discard(r.Context())
		respondServiceError(w, r, err)
		return
	}

	result, err := h.taskSvc.SubmitStepApproval(r.Context(), claims.UserID, taskID, stepNumber, payload)
	if err != nil {
		h.releaseUploads(r.Context(), uploads, taskID, stepNumber, err)
		respondServiceError(w, r, err)
		return
	}
	logger.Info("Step approved via API", "task_id", taskID, "step", stepNumber, "admin_id", claims.UserID)
	respondJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	taskID, stepNumber, ok := stepParams(w, r)
	if !ok {
		return
	}

	uploads := &uploadSet{store: h.uploads}
	payload, err := h.readPayload(w, r, uploads)
	if err != nil {
		uploads.discard(r.Context())
		respondServiceError(w, r, err)
		return
	}

	step, err := h.taskSvc.SubmitStep(r.Context(), claims.UserID, taskID, stepNumber, payload)
	if err != nil {
		h.releaseUploads(r.Context(), uploads, taskID, stepNumber, err)
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, step)
}

func (h *TaskHandler) RejectTask(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	taskID, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req rejectTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	task, err := h.taskSvc.RejectTask(r.Context(), claims.UserID, taskID, req.Reason)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// releaseUploads removes the files captured for a failed step request. A
// conflict or settlement failure can follow a commit that the client never
// saw acknowledged, so files the stored step already references are kept.
func (h *TaskHandler) releaseUploads(ctx context.Context, uploads *uploadSet, taskID int32, stepNumber int, cause error) {
	if len(uploads.refs) == 0 {
		return
	}
	if errors.Is(cause, domain.ErrOutOfOrderTransition) || errors.Is(cause, domain.ErrSettlementFailed) {
		detail, err := h.taskSvc.GetTask(ctx, taskID)
		if err != nil {
			logger.Warn("Keeping uploads, stored step could not be read", "task_id", taskID, "step", stepNumber, "error", err)
			return
		}
		for _, step := range detail.Steps {
			if step.StepNumber == stepNumber && uploads.referencedBy(step.Payload.ScreenshotRefs()) {
				logger.Info("Keeping uploads referenced by stored step", "task_id", taskID, "step", stepNumber)
				return
			}
		}
	}
	uploads.discard(ctx)
}

func stepParams(w http.ResponseWriter, r *http.Request) (int32, int, bool) {
	vars := mux.Vars(r)
	taskID, err := parseID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return 0, 0, false
	}
	stepNumber, err := strconv.Atoi(vars["step"])
	if err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidStep.Error())
		return 0, 0, false
	}
	return taskID, stepNumber, true
}

// readPayload accepts either a JSON step payload or a multipart form whose
// file fields are captured into upload storage.
func (h *TaskHandler) readPayload(w http.ResponseWriter, r *http.Request, uploads *uploadSet) (domain.StepPayload, error) {
	var payload domain.StepPayload
	if !isMultipart(r) {
		if r.ContentLength == 0 {
			return payload, nil
		}
		err := decodeJSON(r, &payload)
		return payload, err
	}

	if err := parseMultipart(w, r, h.uploads, len(stepFiles)); err != nil {
		return payload, err
	}

	payload.OrderNumber = r.FormValue("order_number")
	payload.ReviewLink = r.FormValue("review_link")
	for field, dst := range map[string]*decimal.Decimal{
		"order_amount":  &payload.OrderAmount,
		"refund_amount": &payload.RefundAmount,
	} {
		if raw := r.FormValue(field); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return payload, domain.ErrInvalidAmount
			}
			*dst = d
		}
	}

	for _, f := range stepFiles {
		ref, err := uploads.capture(r, f.field, f.category)
		if err != nil {
			return payload, err
		}
		if ref != "" {
			*f.dst(&payload) = ref
		}
	}
	return payload, nil
}

// stepFiles lists the multipart file fields a step form may carry.
var stepFiles = []struct {
	field    string
	category string
	dst      func(p *domain.StepPayload) *string
}{
	{"order_screenshot", storage.CategoryOrder, func(p *domain.StepPayload) *string { return &p.OrderScreenshotRef }},
	{"delivery_screenshot", storage.CategoryDelivery, func(p *domain.StepPayload) *string { return &p.DeliveryScreenshotRef }},
	{"review_screenshot", storage.CategoryReview, func(p *domain.StepPayload) *string { return &p.ReviewScreenshotRef }},
	{"payment_screenshot", storage.CategoryPayment, func(p *domain.StepPayload) *string { return &p.PaymentScreenshotRef }},
}
