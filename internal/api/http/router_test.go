package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	api "reviewhub-backend/internal/api/http"
	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/security"
	"reviewhub-backend/internal/service"
	"reviewhub-backend/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"), make([]byte, 32)...)

type fixture struct {
	router    *mux.Router
	tokens    security.TokenManager
	tasks     *MockTaskService
	recharges *MockRechargeService
	wallets   *MockWalletService
	notes     *MockNotificationService
	uploadDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, storage.Config{})
}

func newFixtureWith(t *testing.T, cfg storage.Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg.Dir = dir
	uploads, err := storage.NewLocalStorageService(cfg)
	require.NoError(t, err)

	f := &fixture{
		tokens:    security.NewTokenManager("0123456789abcdef0123456789abcdef", "reviewhub", time.Hour),
		tasks:     new(MockTaskService),
		recharges: new(MockRechargeService),
		wallets:   new(MockWalletService),
		notes:     new(MockNotificationService),
		uploadDir: dir,
	}
	f.router = api.NewRouter(api.Services{
		Tasks:         f.tasks,
		Recharges:     f.recharges,
		Wallets:       f.wallets,
		Notifications: f.notes,
		Uploads:       uploads,
	}, f.tokens)
	return f
}

func (f *fixture) token(t *testing.T, userID int32, role security.Role) string {
	t.Helper()
	tok, err := f.tokens.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "shot.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	})
	require.NoError(t, err)
	return n
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reviewhub_http_requests_total")
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadToken", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongRole", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks/1/steps/1/approve", domain.StepPayload{})
		rec := f.do(req, f.token(t, 5, security.RoleReviewer))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.tasks.AssertNotCalled(t, "SubmitStepApproval")
	})
}

func TestApproveStep(t *testing.T) {
	t.Run("JSONPayload", func(t *testing.T) {
		f := newFixture(t)
		result := &service.StepApprovalResult{
			Step:       &domain.TaskStep{TaskID: 10, StepNumber: 1, Status: domain.StepStatusCompleted},
			TaskStatus: domain.TaskStatusInProgress,
		}
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 1,
			mock.MatchedBy(func(p domain.StepPayload) bool { return p.OrderNumber == "ORD-1" })).
			Return(result, nil)

		req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks/10/steps/1/approve", map[string]string{"order_number": "ORD-1"})
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		var got service.StepApprovalResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, domain.TaskStatusInProgress, got.TaskStatus)
		f.tasks.AssertExpectations(t)
	})

	t.Run("MultipartPaymentScreenshot", func(t *testing.T) {
		f := newFixture(t)
		result := &service.StepApprovalResult{
			Step:       &domain.TaskStep{TaskID: 10, StepNumber: 4, Status: domain.StepStatusCompleted},
			TaskStatus: domain.TaskStatusCompleted,
			Settlement: &domain.Settlement{Applied: true, Balance: decimal.RequireFromString("50.00")},
		}
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 4,
			mock.MatchedBy(func(p domain.StepPayload) bool {
				return strings.HasPrefix(p.PaymentScreenshotRef, storage.CategoryPayment+"/") &&
					p.RefundAmount.Equal(decimal.RequireFromString("50"))
			})).
			Return(result, nil)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve",
			map[string]string{"refund_amount": "50"}, "payment_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, countFiles(t, filepath.Join(f.uploadDir, storage.CategoryPayment)))
		f.tasks.AssertExpectations(t)
	})

	t.Run("FailureDiscardsUpload", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 4, mock.Anything).
			Return(nil, domain.ErrNotFound)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, 0, countFiles(t, f.uploadDir))
		f.tasks.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
	})

	t.Run("ConflictAfterCommitKeepsUpload", func(t *testing.T) {
		f := newFixture(t)
		stored := &domain.TaskDetail{
			Task:  domain.Task{ID: 10, Status: domain.TaskStatusCompleted},
			Steps: []domain.TaskStep{{TaskID: 10, StepNumber: 4, Status: domain.StepStatusCompleted}},
		}
		// The retried unit of work finds step 4 already written with this upload.
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 4, mock.Anything).
			Run(func(args mock.Arguments) {
				stored.Steps[0].Payload = args.Get(4).(domain.StepPayload)
			}).
			Return(nil, domain.ErrOutOfOrderTransition)
		f.tasks.On("GetTask", mock.Anything, int32(10)).Return(stored, nil)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 1, countFiles(t, filepath.Join(f.uploadDir, storage.CategoryPayment)))
		f.tasks.AssertExpectations(t)
	})

	t.Run("ConflictWithoutCommitDiscardsUpload", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 4, mock.Anything).
			Return(nil, domain.ErrOutOfOrderTransition)
		f.tasks.On("GetTask", mock.Anything, int32(10)).Return(&domain.TaskDetail{
			Task: domain.Task{ID: 10, Status: domain.TaskStatusInProgress},
			Steps: []domain.TaskStep{
				{TaskID: 10, StepNumber: 3, Status: domain.StepStatusPending},
				{TaskID: 10, StepNumber: 4, Status: domain.StepStatusPending},
			},
		}, nil)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 0, countFiles(t, f.uploadDir))
	})

	t.Run("SettlementFailureUnreadableStepKeepsUpload", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(10), 4, mock.Anything).
			Return(nil, fmt.Errorf("%w: approve_step: connection reset", domain.ErrSettlementFailed))
		f.tasks.On("GetTask", mock.Anything, int32(10)).Return(nil, errors.New("connection refused"))

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, 1, countFiles(t, filepath.Join(f.uploadDir, storage.CategoryPayment)))
	})

	t.Run("OversizedBodyRejected", func(t *testing.T) {
		f := newFixtureWith(t, storage.Config{MaxFileSize: 1 << 10})
		big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", big)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 0, countFiles(t, f.uploadDir))
		f.tasks.AssertNotCalled(t, "SubmitStepApproval")
	})

	t.Run("OversizedChunkedBodyRejected", func(t *testing.T) {
		f := newFixtureWith(t, storage.Config{MaxFileSize: 1 << 10})
		big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)

		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", big)
		req.ContentLength = -1
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 0, countFiles(t, f.uploadDir))
		f.tasks.AssertNotCalled(t, "SubmitStepApproval")
	})

	t.Run("DisallowedFileType", func(t *testing.T) {
		f := newFixture(t)
		req := multipartRequest(t, "/api/v1/admin/tasks/10/steps/4/approve", nil, "payment_screenshot", []byte("#!/bin/sh\necho hi\n"))
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		f.tasks.AssertNotCalled(t, "SubmitStepApproval")
	})

	t.Run("BadStepParam", func(t *testing.T) {
		f := newFixture(t)
		req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks/10/steps/x/approve", nil)
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidStep, http.StatusBadRequest},
		{domain.ErrOutOfOrderTransition, http.StatusConflict},
		{domain.ErrAlreadyProcessed, http.StatusConflict},
		{domain.ErrMissingEvidence, http.StatusUnprocessableEntity},
		{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: approve step: connection reset", domain.ErrSettlementFailed), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.tasks.On("SubmitStepApproval", mock.Anything, int32(1), int32(3), 2, mock.Anything).Return(nil, tc.err)

			req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks/3/steps/2/approve", nil)
			rec := f.do(req, f.token(t, 1, security.RoleAdmin))

			assert.Equal(t, tc.code, rec.Code)
			if tc.code >= http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "connection reset")
				assert.NotContains(t, rec.Body.String(), "boom")
			}
		})
	}
}

func TestTaskRoutes(t *testing.T) {
	t.Run("AssignTask", func(t *testing.T) {
		f := newFixture(t)
		detail := &domain.TaskDetail{Task: domain.Task{ID: 42, AssignedUserID: 5}}
		f.tasks.On("AssignTask", mock.Anything, int32(1), mock.MatchedBy(func(in service.NewTask) bool {
			return in.AssignedUserID == 5 && in.Deadline != nil && in.CommissionAmount.Equal(decimal.RequireFromString("120.50"))
		})).Return(detail, nil)

		req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks", map[string]any{
			"assigned_user_id":  5,
			"product_link":      "https://shop.example/p/1",
			"commission_amount": "120.50",
			"deadline":          "2026-12-01",
		})
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/v1/tasks/42", rec.Header().Get("Location"))
		f.tasks.AssertExpectations(t)
	})

	t.Run("ReviewerCannotSeeOthersTask", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("GetTask", mock.Anything, int32(7)).Return(&domain.TaskDetail{Task: domain.Task{ID: 7, AssignedUserID: 99}}, nil)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/7", nil), f.token(t, 5, security.RoleReviewer))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ReviewerListIsScoped", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("ListTasks", mock.Anything, domain.TaskFilter{AssignedUserID: 5, Status: domain.TaskStatusPending, Page: 2, PageSize: 10}).
			Return([]domain.Task{{ID: 1, AssignedUserID: 5}}, int32(11), nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks?assigned_user_id=99&status=pending&page=2&page_size=10", nil)
		rec := f.do(req, f.token(t, 5, security.RoleReviewer))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_count":11`)
		f.tasks.AssertExpectations(t)
	})

	t.Run("SubmitStep", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("SubmitStep", mock.Anything, int32(5), int32(7), 2,
			mock.MatchedBy(func(p domain.StepPayload) bool { return strings.HasPrefix(p.DeliveryScreenshotRef, "deliveries/") })).
			Return(&domain.TaskStep{TaskID: 7, StepNumber: 2, Status: domain.StepStatusPending}, nil)

		req := multipartRequest(t, "/api/v1/tasks/7/steps/2/submit", nil, "delivery_screenshot", pngBytes)
		rec := f.do(req, f.token(t, 5, security.RoleReviewer))

		assert.Equal(t, http.StatusOK, rec.Code)
		f.tasks.AssertExpectations(t)
	})

	t.Run("RejectTask", func(t *testing.T) {
		f := newFixture(t)
		f.tasks.On("RejectTask", mock.Anything, int32(1), int32(7), "fake review").
			Return(&domain.Task{ID: 7, Status: domain.TaskStatusRejected}, nil)

		req := jsonRequest(http.MethodPost, "/api/v1/admin/tasks/7/reject", map[string]string{"reason": "fake review"})
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		f.tasks.AssertExpectations(t)
	})
}

func TestRechargeRoutes(t *testing.T) {
	t.Run("CreateMultipart", func(t *testing.T) {
		f := newFixture(t)
		f.recharges.On("CreateRechargeRequest", mock.Anything, int32(8), mock.MatchedBy(func(in service.NewRechargeRequest) bool {
			return in.UTRNumber == "UTR123" &&
				in.Amount.Equal(decimal.NewFromInt(500)) &&
				strings.HasPrefix(in.ScreenshotRef, "recharges/")
		})).Return(&domain.WalletRechargeRequest{ID: 3, SellerID: 8, Status: domain.RechargeStatusPending}, nil)

		req := multipartRequest(t, "/api/v1/wallet/recharges", map[string]string{
			"amount":        "500",
			"utr_number":    "UTR123",
			"transfer_date": "2026-10-01",
		}, "screenshot", pngBytes)
		rec := f.do(req, f.token(t, 8, security.RoleSeller))

		assert.Equal(t, http.StatusCreated, rec.Code)
		f.recharges.AssertExpectations(t)
	})

	t.Run("CreateOversizedScreenshot", func(t *testing.T) {
		f := newFixtureWith(t, storage.Config{MaxFileSize: 1 << 10})
		big := append(append([]byte{}, pngBytes...), make([]byte, 2<<20)...)

		req := multipartRequest(t, "/api/v1/wallet/recharges", map[string]string{
			"amount":        "500",
			"utr_number":    "UTR123",
			"transfer_date": "2026-10-01",
		}, "screenshot", big)
		rec := f.do(req, f.token(t, 8, security.RoleSeller))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 0, countFiles(t, f.uploadDir))
		f.recharges.AssertNotCalled(t, "CreateRechargeRequest")
	})

	t.Run("CreateBadDate", func(t *testing.T) {
		f := newFixture(t)
		req := jsonRequest(http.MethodPost, "/api/v1/wallet/recharges", map[string]string{
			"amount": "500", "utr_number": "UTR123", "transfer_date": "yesterday",
		})
		rec := f.do(req, f.token(t, 8, security.RoleSeller))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Decide", func(t *testing.T) {
		f := newFixture(t)
		f.recharges.On("DecideRecharge", mock.Anything, int32(3), domain.RechargeDecisionReject, int32(1), "UTR not found").
			Return(&domain.WalletRechargeRequest{ID: 3, Status: domain.RechargeStatusRejected}, nil)

		req := jsonRequest(http.MethodPost, "/api/v1/admin/recharges/3/decision", map[string]string{
			"decision": "reject", "remarks": "UTR not found",
		})
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		f.recharges.AssertExpectations(t)
	})

	t.Run("DecideAlreadyProcessed", func(t *testing.T) {
		f := newFixture(t)
		f.recharges.On("DecideRecharge", mock.Anything, int32(3), domain.RechargeDecisionApprove, int32(1), "").
			Return(nil, domain.ErrAlreadyProcessed)

		req := jsonRequest(http.MethodPost, "/api/v1/admin/recharges/3/decision", map[string]string{"decision": "approve"})
		rec := f.do(req, f.token(t, 1, security.RoleAdmin))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("AdminListNeedsSeller", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/recharges", nil), f.token(t, 1, security.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("SellerListsOwn", func(t *testing.T) {
		f := newFixture(t)
		f.recharges.On("ListRechargeRequests", mock.Anything, int32(8), int32(0), int32(0)).
			Return([]domain.WalletRechargeRequest(nil), int32(0), nil)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/recharges?seller_id=99", nil), f.token(t, 8, security.RoleSeller))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"items":[],"total_count":0}`, rec.Body.String())
	})
}

func TestWalletAndNotificationRoutes(t *testing.T) {
	f := newFixture(t)
	f.wallets.On("GetLedger", mock.Anything, int32(5)).
		Return(&domain.WalletLedger{UserID: 5, Balance: decimal.RequireFromString("75.00")}, nil)
	f.wallets.On("ListTransactions", mock.Anything, int32(5), int32(1), int32(20)).
		Return([]domain.PaymentTransaction{{ID: 1, UserID: 5}}, int32(1), nil)
	f.notes.On("GetNotifications", mock.Anything, int32(5), int32(0), int32(0)).
		Return([]domain.Notification{{ID: 9, UserID: 5}}, int32(1), nil)
	f.notes.On("MarkAsRead", mock.Anything, int32(5), int32(9)).Return(nil)
	f.notes.On("MarkAsRead", mock.Anything, int32(5), int32(10)).Return(domain.ErrNotFound)

	tok := f.token(t, 5, security.RoleReviewer)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"75"`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions?page=1&page_size=20", nil), tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil), tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/9/read", nil), tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/10/read", nil), tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.wallets.AssertExpectations(t)
	f.notes.AssertExpectations(t)
}

func TestGetUpload(t *testing.T) {
	f := newFixture(t)
	f.tasks.On("SubmitStep", mock.Anything, int32(5), int32(7), 3, mock.Anything).
		Return(&domain.TaskStep{TaskID: 7, StepNumber: 3}, nil)

	req := multipartRequest(t, "/api/v1/tasks/7/steps/3/submit", nil, "review_screenshot", pngBytes)
	rec := f.do(req, f.token(t, 5, security.RoleReviewer))
	require.Equal(t, http.StatusOK, rec.Code)

	payload := f.tasks.Calls[0].Arguments.Get(4).(domain.StepPayload)
	require.NotEmpty(t, payload.ReviewScreenshotRef)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/uploads/"+payload.ReviewScreenshotRef, nil), f.token(t, 1, security.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/uploads/reviews/missing.png", nil), f.token(t, 1, security.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
