package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewhub-backend/internal/security"
	"reviewhub-backend/internal/service"
	"reviewhub-backend/internal/storage"
)

// Services bundles what the HTTP adapter calls into.
type Services struct {
	Tasks         service.TaskService
	Recharges     service.RechargeService
	Wallets       service.WalletService
	Notifications service.NotificationService
	Uploads       storage.UploadStore
}

// NewRouter registers every API route. Route names key the access rules in
// config.RouteSecurity.
func NewRouter(svcs Services, tm security.TokenManager) *mux.Router {
	tasks := NewTaskHandler(svcs.Tasks, svcs.Uploads)
	recharges := NewRechargeHandler(svcs.Recharges, svcs.Uploads)
	wallets := NewWalletHandler(svcs.Wallets, svcs.Notifications)
	uploads := NewUploadHandler(svcs.Uploads)

	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.Use(NewAuthMiddleware(tm).Handler)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET").Name("Metrics")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET").Name("Health")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Tasks
	api.HandleFunc("/admin/tasks", tasks.AssignTask).Methods("POST").Name("AssignTask")
	api.HandleFunc("/admin/tasks/{id:[0-9]+}/steps/{step}/approve", tasks.ApproveStep).Methods("POST").Name("ApproveStep")
	api.HandleFunc("/admin/tasks/{id:[0-9]+}/reject", tasks.RejectTask).Methods("POST").Name("RejectTask")
	api.HandleFunc("/tasks", tasks.ListTasks).Methods("GET").Name("ListTasks")
	api.HandleFunc("/tasks/{id:[0-9]+}", tasks.GetTask).Methods("GET").Name("GetTask")
	api.HandleFunc("/tasks/{id:[0-9]+}/steps/{step}/submit", tasks.SubmitStep).Methods("POST").Name("SubmitStep")

	// Wallet and recharges
	api.HandleFunc("/wallet", wallets.GetWallet).Methods("GET").Name("GetWallet")
	api.HandleFunc("/wallet/transactions", wallets.ListTransactions).Methods("GET").Name("ListTransactions")
	api.HandleFunc("/wallet/recharges", recharges.CreateRecharge).Methods("POST").Name("CreateRecharge")
	api.HandleFunc("/wallet/recharges", recharges.ListRecharges).Methods("GET").Name("ListRecharges")
	api.HandleFunc("/admin/recharges/{id:[0-9]+}/decision", recharges.DecideRecharge).Methods("POST").Name("DecideRecharge")

	// Notifications
	api.HandleFunc("/notifications", wallets.ListNotifications).Methods("GET").Name("ListNotifications")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", wallets.MarkNotificationRead).Methods("POST").Name("MarkNotificationRead")

	// Evidence files
	api.HandleFunc("/admin/uploads/{category}/{name}", uploads.GetUpload).Methods("GET").Name("GetUpload")

	return r
}
