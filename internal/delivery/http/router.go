package http

import (
	"net/http"

	"medledger/internal/delivery/http/handler"
	"medledger/internal/delivery/http/middleware"
	"medledger/pkg/jwt"
	"medledger/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth               *handler.AuthHandler
	Doctor             *handler.DoctorHandler
	MedicalRecord      *handler.MedicalRecordHandler
	Appointment        *handler.AppointmentHandler
	Insurance          *handler.InsuranceHandler
	MedicalCard        *handler.MedicalCardHandler
	Notification       *handler.NotificationHandler
	Dashboard          *handler.DashboardHandler
	AuditLog           *handler.AuditLogHandler
	Chat               *handler.ChatHandler
	Currency           *handler.CurrencyHandler
	LedgerAuth         *handler.LedgerAuthHandler
	Wallet             *handler.WalletHandler
	Transfer           *handler.TransferHandler
	Loan               *handler.LoanHandler
	LedgerNotification *handler.LedgerNotificationHandler
	LedgerAdmin        *handler.LedgerAdminHandler
}

// Limiters are the per-client rate limits applied to route groups.
type Limiters struct {
	Global *middleware.RateLimiter
	Auth   *middleware.RateLimiter
	Chat   *middleware.RateLimiter
}

type Router struct {
	router         *mux.Router
	handlers       Handlers
	limiters       Limiters
	authMiddleware *middleware.AuthMiddleware
	corsMiddleware *middleware.CORSMiddleware
	proxies        *middleware.ProxyResolver
	log            *logrus.Logger
}

func NewRouter(
	handlers Handlers,
	limiters Limiters,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	proxies *middleware.ProxyResolver,
	log *logrus.Logger,
) *Router {
	return &Router{
		router:         mux.NewRouter(),
		handlers:       handlers,
		limiters:       limiters,
		authMiddleware: authMiddleware,
		corsMiddleware: corsMiddleware,
		proxies:        proxies,
		log:            log,
	}
}

// Setup mounts every route and returns the handler to serve. Logging,
// recovery and CORS wrap the mux so preflight requests never reach it.
func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.Use(r.limiters.Global.Middleware)

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	r.setupPortal(api)
	r.setupLedger(api.PathPrefix("/ledger").Subrouter())

	// Currency is public
	api.HandleFunc("/currency/rates", r.handlers.Currency.GetRates).Methods(http.MethodGet)
	api.HandleFunc("/currency/convert", r.handlers.Currency.Convert).Methods(http.MethodPost)

	r.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	var h http.Handler = r.router
	h = r.corsMiddleware.Handle(h)
	h = middleware.Recovery(r.log)(h)
	h = middleware.RequestLogger(r.log, r.proxies)(h)
	return h
}

func (r *Router) setupPortal(api *mux.Router) {
	h := r.handlers

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(r.limiters.Auth.Middleware)
	auth.HandleFunc("/register", h.Auth.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.Auth.RefreshToken).Methods(http.MethodPost)

	// Public doctor directory
	api.HandleFunc("/doctors", h.Doctor.GetAllDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", h.Doctor.GetDoctor).Methods(http.MethodGet)

	// Patient routes (protected)
	portal := api.NewRoute().Subrouter()
	portal.Use(r.authMiddleware.Authenticate(jwt.RealmPortal))

	portal.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	portal.HandleFunc("/auth/me", h.Auth.GetCurrentUser).Methods(http.MethodGet)
	portal.HandleFunc("/auth/profile", h.Auth.UpdateProfile).Methods(http.MethodPut)
	portal.HandleFunc("/auth/password", h.Auth.ChangePassword).Methods(http.MethodPut)
	portal.HandleFunc("/auth/totp/setup", h.Auth.SetupTOTP).Methods(http.MethodPost)
	portal.HandleFunc("/auth/totp/enable", h.Auth.EnableTOTP).Methods(http.MethodPost)
	portal.HandleFunc("/auth/totp/disable", h.Auth.DisableTOTP).Methods(http.MethodPost)

	portal.HandleFunc("/dashboard", h.Dashboard.GetSummary).Methods(http.MethodGet)

	portal.HandleFunc("/records", h.MedicalRecord.GetMyRecords).Methods(http.MethodGet)
	portal.HandleFunc("/records", h.MedicalRecord.CreateRecord).Methods(http.MethodPost)
	portal.HandleFunc("/records/{id}", h.MedicalRecord.GetRecord).Methods(http.MethodGet)
	portal.HandleFunc("/records/{id}", h.MedicalRecord.UpdateRecord).Methods(http.MethodPut)
	portal.HandleFunc("/records/{id}", h.MedicalRecord.DeleteRecord).Methods(http.MethodDelete)

	portal.HandleFunc("/appointments", h.Appointment.GetMyAppointments).Methods(http.MethodGet)
	portal.HandleFunc("/appointments", h.Appointment.CreateAppointment).Methods(http.MethodPost)
	portal.HandleFunc("/appointments/{id}/cancel", h.Appointment.CancelAppointment).Methods(http.MethodPost)
	portal.HandleFunc("/appointments/{id}/reschedule", h.Appointment.RescheduleAppointment).Methods(http.MethodPut)

	portal.HandleFunc("/insurance", h.Insurance.GetMyInsurances).Methods(http.MethodGet)
	portal.HandleFunc("/insurance", h.Insurance.CreateInsurance).Methods(http.MethodPost)
	portal.HandleFunc("/insurance/{id}", h.Insurance.UpdateInsurance).Methods(http.MethodPut)
	portal.HandleFunc("/insurance/{id}", h.Insurance.DeleteInsurance).Methods(http.MethodDelete)

	portal.HandleFunc("/medical-card", h.MedicalCard.GetMyCard).Methods(http.MethodGet)
	portal.HandleFunc("/medical-card", h.MedicalCard.IssueCard).Methods(http.MethodPost)
	portal.HandleFunc("/medical-card", h.MedicalCard.UpdateCard).Methods(http.MethodPut)

	portal.HandleFunc("/notifications", h.Notification.GetMyNotifications).Methods(http.MethodGet)
	portal.HandleFunc("/notifications/unread-count", h.Notification.UnreadCount).Methods(http.MethodGet)
	portal.HandleFunc("/notifications/read-all", h.Notification.MarkAllRead).Methods(http.MethodPut)
	portal.HandleFunc("/notifications/{id}/read", h.Notification.MarkRead).Methods(http.MethodPut)
	portal.HandleFunc("/notifications/{id}", h.Notification.DeleteNotification).Methods(http.MethodDelete)

	chat := portal.PathPrefix("/chat").Subrouter()
	chat.Use(r.limiters.Chat.Middleware)
	chat.HandleFunc("", h.Chat.Chat).Methods(http.MethodPost)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate(jwt.RealmPortal))
	admin.Use(middleware.RequirePortalAdmin)

	admin.HandleFunc("/doctors", h.Doctor.CreateDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}", h.Doctor.UpdateDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}", h.Doctor.DeleteDoctor).Methods(http.MethodDelete)
	admin.HandleFunc("/audit-logs", h.AuditLog.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", h.AuditLog.GetAuditLog).Methods(http.MethodGet)
}

func (r *Router) setupLedger(ledger *mux.Router) {
	h := r.handlers

	auth := ledger.PathPrefix("/auth").Subrouter()
	auth.Use(r.limiters.Auth.Middleware)
	auth.HandleFunc("/register", h.LedgerAuth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.LedgerAuth.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.LedgerAuth.RefreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/wallet/nonce", h.LedgerAuth.WalletNonce).Methods(http.MethodPost)
	auth.HandleFunc("/wallet/login", h.LedgerAuth.WalletLogin).Methods(http.MethodPost)

	// Wallet owner routes
	user := ledger.NewRoute().Subrouter()
	user.Use(r.authMiddleware.Authenticate(jwt.RealmLedger))

	user.HandleFunc("/auth/logout", h.LedgerAuth.Logout).Methods(http.MethodPost)
	user.HandleFunc("/auth/me", h.LedgerAuth.GetCurrentUser).Methods(http.MethodGet)

	user.HandleFunc("/wallet", h.Wallet.GetWallet).Methods(http.MethodGet)
	user.HandleFunc("/transactions", h.Wallet.ListTransactions).Methods(http.MethodGet)
	user.HandleFunc("/transactions/{hash}", h.Wallet.GetTransaction).Methods(http.MethodGet)
	user.HandleFunc("/transfers", h.Transfer.Transfer).Methods(http.MethodPost)
	user.HandleFunc("/transfers/international", h.Transfer.InternationalTransfer).Methods(http.MethodPost)

	user.HandleFunc("/loans", h.Loan.GetMyLoans).Methods(http.MethodGet)
	user.HandleFunc("/loans", h.Loan.RequestLoan).Methods(http.MethodPost)
	user.HandleFunc("/loans/{id}/repay", h.Loan.RepayLoan).Methods(http.MethodPost)

	user.HandleFunc("/notifications", h.LedgerNotification.GetMyNotifications).Methods(http.MethodGet)
	user.HandleFunc("/notifications/stream", h.LedgerNotification.Stream).Methods(http.MethodGet)
	user.HandleFunc("/notifications/unread-count", h.LedgerNotification.UnreadCount).Methods(http.MethodGet)
	user.HandleFunc("/notifications/read-all", h.LedgerNotification.MarkAllRead).Methods(http.MethodPut)
	user.HandleFunc("/notifications/{id}/read", h.LedgerNotification.MarkRead).Methods(http.MethodPut)

	// Back office
	admin := ledger.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate(jwt.RealmLedger))
	admin.Use(middleware.RequireLedgerAdmin)

	admin.HandleFunc("/stats", h.LedgerAdmin.GetStats).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.LedgerAdmin.GetAllUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h.LedgerAdmin.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/status", h.LedgerAdmin.SetUserStatus).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/wallet/adjust", h.LedgerAdmin.AdjustWallet).Methods(http.MethodPost)
	admin.HandleFunc("/transactions", h.LedgerAdmin.GetAllTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/export", h.LedgerAdmin.ExportTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/loans", h.Loan.GetAllLoans).Methods(http.MethodGet)
	admin.HandleFunc("/loans/{id}/approve", h.Loan.ApproveLoan).Methods(http.MethodPost)
	admin.HandleFunc("/loans/{id}/reject", h.Loan.RejectLoan).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", h.AuditLog.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/backup", h.LedgerAdmin.RunBackup).Methods(http.MethodPost)
}

func (r *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
