package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"orbitlend-backend/internal/adapter/middleware"
	"orbitlend-backend/internal/usecase/approval"
	"orbitlend-backend/internal/usecase/auth"
	"orbitlend-backend/internal/usecase/chatbot"
	"orbitlend-backend/internal/usecase/loan"
	"orbitlend-backend/internal/usecase/marketplace"
	ucuser "orbitlend-backend/internal/usecase/user"
)

var (
	authLimit = middleware.RateLimit{Requests: 20, Window: time.Minute}
	chatLimit = middleware.RateLimit{Requests: 30, Window: time.Minute}
)

// Deps is everything the router mounts.
type Deps struct {
	Logger *slog.Logger

	Auth        *auth.Usecase
	Users       *ucuser.Usecase
	Loans       *loan.Usecase
	Approval    *approval.Usecase
	Marketplace *marketplace.Usecase
	Chatbot     *chatbot.Usecase

	// WS serves the notification stream; nil leaves /ws unmounted.
	WS http.Handler

	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Checks         map[string]Check
	CORSOrigins    []string
}

// NewRouter builds the echo instance with every route of the API.
func NewRouter(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		middleware.RequestLogger(d.Logger),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: d.CORSOrigins,
			AllowHeaders: []string{
				echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
				echo.HeaderAuthorization, middleware.HeaderIdempotencyKey,
			},
		}),
		echomw.BodyLimit("12M"),
	)

	e.GET("/health", NewHandler(d.Checks).Health)
	if d.WS != nil {
		e.GET("/ws", echo.WrapHandler(d.WS))
	}

	authed := RequireAuth(d.Auth)
	idem := middleware.Idempotency(d.Redis, d.IdempotencyTTL, UserIDFromContext)
	api := e.Group("/api")

	ah := NewAuthHandler(d.Auth)
	ag := api.Group("/auth")
	limited := middleware.Limit(authLimit, middleware.ByIP)
	ag.POST("/register", ah.Register, limited)
	ag.POST("/login", ah.Login, limited)
	ag.POST("/wallet/connect", ah.WalletConnect, limited)
	ag.POST("/wallet/verify", ah.WalletVerify, limited)
	ag.GET("/me", ah.Me, authed)

	uh := NewUserHandler(d.Users)
	ug := api.Group("/users", authed)
	ug.GET("/profile", uh.Profile)
	ug.PUT("/profile", uh.UpdateProfile)
	ug.POST("/kyc/documents", uh.UploadKYCDocument)
	ug.DELETE("/me", uh.DeactivateSelf)

	lh := NewLoanHandler(d.Loans)
	lg := api.Group("/loans", authed)
	lg.POST("/calculate", lh.Calculate)
	lg.POST("/request", lh.Submit, RequireKYC, idem)
	lg.GET("/my-loans", lh.MyLoans)
	lg.GET("/:id", lh.Get)
	lg.GET("/:id/schedule", lh.Schedule)
	lg.PUT("/:id/repayment", lh.Repay, idem)

	ph := NewApprovalHandler(d.Approval)
	adm := api.Group("/admin", authed, RequireAdmin)
	adm.GET("/stats", ph.Stats)
	adm.GET("/users", uh.List)
	adm.PUT("/users/:id/kyc", uh.SetKYCStatus)
	adm.PUT("/users/:id/deactivate", uh.Deactivate)
	adm.GET("/loans", lh.ListAll)
	adm.GET("/loans/:id", lh.Get)
	adm.PUT("/loans/:id/approve", ph.ApproveLoan)
	adm.PUT("/loans/:id/reject", ph.RejectLoan)
	adm.PUT("/loans/:id/default", ph.MarkDefaulted)
	adm.POST("/nfts/:loanId/retry-mint", ph.RetryMint)

	nh := NewNFTHandler(d.Marketplace)
	ng := api.Group("/nfts", authed)
	ng.GET("/my-nfts", nh.MyNFTs)
	ng.GET("/marketplace/browse", nh.Browse)
	ng.GET("/tx/:hash", nh.TxStatus)
	ng.GET("/:id", nh.Get)
	ng.GET("/:id/ownership", nh.Ownership)
	ng.PUT("/:id/list", nh.List)
	ng.PUT("/:id/unlist", nh.Unlist)
	ng.PUT("/:id/transfer", nh.Transfer)

	ch := NewChatbotHandler(d.Chatbot)
	cg := api.Group("/chatbot", authed, middleware.Limit(chatLimit, UserIDFromContext))
	cg.POST("/chat", ch.Chat)
	cg.GET("/history/:sessionId", ch.History)
	cg.DELETE("/history/:sessionId", ch.Clear)
	cg.GET("/suggestions", ch.Suggestions)

	return e
}
