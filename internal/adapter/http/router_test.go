package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"orbitlend-backend/internal/adapter/external/minting"
	"orbitlend-backend/internal/adapter/middleware"
	"orbitlend-backend/internal/adapter/repository/gormrepo"
	"orbitlend-backend/internal/domain/event"
	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/cache"
	"orbitlend-backend/internal/infrastructure/db"
	"orbitlend-backend/internal/notify"
	"orbitlend-backend/internal/testutil/mintmock"
	"orbitlend-backend/internal/testutil/pinmock"
	"orbitlend-backend/internal/usecase/approval"
	"orbitlend-backend/internal/usecase/auth"
	"orbitlend-backend/internal/usecase/chatbot"
	"orbitlend-backend/internal/usecase/loan"
	"orbitlend-backend/internal/usecase/marketplace"
	ucuser "orbitlend-backend/internal/usecase/user"
)

const borrowerWallet = "0x1111111111111111111111111111111111111111"

type harness struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	tokens *auth.TokenManager
	auth   *auth.Usecase
	minter *mintmock.Client
	events *event.Recorder
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gdb := openTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tx := gormrepo.NewGormUoW(gdb)
	repos := tx.Repos()
	h := &harness{
		t:      t,
		db:     gdb,
		tokens: auth.NewTokenManager(strings.Repeat("k", 32), "orbitlend-test", time.Hour),
		minter: &mintmock.Client{MintFn: func(context.Context, minting.MintRequest) (*minting.MintResult, error) {
			return &minting.MintResult{TokenID: "1", ContractAddress: "0xc0", TransactionHash: "0xmint", Network: "amoy"}, nil
		}},
		events: &event.Recorder{},
	}
	h.auth = auth.NewUsecase(repos.Users, h.tokens, cache.NewRedisKV(rdb, "nonce:", 0), time.Minute)
	pinner := &pinmock.Client{}

	h.e = NewRouter(Deps{
		Auth:           h.auth,
		Users:          ucuser.NewUsecase(repos.Users, tx, pinner, h.events),
		Loans:          loan.NewUsecase(repos.Loans, repos.Users, repos.NFTLoans, tx, h.events),
		Approval:       approval.NewUsecase(repos, tx, h.minter, pinner, h.events),
		Marketplace:    marketplace.NewUsecase(repos.NFTLoans, repos.Loans, h.minter),
		Chatbot:        chatbot.NewUsecase(nil, cache.NewMemory(10, time.Minute), cache.NewMemory(10, time.Minute)),
		WS:             notify.NewHandler(notify.NewHub(), h.auth, nil),
		Redis:          rdb,
		IdempotencyTTL: time.Minute,
		Checks:         map[string]Check{"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		CORSOrigins:    []string{"*"},
	})
	return h
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details []FieldError    `json:"details"`
	Warning string          `json:"warning"`
}

func (h *harness) do(method, path, token string, body any, hdr map[string]string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			h.t.Fatalf("%s %s: bad json: %v; raw=%s", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data: %v; raw=%s", err, raw)
	}
	return v
}

// register creates a borrower through the API and returns its token and id.
func (h *harness) register(email string) (string, string) {
	h.t.Helper()
	rec, env := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "firstName": "Ana", "lastName": "Lee",
	}, nil)
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	s := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](h.t, env.Data)
	return s.Token, s.User.ID
}

func (h *harness) approveKYC(userID string) {
	h.t.Helper()
	err := h.db.Model(&user.User{}).Where("user_id = ?", userID).Update("kyc_status", user.KYCApproved).Error
	if err != nil {
		h.t.Fatalf("approve kyc: %v", err)
	}
}

func (h *harness) adminToken() string {
	h.t.Helper()
	u, err := h.auth.CreateAdmin(context.Background(), "admin@orbitlend.test", "admin-password")
	if err != nil {
		h.t.Fatalf("create admin: %v", err)
	}
	tok, _, err := h.tokens.Issue(u)
	if err != nil {
		h.t.Fatalf("issue: %v", err)
	}
	return tok
}

func loanBody() map[string]any {
	return map[string]any{"amount": "12000", "purpose": "business", "interestRate": "12", "termMonths": 12}
}

func idemKey() map[string]string {
	return map[string]string{middleware.HeaderIdempotencyKey: uuid.NewString()}
}

type loanData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	RemainingBalance string `json:"remainingBalance"`
}

func TestRouter_HealthIsPublic(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(http.MethodGet, "/health", "", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestRouter_AuthFlow(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("ana@orbitlend.test")

	rec, env := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ana@orbitlend.test", "password": "another-pass", "firstName": "A", "lastName": "L",
	}, nil)
	if rec.Code != http.StatusConflict || env.Success {
		t.Fatalf("duplicate register: %d %+v", rec.Code, env)
	}

	rec, _ = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@orbitlend.test", "password": "wrong-pass"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}

	rec, env = h.do(http.MethodGet, "/api/auth/me", token, nil, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	me := decode[struct {
		Role      string `json:"role"`
		KYCStatus string `json:"kycStatus"`
	}](t, env.Data)
	if me.Role != "user" || me.KYCStatus != "pending" {
		t.Fatalf("me = %+v", me)
	}

	if rec, _ := h.do(http.MethodGet, "/api/auth/me", "", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec, _ := h.do(http.MethodGet, "/api/auth/me", "not-a-jwt", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}
}

func TestRouter_WalletConnectValidation(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(http.MethodPost, "/api/auth/wallet/connect", "", map[string]string{"walletAddress": "0x123"}, nil)
	if rec.Code != http.StatusBadRequest || !containsFieldMsg(env.Details, "walletAddress", "Ethereum") {
		t.Fatalf("connect: %d %+v", rec.Code, env)
	}

	rec, env = h.do(http.MethodPost, "/api/auth/wallet/connect", "", map[string]string{"walletAddress": borrowerWallet}, nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), "Sign in to OrbitLend") {
		t.Fatalf("connect: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_LoanRequestRequiresKYC(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("ana@orbitlend.test")

	rec, env := h.do(http.MethodPost, "/api/loans/request", token, loanBody(), idemKey())
	if rec.Code != http.StatusForbidden || env.Success {
		t.Fatalf("want 403, got %d %+v", rec.Code, env)
	}
	if !strings.Contains(env.Error, "KYC") {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestRouter_LoanRequestValidation(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)

	body := map[string]any{"amount": "500.123", "purpose": "vacation", "interestRate": "12", "termMonths": 12}
	rec, env := h.do(http.MethodPost, "/api/loans/request", token, body, idemKey())
	if rec.Code != http.StatusBadRequest || env.Message != "validation" {
		t.Fatalf("want 400, got %d %s", rec.Code, rec.Body.String())
	}
	if !containsFieldMsg(env.Details, "amount", "between") || !containsFieldMsg(env.Details, "purpose", "one of") {
		t.Fatalf("details = %+v", env.Details)
	}

	if rec, _ := h.do(http.MethodPost, "/api/loans/request", token, loanBody(), nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing idempotency key: want 400, got %d", rec.Code)
	}
}

func TestRouter_LoanRequestIsIdempotent(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	key := idemKey()

	rec1, env1 := h.do(http.MethodPost, "/api/loans/request", token, loanBody(), key)
	if rec1.Code != http.StatusCreated || !env1.Success {
		t.Fatalf("submit: %d %s", rec1.Code, rec1.Body.String())
	}
	rec2, _ := h.do(http.MethodPost, "/api/loans/request", token, loanBody(), key)
	if rec2.Code != http.StatusCreated || rec2.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay: %d headers=%v", rec2.Code, rec2.Header())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replayed body differs")
	}

	var count int64
	h.db.Table("loans").Count(&count)
	if count != 1 {
		t.Fatalf("loans stored = %d, want 1", count)
	}
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("ana@orbitlend.test")

	for _, p := range []string{"/api/admin/stats", "/api/admin/users", "/api/admin/loans"} {
		rec, env := h.do(http.MethodGet, p, token, nil, nil)
		if rec.Code != http.StatusForbidden || env.Message != "authorization" {
			t.Fatalf("%s: want 403, got %d %+v", p, rec.Code, env)
		}
	}
}

func submitLoan(t *testing.T, h *harness, token string) loanData {
	t.Helper()
	rec, env := h.do(http.MethodPost, "/api/loans/request", token, loanBody(), idemKey())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	return decode[loanData](t, env.Data)
}

func TestRouter_ApproveMintsAndActivates(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	admin := h.adminToken()
	l := submitLoan(t, h, token)

	rec, env := h.do(http.MethodPut, "/api/admin/loans/"+l.ID+"/approve", admin, map[string]string{"walletAddress": borrowerWallet}, nil)
	if rec.Code != http.StatusOK || !env.Success || env.Warning != "" {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Loan loanData `json:"loan"`
		NFT  *struct {
			OwnerAddress string `json:"ownerAddress"`
		} `json:"nft"`
	}](t, env.Data)
	if res.Loan.Status != "active" || res.NFT == nil {
		t.Fatalf("approve result = %+v", res)
	}

	// approving again is a conflict
	rec, env = h.do(http.MethodPut, "/api/admin/loans/"+l.ID+"/approve", admin, nil, nil)
	if rec.Code != http.StatusConflict || env.Success {
		t.Fatalf("second approve: %d %+v", rec.Code, env)
	}

	// borrower repays the first installment
	rec, env = h.do(http.MethodPut, "/api/loans/"+l.ID+"/repayment", token, map[string]any{"amount": "100"}, idemKey())
	if rec.Code != http.StatusOK {
		t.Fatalf("repay: %d %s", rec.Code, rec.Body.String())
	}
	if paid := decode[loanData](t, env.Data); paid.Status != "active" {
		t.Fatalf("after repayment = %+v", paid)
	}

	if got := h.events.Types(); len(got) == 0 {
		t.Fatalf("no events recorded")
	}
}

func TestRouter_ApproveWithMintFailureWarns(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	admin := h.adminToken()
	l := submitLoan(t, h, token)

	h.minter.MintFn = func(context.Context, minting.MintRequest) (*minting.MintResult, error) {
		return nil, errors.New("rpc unavailable")
	}
	rec, env := h.do(http.MethodPut, "/api/admin/loans/"+l.ID+"/approve", admin, map[string]string{"walletAddress": borrowerWallet}, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}
	if env.Warning == "" {
		t.Fatalf("expected a warning")
	}
	res := decode[struct {
		Loan loanData `json:"loan"`
	}](t, env.Data)
	if res.Loan.Status != "approved" {
		t.Fatalf("status = %s, want approved", res.Loan.Status)
	}

	h.minter.MintFn = func(context.Context, minting.MintRequest) (*minting.MintResult, error) {
		return &minting.MintResult{TokenID: "2", ContractAddress: "0xc0", TransactionHash: "0xretry"}, nil
	}
	rec, env = h.do(http.MethodPost, "/api/admin/nfts/"+l.ID+"/retry-mint", admin, map[string]string{"walletAddress": borrowerWallet}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry: %d %s", rec.Code, rec.Body.String())
	}
	retried := decode[struct {
		Loan loanData `json:"loan"`
	}](t, env.Data)
	if retried.Loan.Status != "active" {
		t.Fatalf("after retry = %+v", retried.Loan)
	}
}

func TestRouter_ApproveRejectsMalformedID(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()

	rec, env := h.do(http.MethodPut, "/api/admin/loans/not-an-id/approve", admin, nil, nil)
	if rec.Code != http.StatusBadRequest || !containsFieldMsg(env.Details, "id", "valid id") {
		t.Fatalf("want 400 on id, got %d %+v", rec.Code, env)
	}
}

func TestRouter_ValidationFailuresShareOneStatus(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	admin := h.adminToken()
	l := submitLoan(t, h, token)

	rec, env := h.do(http.MethodPut, "/api/admin/loans/"+l.ID+"/reject", admin, map[string]string{"rejectionReason": "short"}, nil)
	if rec.Code != http.StatusBadRequest || env.Message != "validation" || !containsFieldMsg(env.Details, "rejectionReason", "at least 10") {
		t.Fatalf("short reason: %d %s", rec.Code, rec.Body.String())
	}

	// rates are stored with two decimals, so finer ones are refused
	body := loanBody()
	body["interestRate"] = "12.345"
	rec, env = h.do(http.MethodPost, "/api/loans/request", token, body, idemKey())
	if rec.Code != http.StatusBadRequest || !containsFieldMsg(env.Details, "interestRate", "decimal places") {
		t.Fatalf("three-decimal rate: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_DeactivatedBorrowerCannotBeApproved(t *testing.T) {
	h := newHarness(t)
	token, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	admin := h.adminToken()
	l := submitLoan(t, h, token)

	// a pending loan does not block deactivation
	if rec, _ := h.do(http.MethodDelete, "/api/users/me", token, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", rec.Code, rec.Body.String())
	}

	rec, env := h.do(http.MethodPut, "/api/admin/loans/"+l.ID+"/approve", admin, map[string]string{"walletAddress": borrowerWallet}, nil)
	if rec.Code != http.StatusConflict || env.Success {
		t.Fatalf("approve for inactive borrower: %d %s", rec.Code, rec.Body.String())
	}
	if h.minter.MintCalls != 0 {
		t.Fatalf("mint calls = %d", h.minter.MintCalls)
	}

	var stored struct {
		Status string
	}
	if err := h.db.Table("loans").Select("status").Where("loan_id = ?", l.ID).Scan(&stored).Error; err != nil {
		t.Fatalf("load loan: %v", err)
	}
	if stored.Status != "pending" {
		t.Fatalf("loan status = %s, want pending", stored.Status)
	}
}

func TestRouter_BorrowerCannotReadOthersLoan(t *testing.T) {
	h := newHarness(t)
	ana, uid := h.register("ana@orbitlend.test")
	h.approveKYC(uid)
	bo, _ := h.register("bo@orbitlend.test")
	l := submitLoan(t, h, ana)

	if rec, _ := h.do(http.MethodGet, "/api/loans/"+l.ID, bo, nil, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign loan: want 403, got %d", rec.Code)
	}
	if rec, _ := h.do(http.MethodGet, "/api/loans/"+l.ID, ana, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("own loan: want 200, got %d", rec.Code)
	}
}

func TestRouter_ChatbotAnswersFromFAQ(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("ana@orbitlend.test")

	rec, env := h.do(http.MethodPost, "/api/chatbot/chat", token, map[string]string{"message": "How do I apply for a loan?"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", rec.Code, rec.Body.String())
	}
	r := decode[chatbot.Reply](t, env.Data)
	if r.Reply == "" || r.SessionID == "" {
		t.Fatalf("reply = %+v", r)
	}

	rec, _ = h.do(http.MethodGet, "/api/chatbot/history/"+r.SessionID, token, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: %d", rec.Code)
	}
}

func TestRouter_WebSocketRequiresToken(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ws without token: want 401, got %d", rec.Code)
	}
}
