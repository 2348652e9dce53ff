package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
)

var (
	testUser = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testNow  = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, apperr.ErrTokenInvalid
	}
	return testUser, nil
}

func (stubAuth) SignUp(_ context.Context, in model.SignUpInput) (*model.User, error) {
	if in.Alias == "taken" {
		return nil, apperr.ErrUserExists
	}
	return &model.User{ID: testUser, Alias: in.Alias}, nil
}

func (stubAuth) SignIn(context.Context, model.SignInInput) (string, error) { return "jwt", nil }

type stubAccounts struct {
	AccountService
	created model.CreateAccountRequest
}

func (s *stubAccounts) Create(_ context.Context, userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error) {
	s.created = req
	return &model.Account{ID: uuid.New(), UserID: userID, Currency: req.Currency, Amount: req.Amount}, nil
}

func (s *stubAccounts) Get(_ context.Context, _, id uuid.UUID) (*model.Account, error) {
	return nil, apperr.ErrAccountNotFound
}

func (s *stubAccounts) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return apperr.Internal("Failed to delete account", io.ErrUnexpectedEOF)
}

type stubTransactions struct {
	TransactionService
	filter model.TransactionFilter
}

func (s *stubTransactions) List(_ context.Context, _ uuid.UUID, f model.TransactionFilter) (*model.Page[model.Transaction], error) {
	s.filter = f
	page := model.NewPage([]model.Transaction{{Name: "coffee"}}, 1, 1, 10)
	return &page, nil
}

type stubSettlements struct {
	req model.PayDebtLoanRequest
}

func (s *stubSettlements) PayDebtLoan(_ context.Context, _, id uuid.UUID, req model.PayDebtLoanRequest) (*model.Transaction, error) {
	s.req = req
	if req.IsPartial && req.Amount <= 0 {
		return nil, apperr.ErrPaymentUnderAmount
	}
	return &model.Transaction{ID: uuid.New(), Type: model.TransactionTypeExpense, Amount: req.Amount}, nil
}

type stubAnalytics struct {
	AnalyticService
	start, end time.Time
	month      model.Month
	year       int
}

func (s *stubAnalytics) GetFinancialStats(_ context.Context, _, accountID uuid.UUID, start, end time.Time) (*model.FinancialStats, error) {
	s.start, s.end = start, end
	return &model.FinancialStats{AccountID: accountID}, nil
}

func (s *stubAnalytics) GetOverview(_ context.Context, _ uuid.UUID, currency model.Currency, month model.Month, year int) (*model.Overview, error) {
	s.month, s.year = month, year
	return &model.Overview{Currency: currency}, nil
}

type env struct {
	server       *httptest.Server
	accounts     *stubAccounts
	transactions *stubTransactions
	settlements  *stubSettlements
	analytics    *stubAnalytics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := testLogger()
	e := &env{
		accounts:     &stubAccounts{},
		transactions: &stubTransactions{},
		settlements:  &stubSettlements{},
		analytics:    &stubAnalytics{},
	}
	router := NewRouter(Handlers{
		Auth:         NewAuthHandler(stubAuth{}, logger),
		Accounts:     NewAccountHandler(e.accounts, logger),
		Transactions: NewTransactionHandler(e.transactions, e.settlements, logger),
		Tags:         NewTagHandler(nil, logger),
		Analytics:    NewAnalyticsHandler(e.analytics, func() time.Time { return testNow }, logger),
	}, stubAuth{}, logger)
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body interface{}) (int, Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, out
}

func TestAuthMiddleware(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "UTBM_401"},
		{"invalid", "bad", http.StatusUnauthorized, "UTBT_401"},
		{"valid", "good", http.StatusNotFound, "ACNF_404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := e.do(t, http.MethodGet, "/api/accounts/"+uuid.NewString(), tt.token, nil)
			if status != tt.status || resp.Code != tt.code || resp.StatusCode != tt.status || resp.Success {
				t.Fatalf("got %d %+v", status, resp)
			}
		})
	}
}

func TestSignUpEnvelope(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do(t, http.MethodPost, "/auth/signup", "", model.SignUpInput{Alias: "alice", Token: "0123456789abcdef"})
	if status != http.StatusCreated || !resp.Success || resp.Code != apperr.CodeSuccess201 {
		t.Fatalf("got %d %+v", status, resp)
	}

	status, resp = e.do(t, http.MethodPost, "/auth/signup", "", model.SignUpInput{Alias: "taken", Token: "0123456789abcdef"})
	if status != http.StatusConflict || resp.Code != "USAE_409" {
		t.Fatalf("got %d %+v", status, resp)
	}

	status, resp = e.do(t, http.MethodPost, "/auth/signup", "", model.SignUpInput{Alias: "al", Token: "short"})
	if status != http.StatusBadRequest || resp.Code != apperr.CodeUnknown400 {
		t.Fatalf("got %d %+v", status, resp)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	e := newEnv(t)

	month := model.January
	year := 2024
	status, resp := e.do(t, http.MethodPost, "/api/accounts", "good", model.CreateAccountRequest{
		Month: &month, Year: &year, Currency: model.CurrencyUSD, Amount: 1000,
	})
	if status != http.StatusCreated || !resp.Success {
		t.Fatalf("got %d %+v", status, resp)
	}
	if e.accounts.created.Amount != 1000 || *e.accounts.created.Month != model.January {
		t.Fatalf("service got %+v", e.accounts.created)
	}

	bad := model.Month("SMARCH")
	status, resp = e.do(t, http.MethodPost, "/api/accounts", "good", model.CreateAccountRequest{
		Month: &bad, Year: &year, Currency: model.CurrencyUSD, Amount: 1000,
	})
	if status != http.StatusBadRequest || resp.Success {
		t.Fatalf("invalid month: got %d %+v", status, resp)
	}

	status, _ = e.do(t, http.MethodPost, "/api/accounts", "good", model.CreateAccountRequest{
		Month: &month, Year: &year, Currency: "XYZ", Amount: 1000,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid currency: got %d", status)
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	e := newEnv(t)

	status, resp := e.do(t, http.MethodDelete, "/api/accounts/"+uuid.NewString(), "good", nil)
	if status != http.StatusInternalServerError || resp.Code != apperr.CodeUnknown500 {
		t.Fatalf("got %d %+v", status, resp)
	}
	if resp.Message != "Internal server error" {
		t.Fatalf("internal details leaked: %q", resp.Message)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	e := newEnv(t)
	accountID := uuid.New()

	status, resp := e.do(t, http.MethodGet, "/api/transactions?account_id="+accountID.String()+"&type=debt&is_paid=false&order=asc&page=2&search=cof&with_deleted=true", "good", nil)
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("got %d %+v", status, resp)
	}

	f := e.transactions.filter
	if f.AccountID == nil || *f.AccountID != accountID {
		t.Fatalf("account filter = %v", f.AccountID)
	}
	if f.Type == nil || *f.Type != model.TransactionTypeDebt || f.IsPaid == nil || *f.IsPaid {
		t.Fatalf("filter = %+v", f)
	}
	if f.Order != model.OrderAsc || f.Page != 2 || f.Search != "cof" || !f.WithDeleted {
		t.Fatalf("filter = %+v", f)
	}

	status, _ = e.do(t, http.MethodGet, "/api/transactions?type=gift", "good", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("invalid type: got %d", status)
	}
}

func TestPayRoute(t *testing.T) {
	e := newEnv(t)
	id := uuid.NewString()

	status, resp := e.do(t, http.MethodPost, "/api/transactions/"+id+"/pay", "good", model.PayDebtLoanRequest{Amount: 40, IsPartial: true})
	if status != http.StatusCreated || !resp.Success {
		t.Fatalf("got %d %+v", status, resp)
	}
	if e.settlements.req.Amount != 40 || !e.settlements.req.IsPartial {
		t.Fatalf("service got %+v", e.settlements.req)
	}

	status, resp = e.do(t, http.MethodPost, "/api/transactions/"+id+"/pay", "good", model.PayDebtLoanRequest{Amount: -1, IsPartial: true})
	if status != http.StatusBadRequest || resp.Code != "TPUN_400" {
		t.Fatalf("got %d %+v", status, resp)
	}

	status, _ = e.do(t, http.MethodPost, "/api/transactions/not-a-uuid/pay", "good", model.PayDebtLoanRequest{})
	if status != http.StatusBadRequest {
		t.Fatalf("bad id: got %d", status)
	}
}

func TestAnalyticsQueryParsing(t *testing.T) {
	e := newEnv(t)
	accountID := uuid.NewString()

	status, _ := e.do(t, http.MethodGet, "/api/analytics/stats?account_id="+accountID+"&start=2024-01-01&end=2024-01-31", "good", nil)
	if status != http.StatusOK {
		t.Fatalf("got %d", status)
	}
	if e.analytics.start.Day() != 1 || e.analytics.end.Day() != 31 {
		t.Fatalf("range = %v..%v", e.analytics.start, e.analytics.end)
	}

	status, resp := e.do(t, http.MethodGet, "/api/analytics/stats?account_id="+accountID+"&start=2024-02-01&end=2024-01-01", "good", nil)
	if status != http.StatusBadRequest || resp.Code != "ANDR_400" {
		t.Fatalf("reversed range: got %d %+v", status, resp)
	}

	status, resp = e.do(t, http.MethodGet, "/api/analytics/stats?account_id="+accountID+"&start=01.01.2024", "good", nil)
	if status != http.StatusBadRequest || resp.Code != "TIDT_400" {
		t.Fatalf("bad date: got %d %+v", status, resp)
	}

	status, _ = e.do(t, http.MethodGet, "/api/analytics/stats", "good", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("missing account: got %d", status)
	}

	status, _ = e.do(t, http.MethodGet, "/api/analytics/overview?currency=eur", "good", nil)
	if status != http.StatusOK || e.analytics.month != model.January || e.analytics.year != 2024 {
		t.Fatalf("overview defaults: got %d %s %d", status, e.analytics.month, e.analytics.year)
	}

	status, _ = e.do(t, http.MethodGet, "/api/analytics/overview?currency=eur&month=march&year=2023", "good", nil)
	if status != http.StatusOK || e.analytics.month != model.March || e.analytics.year != 2023 {
		t.Fatalf("overview period: got %d %s %d", status, e.analytics.month, e.analytics.year)
	}
}
