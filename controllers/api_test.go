package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"onlinebank-backend/config"
	"onlinebank-backend/models"
	"onlinebank-backend/routes"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ---- helpers ----

func setupTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PHONE", "5559999")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.AuthIdentity{},
		&models.Customer{},
		&models.Account{},
		&models.Transaction{},
		&models.Loan{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	config.DB = db
	return routes.SetupRouter()
}

func doRequest(router *gin.Engine, method, url string, body interface{}, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func signupBody(phone string, balance int64) map[string]interface{} {
	return map[string]interface{}{
		"firstName":       "Test",
		"lastName":        "Customer",
		"phone":           phone,
		"password":        "s3cretpass",
		"confirmPassword": "s3cretpass",
		"initialBalance":  balance,
	}
}

func mustSignup(t *testing.T, router *gin.Engine, phone string, balance int64) string {
	t.Helper()
	w := doRequest(router, "POST", "/auth/signup", signupBody(phone, balance), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup for %s failed: %d %s", phone, w.Code, w.Body.String())
	}
	token, ok := decodeBody(t, w)["token"].(string)
	if !ok || token == "" {
		t.Fatal("signup response missing token")
	}
	return token
}

func listAccounts(t *testing.T, router *gin.Engine, token string) []map[string]interface{} {
	t.Helper()
	w := doRequest(router, "GET", "/api/accounts", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("listing accounts failed: %d %s", w.Code, w.Body.String())
	}
	var accounts []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("failed to decode accounts: %v", err)
	}
	return accounts
}

// ---- tests ----

func TestSignupLoginAndMe(t *testing.T) {
	router := setupTestAPI(t)

	mustSignup(t, router, "5551000", 1000)

	w := doRequest(router, "POST", "/auth/login", map[string]interface{}{
		"phone": "5551000", "password": "s3cretpass",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	token := decodeBody(t, w)["token"].(string)

	w = doRequest(router, "GET", "/auth/me", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("me failed: %d %s", w.Code, w.Body.String())
	}
	customer := decodeBody(t, w)["customer"].(map[string]interface{})
	if customer["phone"] != "5551000" {
		t.Errorf("unexpected customer: %v", customer)
	}
	if _, leaked := customer["password"]; leaked {
		t.Error("password field leaked in response")
	}

	w = doRequest(router, "POST", "/auth/login", map[string]interface{}{
		"phone": "5551000", "password": "wrong password",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", w.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	router := setupTestAPI(t)

	body := signupBody("5551001", 0)
	body["confirmPassword"] = "different"
	if w := doRequest(router, "POST", "/auth/signup", body, ""); w.Code != http.StatusBadRequest {
		t.Errorf("mismatched confirmation: expected 400, got %d", w.Code)
	}

	body = signupBody("not-a-phone", 0)
	if w := doRequest(router, "POST", "/auth/signup", body, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad phone: expected 400, got %d", w.Code)
	}

	mustSignup(t, router, "5551002", 0)
	if w := doRequest(router, "POST", "/auth/signup", signupBody("5551002", 0), ""); w.Code != http.StatusConflict {
		t.Errorf("duplicate phone: expected 409, got %d", w.Code)
	}
}

func TestTokenCookieFollowsConfiguredExpiry(t *testing.T) {
	router := setupTestAPI(t)
	t.Setenv("JWT_EXPIRY_HOURS", "2")

	w := doRequest(router, "POST", "/auth/signup", signupBody("5551003", 0), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", w.Code, w.Body.String())
	}

	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			tokenCookie = cookie
		}
	}
	if tokenCookie == nil {
		t.Fatal("no token cookie set")
	}
	if tokenCookie.MaxAge != 2*3600 {
		t.Errorf("cookie max-age: expected %d, got %d", 2*3600, tokenCookie.MaxAge)
	}
}

func TestAuthRequired(t *testing.T) {
	router := setupTestAPI(t)

	for _, url := range []string{"/api/accounts", "/api/loans", "/api/dashboard"} {
		if w := doRequest(router, "GET", url, nil, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", url, w.Code)
		}
	}
}

func TestTransferFlow(t *testing.T) {
	router := setupTestAPI(t)

	tokenA := mustSignup(t, router, "5552000", 1000)
	tokenB := mustSignup(t, router, "5552001", 1000)

	accountA := listAccounts(t, router, tokenA)[0]
	accountB := listAccounts(t, router, tokenB)[0]
	fromID := accountA["id"].(float64)
	toID := accountB["id"].(float64)

	w := doRequest(router, "POST", "/api/transfers", map[string]interface{}{
		"fromAccountId": fromID, "toAccountId": toID, "amount": 250,
	}, tokenA)
	if w.Code != http.StatusOK {
		t.Fatalf("transfer failed: %d %s", w.Code, w.Body.String())
	}

	if balance := listAccounts(t, router, tokenA)[0]["balance"].(float64); balance != 750 {
		t.Errorf("source balance: expected 750, got %v", balance)
	}
	if balance := listAccounts(t, router, tokenB)[0]["balance"].(float64); balance != 1250 {
		t.Errorf("destination balance: expected 1250, got %v", balance)
	}

	// Overdraft rejected, balances untouched
	w = doRequest(router, "POST", "/api/transfers", map[string]interface{}{
		"fromAccountId": fromID, "toAccountId": toID, "amount": 10000,
	}, tokenA)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraft: expected 422, got %d %s", w.Code, w.Body.String())
	}
	if balance := listAccounts(t, router, tokenA)[0]["balance"].(float64); balance != 750 {
		t.Errorf("balance changed by failed transfer: %v", balance)
	}

	// B cannot move A's money
	w = doRequest(router, "POST", "/api/transfers", map[string]interface{}{
		"fromAccountId": fromID, "toAccountId": toID, "amount": 10,
	}, tokenB)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign source: expected 403, got %d", w.Code)
	}

	// Statement newest-first
	w = doRequest(router, "GET", fmt.Sprintf("/api/accounts/%.0f/transactions", fromID), nil, tokenA)
	if w.Code != http.StatusOK {
		t.Fatalf("statement failed: %d %s", w.Code, w.Body.String())
	}
	var statement []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &statement); err != nil {
		t.Fatalf("failed to decode statement: %v", err)
	}
	if len(statement) != 2 { // initial deposit + transfer
		t.Fatalf("expected 2 statement entries, got %d", len(statement))
	}
	if statement[0]["type"] != "transfer" {
		t.Errorf("expected transfer first, got %v", statement[0]["type"])
	}

	// A cannot read B's statement
	w = doRequest(router, "GET", fmt.Sprintf("/api/accounts/%.0f/transactions", toID), nil, tokenA)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign statement: expected 403, got %d", w.Code)
	}
}

func TestLoanFlow(t *testing.T) {
	router := setupTestAPI(t)

	token := mustSignup(t, router, "5553000", 100)

	w := doRequest(router, "POST", "/api/loans", map[string]interface{}{
		"amount": 500, "branchId": 3,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("loan application failed: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(router, "GET", "/api/loans", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("listing loans failed: %d", w.Code)
	}
	var loans []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &loans); err != nil {
		t.Fatalf("failed to decode loans: %v", err)
	}
	if len(loans) != 1 || loans[0]["amount"].(float64) != 500 || loans[0]["branchId"].(float64) != 3 {
		t.Errorf("unexpected loans: %v", loans)
	}

	// The LOAN account appears alongside savings, holding the principal
	accounts := listAccounts(t, router, token)
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	var loanAccount map[string]interface{}
	for _, account := range accounts {
		if account["type"] == "LOAN" {
			loanAccount = account
		}
	}
	if loanAccount == nil {
		t.Fatal("no LOAN account after loan application")
	}
	if loanAccount["balance"].(float64) != 500 {
		t.Errorf("expected LOAN balance 500, got %v", loanAccount["balance"])
	}

	if w := doRequest(router, "POST", "/api/loans", map[string]interface{}{
		"amount": -5, "branchId": 3,
	}, token); w.Code != http.StatusBadRequest {
		t.Errorf("negative amount: expected 400, got %d", w.Code)
	}
}

func TestDashboardOverview(t *testing.T) {
	router := setupTestAPI(t)

	token := mustSignup(t, router, "5554000", 1000)

	w := doRequest(router, "GET", "/api/dashboard", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard failed: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["totalBalance"].(float64) != 1000 {
		t.Errorf("expected total balance 1000, got %v", body["totalBalance"])
	}
}

func TestAdminEndpoints(t *testing.T) {
	router := setupTestAPI(t)

	adminToken := mustSignup(t, router, "5559999", 0) // matches ADMIN_PHONE
	customerToken := mustSignup(t, router, "5554001", 500)

	// Customers cannot reach the admin surface
	if w := doRequest(router, "GET", "/api/admin/customers", nil, customerToken); w.Code != http.StatusForbidden {
		t.Errorf("non-admin list customers: expected 403, got %d", w.Code)
	}

	w := doRequest(router, "GET", "/api/admin/customers", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list customers failed: %d %s", w.Code, w.Body.String())
	}
	var customers []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &customers); err != nil {
		t.Fatalf("failed to decode customers: %v", err)
	}
	if len(customers) != 2 {
		t.Errorf("expected 2 customers, got %d", len(customers))
	}

	if w := doRequest(router, "GET", "/api/admin/loans", nil, adminToken); w.Code != http.StatusOK {
		t.Errorf("admin list loans failed: %d", w.Code)
	}
	if w := doRequest(router, "GET", "/api/admin/dashboard", nil, adminToken); w.Code != http.StatusOK {
		t.Errorf("admin dashboard failed: %d", w.Code)
	}

	// Find the non-admin customer's id and cascade delete them
	var victimID float64
	for _, customer := range customers {
		if customer["phone"] == "5554001" {
			victimID = customer["id"].(float64)
		}
	}
	if victimID == 0 {
		t.Fatal("victim customer not found in listing")
	}

	w = doRequest(router, "DELETE", fmt.Sprintf("/api/admin/customers/%.0f", victimID), nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("cascade delete failed: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(router, "GET", fmt.Sprintf("/api/admin/customers/%.0f", victimID), nil, adminToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted customer lookup: expected 404, got %d", w.Code)
	}

	w = doRequest(router, "DELETE", "/api/admin/customers/424242", nil, adminToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown customer delete: expected 404, got %d", w.Code)
	}
}
