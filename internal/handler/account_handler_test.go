package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/nat20/internal/account"
	"github.com/hitoshi/nat20/internal/model"
)

// mockAccountService はAccountServiceInterfaceのモック実装。
type mockAccountService struct {
	createAccountFn func(ctx context.Context, input account.CreateAccountInput) (*model.User, error)
}

func (m *mockAccountService) CreateAccount(ctx context.Context, input account.CreateAccountInput) (*model.User, error) {
	return m.createAccountFn(ctx, input)
}

// 正常系: 成功エンベロープとIdP発行のIDが返ることを検証
func TestCreateAccount_Success(t *testing.T) {
	svc := &mockAccountService{
		createAccountFn: func(ctx context.Context, input account.CreateAccountInput) (*model.User, error) {
			return &model.User{
				ID:       "sub-kate",
				Username: input.Username,
				Email:    input.Email,
			}, nil
		},
	}
	h := NewAccountHandler(svc)

	body := `{"username":"kate","password":"Abc123!@","email":"k@x.io"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Message string       `json:"message"`
		Data    userResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "success" {
		t.Errorf("message = %q, want %q", resp.Message, "success")
	}
	if resp.Data.ID != "sub-kate" {
		t.Errorf("data.id = %q, want %q", resp.Data.ID, "sub-kate")
	}
}

// 不正なJSONボディが400になることを検証
func TestCreateAccount_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{invalid`))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 検証エラーが400と統一エラーフォーマットで返ることを検証
func TestCreateAccount_ValidationError(t *testing.T) {
	svc := &mockAccountService{
		createAccountFn: func(ctx context.Context, input account.CreateAccountInput) (*model.User, error) {
			return nil, model.NewInvalidRequestError("username は必須です")
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want INVALID_REQUEST", resp.Code)
	}
	if resp.Category != "validation" {
		t.Errorf("category = %q, want validation", resp.Category)
	}
}

// ユーザー名重複が409になることを検証
func TestCreateAccount_DuplicateIdentity(t *testing.T) {
	svc := &mockAccountService{
		createAccountFn: func(ctx context.Context, input account.CreateAccountInput) (*model.User, error) {
			return nil, model.NewDuplicateIdentityError("kate")
		},
	}
	h := NewAccountHandler(svc)

	body := `{"username":"kate","password":"Abc123!@","email":"k@x.io"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// プロビジョニング失敗が500になり、内部詳細が応答に含まれないことを検証
func TestCreateAccount_ProvisioningFailure(t *testing.T) {
	svc := &mockAccountService{
		createAccountFn: func(ctx context.Context, input account.CreateAccountInput) (*model.User, error) {
			return nil, model.NewProvisioningFailedError()
		},
	}
	h := NewAccountHandler(svc)

	body := `{"username":"kate","password":"Abc123!@","email":"k@x.io"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAccount(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sql") || strings.Contains(rec.Body.String(), "cognito") {
		t.Error("response must not contain internal details")
	}
}
