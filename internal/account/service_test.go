package account

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/nat20/internal/model"
)

// --- モック定義 ---

// fakeIdentityProvider はIdentityProviderのフェイク実装。
// 呼び出し履歴を記録し、補償処理の発火を検証できるようにする。
type fakeIdentityProvider struct {
	createFn        func(ctx context.Context, username, email, phone string) (string, error)
	setCredentialFn func(ctx context.Context, username, password string) error
	deleteFn        func(ctx context.Context, username string) error

	createCalls     []string
	credentialCalls []string
	deleteCalls     []string
}

func (f *fakeIdentityProvider) CreateIdentity(ctx context.Context, username, email, phone string) (string, error) {
	f.createCalls = append(f.createCalls, username)
	if f.createFn != nil {
		return f.createFn(ctx, username, email, phone)
	}
	return "sub-" + username, nil
}

func (f *fakeIdentityProvider) SetPermanentCredential(ctx context.Context, username, password string) error {
	f.credentialCalls = append(f.credentialCalls, username)
	if f.setCredentialFn != nil {
		return f.setCredentialFn(ctx, username, password)
	}
	return nil
}

func (f *fakeIdentityProvider) DeleteIdentity(ctx context.Context, username string) error {
	f.deleteCalls = append(f.deleteCalls, username)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, username)
	}
	return nil
}

// fakeUserRepo はUserRepositoryのフェイク実装。挿入された行を保持する。
type fakeUserRepo struct {
	createFn func(ctx context.Context, user *model.User) error
	users    map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	if _, exists := f.users[user.Username]; exists {
		return model.NewDuplicateKeyError()
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, nil
}

// fakeMetrics はMetricsRecorderのフェイク実装。
type fakeMetrics struct {
	outcomes []string
}

func (f *fakeMetrics) RecordProvisioning(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

func validInput() CreateAccountInput {
	return CreateAccountInput{
		Username:    "kate",
		Password:    "Abc123!@",
		Email:       "k@x.io",
		PhoneNumber: "+15551234",
		FirstName:   "Kate",
		LastName:    "Rowan",
	}
}

// --- テスト ---

// 正常系: IdPのsubがIDになり、ローカル行が作成されることを検証
func TestCreateAccount_Success(t *testing.T) {
	idp := &fakeIdentityProvider{}
	repo := newFakeUserRepo()
	metrics := &fakeMetrics{}
	svc := NewService(idp, repo, metrics)

	user, err := svc.CreateAccount(context.Background(), validInput())
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if user.ID != "sub-kate" {
		t.Errorf("ID = %q, want provider-issued %q", user.ID, "sub-kate")
	}
	if user.Username != "kate" || user.Email != "k@x.io" || user.PhoneNumber != "+15551234" {
		t.Errorf("unexpected user fields: %+v", user)
	}

	stored, _ := repo.FindByUsername(context.Background(), "kate")
	if stored == nil {
		t.Fatal("expected user row to be persisted")
	}
	if stored.ID != "sub-kate" {
		t.Errorf("stored.ID = %q, want %q", stored.ID, "sub-kate")
	}

	if len(idp.deleteCalls) != 0 {
		t.Errorf("DeleteIdentity called %d times, want 0", len(idp.deleteCalls))
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != OutcomeSuccess {
		t.Errorf("outcomes = %v, want [%s]", metrics.outcomes, OutcomeSuccess)
	}
}

// 必須フィールド欠落でIdPに到達せずINVALID_REQUESTとなることを検証
func TestCreateAccount_MissingFields_FailsBeforeProvider(t *testing.T) {
	idp := &fakeIdentityProvider{}
	svc := NewService(idp, newFakeUserRepo(), nil)

	input := validInput()
	input.Password = ""
	input.Email = ""

	_, err := svc.CreateAccount(context.Background(), input)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
	if len(idp.createCalls) != 0 {
		t.Errorf("CreateIdentity called %d times, want 0", len(idp.createCalls))
	}
}

// ユーザー名重複が409相当のDUPLICATE_IDENTITYとして伝播することを検証
func TestCreateAccount_DuplicateIdentity_SurfacesConflict(t *testing.T) {
	idp := &fakeIdentityProvider{
		createFn: func(ctx context.Context, username, email, phone string) (string, error) {
			return "", model.NewDuplicateIdentityError(username)
		},
	}
	metrics := &fakeMetrics{}
	svc := NewService(idp, newFakeUserRepo(), metrics)

	_, err := svc.CreateAccount(context.Background(), validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateIdentity {
		t.Fatalf("error = %v, want DUPLICATE_IDENTITY", err)
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != OutcomeConflict {
		t.Errorf("outcomes = %v, want [%s]", metrics.outcomes, OutcomeConflict)
	}
}

// 資格情報設定の失敗で補償削除が実行され、アカウントが残らないことを検証
func TestCreateAccount_CredentialFailure_CompensatesWithDelete(t *testing.T) {
	idp := &fakeIdentityProvider{
		setCredentialFn: func(ctx context.Context, username, password string) error {
			return errors.New("password policy violation")
		},
	}
	repo := newFakeUserRepo()
	metrics := &fakeMetrics{}
	svc := NewService(idp, repo, metrics)

	_, err := svc.CreateAccount(context.Background(), validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProvisioningFailed {
		t.Fatalf("error = %v, want PROVISIONING_FAILED", err)
	}

	if len(idp.deleteCalls) != 1 || idp.deleteCalls[0] != "kate" {
		t.Errorf("deleteCalls = %v, want [kate]", idp.deleteCalls)
	}
	if stored, _ := repo.FindByUsername(context.Background(), "kate"); stored != nil {
		t.Error("expected no local row after compensation")
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != OutcomeCompensated {
		t.Errorf("outcomes = %v, want [%s]", metrics.outcomes, OutcomeCompensated)
	}
}

// 補償後の再実行が新規作成として成功することを検証（補償の冪等性）
func TestCreateAccount_RetryAfterCompensation_Succeeds(t *testing.T) {
	failOnce := true
	idp := &fakeIdentityProvider{
		setCredentialFn: func(ctx context.Context, username, password string) error {
			if failOnce {
				failOnce = false
				return errors.New("transient failure")
			}
			return nil
		},
	}
	repo := newFakeUserRepo()
	svc := NewService(idp, repo, nil)

	if _, err := svc.CreateAccount(context.Background(), validInput()); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	user, err := svc.CreateAccount(context.Background(), validInput())
	if err != nil {
		t.Fatalf("retry after compensation failed: %v", err)
	}
	if user.ID != "sub-kate" {
		t.Errorf("ID = %q, want %q", user.ID, "sub-kate")
	}
}

// ローカル登録のDB失敗が部分失敗として分類されることを検証
// （IdP側は既に成功しているため補償削除は行わない）
func TestCreateAccount_LocalInsertFailure_IsPartialFailure(t *testing.T) {
	idp := &fakeIdentityProvider{}
	repo := newFakeUserRepo()
	repo.createFn = func(ctx context.Context, user *model.User) error {
		return errors.New("connection reset")
	}
	metrics := &fakeMetrics{}
	svc := NewService(idp, repo, metrics)

	_, err := svc.CreateAccount(context.Background(), validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProvisioningFailed {
		t.Fatalf("error = %v, want PROVISIONING_FAILED", err)
	}
	if len(idp.deleteCalls) != 0 {
		t.Errorf("DeleteIdentity called %d times, want 0 (identity must remain for reconciliation)", len(idp.deleteCalls))
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != OutcomePartialFailure {
		t.Errorf("outcomes = %v, want [%s]", metrics.outcomes, OutcomePartialFailure)
	}
}

// DB側の一意制約違反が409相当のDUPLICATE_KEYとして伝播し、行が増えないことを検証
func TestCreateAccount_DuplicateKey_SurfacesConflict(t *testing.T) {
	idp := &fakeIdentityProvider{}
	repo := newFakeUserRepo()
	svc := NewService(idp, repo, nil)

	if _, err := svc.CreateAccount(context.Background(), validInput()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateAccount(context.Background(), validInput())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateKey {
		t.Fatalf("error = %v, want DUPLICATE_KEY", err)
	}
	if len(repo.users) != 1 {
		t.Errorf("row count = %d, want 1", len(repo.users))
	}
}

// 電話番号が未指定でも空文字として作成できることを検証
func TestCreateAccount_PhoneNumberOptional(t *testing.T) {
	idp := &fakeIdentityProvider{}
	repo := newFakeUserRepo()
	svc := NewService(idp, repo, nil)

	input := validInput()
	input.PhoneNumber = ""

	user, err := svc.CreateAccount(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if user.PhoneNumber != "" {
		t.Errorf("PhoneNumber = %q, want empty", user.PhoneNumber)
	}
}
