package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/hitoshi/worklog/internal/auth"
	"github.com/hitoshi/worklog/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規アカウントを作成する。
	SignUp(ctx context.Context, input auth.SignUpInput) (*model.Account, error)
	// SignIn は資格情報を検証し、署名付きトークンを発行する。
	SignIn(ctx context.Context, username, password string) (string, error)
}

// SignInMetrics はサインイン結果メトリクスの記録インターフェース。
// metrics.MetricsCollectorの部分集合として定義する。nilを許容する。
type SignInMetrics interface {
	RecordSignInSuccess()
	RecordSignInFailure()
}

// AuthHandler はサインアップ・サインインのHTTPハンドラー。
type AuthHandler struct {
	service       AuthServiceInterface
	signInMetrics SignInMetrics
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, signInMetrics SignInMetrics) *AuthHandler {
	return &AuthHandler{
		service:       service,
		signInMetrics: signInMetrics,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signInResponse はサインイン成功時のレスポンス。
type signInResponse struct {
	Token string `json:"token"`
}

// emailPattern はメールアドレスの簡易形式チェック。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateSignUpRequest はサインアップリクエストの形式を検証する。
func validateSignUpRequest(req signUpRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 100 {
		return fmt.Errorf("ユーザー名は3文字以上100文字以下で指定してください")
	}
	if len(req.Email) < 5 || len(req.Email) > 100 {
		return fmt.Errorf("メールアドレスは5文字以上100文字以下で指定してください")
	}
	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("メールアドレスの形式が不正です")
	}
	if len(req.Password) < 8 || len(req.Password) > 255 {
		return fmt.Errorf("パスワードは8文字以上255文字以下で指定してください")
	}
	if req.Password != req.PasswordConfirm {
		return fmt.Errorf("パスワードと確認用パスワードが一致しません")
	}
	if req.Role == "" {
		return fmt.Errorf("ロールを指定してください")
	}
	if !model.Role(req.Role).IsValid() {
		return fmt.Errorf("ロールの指定が不正です: %s", req.Role)
	}
	return nil
}

// SignUp はアカウントの新規作成を処理する。
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := validateSignUpRequest(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	account, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toAccountResponse(account))
}

// SignIn は資格情報を検証しトークンを発行する。
// POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ユーザー名とパスワードを指定してください"))
		return
	}

	token, err := h.service.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if h.signInMetrics != nil && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeAuthFailed {
			h.signInMetrics.RecordSignInFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.signInMetrics != nil {
		h.signInMetrics.RecordSignInSuccess()
	}

	writeJSONResponse(w, http.StatusOK, signInResponse{Token: token})
}
