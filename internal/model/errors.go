package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, relation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUsernameTaken     = "USERNAME_TAKEN"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeProjectNameTaken  = "PROJECT_NAME_TAKEN"
	ErrCodeAuthFailed        = "AUTH_FAILED"
	ErrCodeTokenMissing      = "TOKEN_MISSING"
	ErrCodeTokenInvalid      = "TOKEN_INVALID"
	ErrCodeTokenExpired      = "TOKEN_EXPIRED"
	ErrCodeUnknownSubject    = "UNKNOWN_SUBJECT"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ErrCodeProjectNotFound   = "PROJECT_NOT_FOUND"
	ErrCodeRecordNotFound    = "RECORD_NOT_FOUND"
	ErrCodeRelationNotFound  = "RELATION_NOT_FOUND"
	ErrCodeProjectNotAMember = "PROJECT_NOT_A_MEMBER"
	ErrCodeWrongDateOrder    = "WRONG_DATE_ORDER"
	ErrCodeWrongTimeRange    = "WRONG_TIME_RANGE"
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  fmt.Sprintf("このメールアドレスは既に使用されています: %s", email),
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewProjectNameTakenError はプロジェクト名重複エラーを生成する。
func NewProjectNameTakenError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNameTaken,
		Message:  fmt.Sprintf("このプロジェクト名は既に使用されています: %s", name),
		Category: "validation",
		Action:   "別のプロジェクト名を指定してください。",
	}
}

// NewAuthFailedError は認証失敗エラーを生成する。
// ユーザー名・パスワードのどちらが誤っているかは区別しない。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "ユーザー名とパスワードを確認してください。",
	}
}

// NewTokenMissingError はトークン未指定エラーを生成する。
func NewTokenMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenMissing,
		Message:  "認証トークンが指定されていません。",
		Category: "auth",
		Action:   "Authorization: Bearer ヘッダーでトークンを指定してください。",
	}
}

// NewTokenInvalidError は不正トークンエラーを生成する。
// 構造不正と署名不一致の双方をこのエラーに集約する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "認証トークンが不正です。",
		Category: "auth",
		Action:   "再度サインインしてトークンを取得し直してください。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "認証トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "再度サインインしてトークンを取得し直してください。",
	}
}

// NewUnknownSubjectError はトークンの主体が存在しない場合のエラーを生成する。
func NewUnknownSubjectError() *APIError {
	return &APIError{
		Code:     ErrCodeUnknownSubject,
		Message:  "トークンに対応するアカウントが見つかりません。",
		Category: "auth",
		Action:   "再度サインインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "必要なロールを持つアカウントでサインインしてください。",
	}
}

// NewAccountNotFoundError はアカウント未検出エラーを生成する。
func NewAccountNotFoundError(accountID string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  fmt.Sprintf("指定されたアカウントが見つかりません: %s", accountID),
		Category: "relation",
		Action:   "アカウントIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "relation",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewRecordNotFoundError は記録未検出エラーを生成する。
func NewRecordNotFoundError(recordID string) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("指定された記録が見つかりません: %s", recordID),
		Category: "relation",
		Action:   "記録IDを確認してください。",
	}
}

// NewRelationNotFoundError はメンバー関係未検出エラーを生成する。
func NewRelationNotFoundError(accountID, projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeRelationNotFound,
		Message:  fmt.Sprintf("アカウント %s とプロジェクト %s のメンバー関係が存在しません。", accountID, projectID),
		Category: "relation",
		Action:   "メンバー関係を確認してください。",
	}
}

// NewProjectNotAMemberError はメンバーでないプロジェクトへの操作エラーを生成する。
func NewProjectNotAMemberError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotAMember,
		Message:  fmt.Sprintf("このプロジェクトのメンバーではありません: %s", projectID),
		Category: "relation",
		Action:   "プロジェクトに割り当てられてから操作してください。",
	}
}

// NewWrongDateOrderError は開始・終了時刻の順序不正エラーを生成する。
func NewWrongDateOrderError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongDateOrder,
		Message:  "終了時刻は開始時刻より後である必要があります。",
		Category: "validation",
		Action:   "開始時刻と終了時刻を確認してください。",
	}
}

// NewWrongTimeRangeError は時刻範囲不正エラーを生成する。
// 開始時刻は過去、終了時刻は現在以前であることが必要。
func NewWrongTimeRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongTimeRange,
		Message:  "開始時刻は過去、終了時刻は現在以前である必要があります。",
		Category: "validation",
		Action:   "開始時刻と終了時刻を確認してください。",
	}
}

// NewValidationError はリクエストボディの検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("リクエストの検証に失敗しました: %s", reason),
		Category: "validation",
		Action:   "リクエストボディを確認してください。",
	}
}

// NewStoreUnavailableError はストア接続障害エラーを生成する。
// 呼び出し側でリトライ可能。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアへのアクセスがタイムアウトしました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
