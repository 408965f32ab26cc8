// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/worklog/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// accountResponse はアカウント情報のAPIレスポンス。パスワードハッシュは含めない。
type accountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// projectResponse はプロジェクト情報のAPIレスポンス。
type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// recordResponse は作業記録のAPIレスポンス。
type recordResponse struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	ProjectID   string    `json:"project_id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// toAccountResponse はmodel.AccountからAPIレスポンスに変換する。
func toAccountResponse(account *model.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
	}
}

// toAccountResponses はアカウントのスライスをAPIレスポンスに変換する。
func toAccountResponses(accounts []*model.Account) []accountResponse {
	results := make([]accountResponse, len(accounts))
	for i, account := range accounts {
		results[i] = toAccountResponse(account)
	}
	return results
}

// toProjectResponse はmodel.ProjectからAPIレスポンスに変換する。
func toProjectResponse(project *model.Project) projectResponse {
	return projectResponse{
		ID:        project.ID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

// toProjectResponses はプロジェクトのスライスをAPIレスポンスに変換する。
func toProjectResponses(projects []*model.Project) []projectResponse {
	results := make([]projectResponse, len(projects))
	for i, project := range projects {
		results[i] = toProjectResponse(project)
	}
	return results
}

// toRecordResponse はmodel.RecordからAPIレスポンスに変換する。
func toRecordResponse(record *model.Record) recordResponse {
	return recordResponse{
		ID:          record.ID,
		AccountID:   record.AccountID,
		ProjectID:   record.ProjectID,
		Description: record.Description,
		StartTime:   record.StartTime,
		EndTime:     record.EndTime,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// toRecordResponses は記録のスライスをAPIレスポンスに変換する。
func toRecordResponses(records []*model.Record) []recordResponse {
	results := make([]recordResponse, len(records))
	for i, record := range records {
		results[i] = toRecordResponse(record)
	}
	return results
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	// ストアのタイムアウトはリトライ可能な503として扱う
	if errors.Is(err, context.DeadlineExceeded) {
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewStoreUnavailableError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUsernameTaken, model.ErrCodeEmailTaken, model.ErrCodeProjectNameTaken:
		return http.StatusBadRequest
	case model.ErrCodeAuthFailed, model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeTokenMissing, model.ErrCodeTokenInvalid, model.ErrCodeUnknownSubject:
		return http.StatusUnauthorized
	case model.ErrCodeTokenExpired, model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeAccountNotFound, model.ErrCodeProjectNotFound, model.ErrCodeRecordNotFound,
		model.ErrCodeRelationNotFound, model.ErrCodeProjectNotAMember:
		return http.StatusNotFound
	case model.ErrCodeWrongDateOrder, model.ErrCodeWrongTimeRange:
		return http.StatusConflict
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseRFC3339 はRFC 3339形式の時刻文字列を解析する。
func parseRFC3339(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s を指定してください", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s はRFC 3339形式で指定してください", field)
	}
	return t, nil
}

// writeInvalidRequestBody はJSONボディの解析失敗レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
