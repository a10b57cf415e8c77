// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/teamdeck/internal/middleware"
	"github.com/hitoshi/teamdeck/internal/model"
)

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
func decodeJSONBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeValidationError は入力値検証エラーのレスポンスを書き込む。
func writeValidationError(w http.ResponseWriter, message string) {
	writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(message))
}

// writeInvalidRequestBody はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeValidationError(w, "リクエストボディの解析に失敗しました。")
}

// userIDFromRequest はリクエストコンテキストから認証済みユーザーIDを取得する。
// 取得できない場合は401を書き込み、okにfalseを返す。
func userIDFromRequest(w http.ResponseWriter, r *http.Request) (userID string, ok bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return "", false
	}
	return userID, true
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応させる。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeAlreadyMember, model.ErrCodeLastAdmin:
		return http.StatusConflict
	case model.ErrCodeInvalidInviteCode,
		model.ErrCodeInvalidTaskStatus,
		model.ErrCodeInvalidImageURL:
		return http.StatusBadRequest
	case model.ErrCodeWorkspaceNotFound,
		model.ErrCodeProjectNotFound,
		model.ErrCodeTaskNotFound,
		model.ErrCodeMemberNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
