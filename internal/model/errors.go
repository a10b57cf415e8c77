// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, workspace, project, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeAlreadyMember     = "ALREADY_MEMBER"
	ErrCodeInvalidInviteCode = "INVALID_INVITE_CODE"
	ErrCodeWorkspaceNotFound = "WORKSPACE_NOT_FOUND"
	ErrCodeProjectNotFound   = "PROJECT_NOT_FOUND"
	ErrCodeTaskNotFound      = "TASK_NOT_FOUND"
	ErrCodeMemberNotFound    = "MEMBER_NOT_FOUND"
	ErrCodeLastAdmin         = "LAST_ADMIN"
	ErrCodeInvalidTaskStatus = "INVALID_TASK_STATUS"
	ErrCodeInvalidImageURL   = "INVALID_IMAGE_URL"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeCSRFTokenInvalid  = "CSRF_TOKEN_INVALID"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewUnauthenticatedError は認証情報を持たないリクエストのエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewCSRFTokenError はCSRFトークン検証失敗のエラーを生成する。
func NewCSRFTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInvalidRequestError は入力値検証エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewRateLimitError はレート制限超過のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエスト数が制限を超えました。",
		Category: "system",
		Action:   "時間をおいてから再度お試しください。",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError はワークスペースのメンバーでないユーザーによる
// アクセス拒否エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "このワークスペースのメンバーではありません。",
		Category: "auth",
		Action:   "ワークスペースの管理者に招待を依頼してください。",
	}
}

// NewForbiddenError はメンバーではあるがロールが不足している場合の
// アクセス拒否エラーを生成する。
func NewForbiddenError(required MemberRole) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("この操作には %s ロールが必要です。", required),
		Category: "auth",
		Action:   "ワークスペースの管理者に操作を依頼してください。",
	}
}

// NewAlreadyMemberError は既にメンバーであるユーザーの参加試行エラーを生成する。
func NewAlreadyMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyMember,
		Message:  "既にこのワークスペースのメンバーです。",
		Category: "workspace",
		Action:   "参加操作は不要です。そのままワークスペースを開いてください。",
	}
}

// NewInvalidInviteCodeError は招待コード不一致エラーを生成する。
func NewInvalidInviteCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInviteCode,
		Message:  "招待コードが正しくありません。",
		Category: "workspace",
		Action:   "招待コードを確認して再度入力してください。",
	}
}

// NewWorkspaceNotFoundError はワークスペース未検出エラーを生成する。
func NewWorkspaceNotFoundError(workspaceID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkspaceNotFound,
		Message:  fmt.Sprintf("指定されたワークスペースが見つかりません: %s", workspaceID),
		Category: "workspace",
		Action:   "ワークスペースIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "project",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスクIDを確認してください。",
	}
}

// NewMemberNotFoundError はメンバー未検出エラーを生成する。
func NewMemberNotFoundError(memberID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("指定されたメンバーが見つかりません: %s", memberID),
		Category: "workspace",
		Action:   "メンバーIDを確認してください。",
	}
}

// NewLastAdminError は最後の管理者を降格・削除しようとした場合のエラーを生成する。
func NewLastAdminError() *APIError {
	return &APIError{
		Code:     ErrCodeLastAdmin,
		Message:  "最後の管理者を削除または降格することはできません。",
		Category: "workspace",
		Action:   "先に別のメンバーを管理者に昇格させてください。",
	}
}

// NewInvalidTaskStatusError は無効なタスクステータスエラーを生成する。
func NewInvalidTaskStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTaskStatus,
		Message:  fmt.Sprintf("無効なタスクステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには backlog、todo、in_progress、in_review、done のいずれかを指定してください。",
	}
}

// NewInvalidImageURLError は画像URLが受理できない場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("画像URLを受理できません: %s", reason),
		Category: "validation",
		Action:   "公開されているWebサイト上の画像URL（https）を指定してください。",
	}
}
