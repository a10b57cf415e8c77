// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/teamdeck/internal/model"
)

// ErrDuplicateMember は(workspaceId, userId)の一意制約違反を表す。
// 同一ユーザーの同時参加がDB側で直列化された結果であり、呼び出し側は
// 「既にメンバー」として扱う。
var ErrDuplicateMember = errors.New("duplicate member for (workspace, user)")

// WorkspaceRepository はワークスペースデータの永続化インターフェース。
type WorkspaceRepository interface {
	// FindByID は指定IDのワークスペースを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Workspace, error)

	// ListByUserID はユーザーがメンバーとして所属する全ワークスペースを
	// 作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Workspace, error)

	// CreateWithAdminMember はワークスペースと作成者のadminメンバーを
	// 同一トランザクションで作成する。
	CreateWithAdminMember(ctx context.Context, ws *model.Workspace, member *model.Member) error

	// Update はワークスペースの名前と画像URLを更新する。
	Update(ctx context.Context, ws *model.Workspace) error

	// UpdateInviteCode は招待コードを置き換える。旧コードは即時無効になる。
	UpdateInviteCode(ctx context.Context, id, inviteCode string) error

	// Delete は指定IDのワークスペースを削除する。
	// メンバー・プロジェクト・タスクはDBの外部キーによりカスケード削除される。
	Delete(ctx context.Context, id string) error
}

// MemberRepository はメンバーシップデータの永続化インターフェース。
// 認可判定の唯一の情報源であり、メンバーの不在はエラーではなくnilで表す。
type MemberRepository interface {
	// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// FindByUserAndWorkspace はユーザーIDとワークスペースIDでメンバーを
	// 検索する。見つからない場合はnilを返す。
	FindByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*model.Member, error)

	// ListByWorkspaceID はワークスペースの全メンバーを参加日時昇順で返す。
	ListByWorkspaceID(ctx context.Context, workspaceID string) ([]*model.Member, error)

	// CountAdminsByWorkspaceID はワークスペースのadminメンバー数を返す。
	CountAdminsByWorkspaceID(ctx context.Context, workspaceID string) (int, error)

	// Create はメンバーを作成する。(workspaceId, userId)の一意制約に
	// 違反した場合はErrDuplicateMemberを返す。
	Create(ctx context.Context, member *model.Member) error

	// UpdateRole はメンバーのロールを更新する。
	UpdateRole(ctx context.Context, id string, role model.MemberRole) error

	// Delete は指定IDのメンバーを削除する。
	Delete(ctx context.Context, id string) error
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ListByWorkspaceID はワークスペースの全プロジェクトを作成日時降順で返す。
	ListByWorkspaceID(ctx context.Context, workspaceID string) ([]*model.Project, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// Update はプロジェクトの名前と画像URLを更新する。
	Update(ctx context.Context, project *model.Project) error

	// Delete は指定IDのプロジェクトを削除する。配下のタスクはカスケード削除される。
	Delete(ctx context.Context, id string) error
}

// TaskCountFilter はタスク集計のフィルタ条件。
// ゼロ値のフィールドは条件に含めない。CreatedFrom/CreatedToは両端を含む。
type TaskCountFilter struct {
	ProjectID   string
	AssigneeID  *string           // 指定時: assignee_id = *AssigneeID
	Status      *model.TaskStatus // 指定時: status = *Status
	StatusNot   *model.TaskStatus // 指定時: status != *StatusNot
	DueBefore   *time.Time        // 指定時: due_date IS NOT NULL AND due_date < *DueBefore
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// TaskListFilter はタスク一覧取得のフィルタ条件。
type TaskListFilter struct {
	WorkspaceID string
	ProjectID   string            // 空文字の場合は全プロジェクト
	Status      *model.TaskStatus // 指定時のみ絞り込み
	AssigneeID  *string           // 指定時のみ絞り込み
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// List はフィルタ条件に合致するタスクを作成日時降順で返す。
	List(ctx context.Context, filter TaskListFilter) ([]*model.Task, error)

	// Count はフィルタ条件に合致するタスク数を返す。
	// アナリティクス集計の10カウントはすべてこのメソッドで取得する。
	Count(ctx context.Context, filter TaskCountFilter) (int, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクの全可変フィールドを更新する。
	Update(ctx context.Context, task *model.Task) error

	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションの発行は外部認証システムが行い、本サービスは解決のみを行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れまたは未検出の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}
