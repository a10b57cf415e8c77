package model

import "time"

// MemberRole はワークスペース内でのメンバーの権限レベルを表す。
// admin と member の2段階固定で、カスタムロールは存在しない。
type MemberRole string

const (
	// RoleAdmin はワークスペースの全操作（更新・削除・招待コード再発行）を許可する。
	RoleAdmin MemberRole = "admin"
	// RoleMember は通常の読み書き操作を許可する。
	RoleMember MemberRole = "member"
)

// IsValid はロールが定義済みの値かを検証する。
func (r MemberRole) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member はユーザーとワークスペースを紐付けるジョインエンティティ。
// (WorkspaceID, UserID) の組はDBの一意制約によりちょうど1件に保たれる。
// すべての認可判定はこのレコードを介して行い、Workspace.OwnerUserIDの
// 直接比較は行わない（作成者は単に最初のadminメンバーである）。
type Member struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        MemberRole
	CreatedAt   time.Time
}
