// Package model はドメインモデルを定義する。
package model

import "time"

// Workspace はプロジェクトとメンバーを束ねるトップレベルのテナントを表す。
// InviteCodeは参加用の秘密コードで、管理者がいつでもローテーションできる。
type Workspace struct {
	ID          string
	Name        string
	OwnerUserID string
	ImageURL    string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session は外部認証システムが発行するログインセッションを表す。
// 本サービスは認証を行わず、セッションの解決のみを行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
