package model

import "time"

// Project はワークスペース配下のプロジェクトを表す。
// 認可スコープは所属ワークスペースそのものであり、プロジェクト単位の
// 権限は持たない。
type Project struct {
	ID          string
	WorkspaceID string
	Name        string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
