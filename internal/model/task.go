package model

import "time"

// TaskStatus はタスクのワークフロー上の状態を表す。
// 並び順はワークフロー上の慣習にすぎず、数値的な大小関係は持たない。
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusDone       TaskStatus = "done"
)

// IsValid はステータスが定義済みの値かを検証する。
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Task はプロジェクト配下のタスクを表す。
// AssigneeIDはメンバーID（ユーザーIDではない）を指す。DueDateはnil可で、
// 期限なしタスクは期限切れ判定の対象外となる。
type Task struct {
	ID          string
	WorkspaceID string
	ProjectID   string
	AssigneeID  *string
	Name        string
	Description string
	Status      TaskStatus
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue はタスクが期限切れかを判定する。
// 期限切れ = 期限が設定されており、期限がnowより過去で、かつ未完了。
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}
