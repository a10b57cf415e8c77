package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/teamdeck/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// taskColumns はtasksテーブルのSELECT列リスト。
const taskColumns = `id, workspace_id, project_id, assignee_id, name, COALESCE(description, ''), status, due_date, created_at, updated_at`

// scanTask は1行分のタスクを読み取る。
func scanTask(scan func(dest ...any) error) (*model.Task, error) {
	t := &model.Task{}
	var assigneeID sql.NullString
	var dueDate sql.NullTime
	if err := scan(&t.ID, &t.WorkspaceID, &t.ProjectID, &assigneeID, &t.Name, &t.Description, &t.Status, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.String
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	return t, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return t, nil
}

// List はフィルタ条件に合致するタスクを作成日時降順で返す。
func (r *PostgresTaskRepo) List(ctx context.Context, filter TaskListFilter) ([]*model.Task, error) {
	conds := []string{"workspace_id = $1"}
	args := []any{filter.WorkspaceID}

	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		conds = append(conds, fmt.Sprintf("assignee_id = $%d", len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// Count はフィルタ条件に合致するタスク数を返す。
// created_atの範囲は両端を含む。DueBeforeはdue_dateが設定済みのタスクのみ対象。
func (r *PostgresTaskRepo) Count(ctx context.Context, filter TaskCountFilter) (int, error) {
	conds := []string{"project_id = $1", "created_at >= $2", "created_at <= $3"}
	args := []any{filter.ProjectID, filter.CreatedFrom, filter.CreatedTo}

	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		conds = append(conds, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StatusNot != nil {
		args = append(args, *filter.StatusNot)
		conds = append(conds, fmt.Sprintf("status <> $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		conds = append(conds, fmt.Sprintf("due_date IS NOT NULL AND due_date < $%d", len(args)))
	}

	query := `SELECT COUNT(*) FROM tasks WHERE ` + strings.Join(conds, " AND ")

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("タスク数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, workspace_id, project_id, assignee_id, name, description, status, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`,
		task.ID, task.WorkspaceID, task.ProjectID, task.AssigneeID, task.Name, task.Description, task.Status, task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はタスクの全可変フィールドを更新する。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET assignee_id = $2, name = $3, description = NULLIF($4, ''), status = $5, due_date = $6, updated_at = NOW()
		 WHERE id = $1`,
		task.ID, task.AssigneeID, task.Name, task.Description, task.Status, task.DueDate,
	)
	if err != nil {
		return fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("タスクが見つかりません: %s", task.ID)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("タスクが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
