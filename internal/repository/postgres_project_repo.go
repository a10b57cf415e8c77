package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamdeck/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, COALESCE(image_url, ''), created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}

	return p, nil
}

// ListByWorkspaceID はワークスペースの全プロジェクトを作成日時降順で返す。
func (r *PostgresProjectRepo) ListByWorkspaceID(ctx context.Context, workspaceID string) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, COALESCE(image_url, ''), created_at, updated_at
		 FROM projects WHERE workspace_id = $1 ORDER BY created_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("プロジェクト行の読み取りに失敗しました: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, workspace_id, name, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		project.ID, project.WorkspaceID, project.Name, project.ImageURL, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプロジェクトの名前と画像URLを更新する。
func (r *PostgresProjectRepo) Update(ctx context.Context, project *model.Project) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = $2, image_url = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
		project.ID, project.Name, project.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プロジェクトが見つかりません: %s", project.ID)
	}
	return nil
}

// Delete は指定IDのプロジェクトを削除する。配下のタスクはカスケード削除される。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("プロジェクトが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
