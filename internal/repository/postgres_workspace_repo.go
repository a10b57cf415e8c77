package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamdeck/internal/model"
)

// PostgresWorkspaceRepo はPostgreSQLを使用したワークスペースリポジトリ。
type PostgresWorkspaceRepo struct {
	db *sql.DB
}

// NewPostgresWorkspaceRepo はPostgresWorkspaceRepoを生成する。
func NewPostgresWorkspaceRepo(db *sql.DB) *PostgresWorkspaceRepo {
	return &PostgresWorkspaceRepo{db: db}
}

// FindByID は指定IDのワークスペースを取得する。見つからない場合はnilを返す。
func (r *PostgresWorkspaceRepo) FindByID(ctx context.Context, id string) (*model.Workspace, error) {
	ws := &model.Workspace{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_user_id, COALESCE(image_url, ''), invite_code, created_at, updated_at
		 FROM workspaces WHERE id = $1`,
		id,
	).Scan(&ws.ID, &ws.Name, &ws.OwnerUserID, &ws.ImageURL, &ws.InviteCode, &ws.CreatedAt, &ws.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの取得に失敗しました: %w", err)
	}

	return ws, nil
}

// ListByUserID はユーザーがメンバーとして所属する全ワークスペースを
// 作成日時降順で返す。
func (r *PostgresWorkspaceRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.name, w.owner_user_id, COALESCE(w.image_url, ''), w.invite_code, w.created_at, w.updated_at
		 FROM workspaces w
		 JOIN members m ON m.workspace_id = w.id
		 WHERE m.user_id = $1
		 ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ワークスペース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var workspaces []*model.Workspace
	for rows.Next() {
		ws := &model.Workspace{}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.OwnerUserID, &ws.ImageURL, &ws.InviteCode, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ワークスペース行の読み取りに失敗しました: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ワークスペース一覧の走査に失敗しました: %w", err)
	}
	return workspaces, nil
}

// CreateWithAdminMember はワークスペースと作成者のadminメンバーを
// 同一トランザクションで作成する。どちらかが失敗した場合は両方ロールバックされる。
func (r *PostgresWorkspaceRepo) CreateWithAdminMember(ctx context.Context, ws *model.Workspace, member *model.Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, owner_user_id, image_url, invite_code, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		ws.ID, ws.Name, ws.OwnerUserID, ws.ImageURL, ws.InviteCode, ws.CreatedAt, ws.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ワークスペースの作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO members (id, workspace_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.WorkspaceID, member.UserID, member.Role, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("作成者メンバーの作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update はワークスペースの名前と画像URLを更新する。
func (r *PostgresWorkspaceRepo) Update(ctx context.Context, ws *model.Workspace) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET name = $2, image_url = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
		ws.ID, ws.Name, ws.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("ワークスペースの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ワークスペースが見つかりません: %s", ws.ID)
	}
	return nil
}

// UpdateInviteCode は招待コードを置き換える。
func (r *PostgresWorkspaceRepo) UpdateInviteCode(ctx context.Context, id, inviteCode string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET invite_code = $2, updated_at = NOW() WHERE id = $1`,
		id, inviteCode,
	)
	if err != nil {
		return fmt.Errorf("招待コードの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ワークスペースが見つかりません: %s", id)
	}
	return nil
}

// Delete は指定IDのワークスペースを削除する。
// members, projects, tasksはON DELETE CASCADEにより同時に削除される。
func (r *PostgresWorkspaceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workspaces WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ワークスペースの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ワークスペースが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ WorkspaceRepository = (*PostgresWorkspaceRepo)(nil)
