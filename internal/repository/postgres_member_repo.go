package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/teamdeck/internal/model"
)

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// PostgresMemberRepo はPostgreSQLを使用したメンバーシップリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindByID は指定IDのメンバーを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	m := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM members WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}

	return m, nil
}

// FindByUserAndWorkspace はユーザーIDとワークスペースIDでメンバーを検索する。
// 見つからない場合はnilを返す（メンバーの不在は失敗ではなく想定内の結果）。
func (r *PostgresMemberRepo) FindByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*model.Member, error) {
	m := &model.Member{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM members WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	).Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーとワークスペースによるメンバーの検索に失敗しました: %w", err)
	}

	return m, nil
}

// ListByWorkspaceID はワークスペースの全メンバーを参加日時昇順で返す。
func (r *PostgresMemberRepo) ListByWorkspaceID(ctx context.Context, workspaceID string) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM members WHERE workspace_id = $1 ORDER BY created_at ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		m := &model.Member{}
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("メンバー行の読み取りに失敗しました: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メンバー一覧の走査に失敗しました: %w", err)
	}
	return members, nil
}

// CountAdminsByWorkspaceID はワークスペースのadminメンバー数を返す。
func (r *PostgresMemberRepo) CountAdminsByWorkspaceID(ctx context.Context, workspaceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE workspace_id = $1 AND role = $2`,
		workspaceID, model.RoleAdmin,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("admin数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create はメンバーを作成する。
// (workspace_id, user_id)の一意制約に違反した場合はErrDuplicateMemberを返す。
// 同時参加のレースはDBのインデックスで直列化されるため、アプリ側のロックは不要。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, workspace_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.WorkspaceID, member.UserID, member.Role, member.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateMember
		}
		return fmt.Errorf("メンバーの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateRole はメンバーのロールを更新する。
func (r *PostgresMemberRepo) UpdateRole(ctx context.Context, id string, role model.MemberRole) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE members SET role = $2 WHERE id = $1`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("メンバーが見つかりません: %s", id)
	}
	return nil
}

// Delete は指定IDのメンバーを削除する。
func (r *PostgresMemberRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM members WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("メンバーが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
