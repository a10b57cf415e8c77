package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/teamdeck/internal/model"
)

// newMockDB はsqlmockベースのスタブDB接続を生成する。
func newMockDB(t *testing.T) (*PostgresMemberRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open stub database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresMemberRepo(db), mock
}

// TestPostgresMemberRepo_FindByUserAndWorkspace はメンバー検索を検証する。
func TestPostgresMemberRepo_FindByUserAndWorkspace(t *testing.T) {
	repo, mock := newMockDB(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "workspace_id", "user_id", "role", "created_at"}).
		AddRow("member-1", "ws-1", "user-1", "admin", now)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM members WHERE user_id = $1 AND workspace_id = $2`)).
		WithArgs("user-1", "ws-1").
		WillReturnRows(rows)

	m, err := repo.FindByUserAndWorkspace(context.Background(), "user-1", "ws-1")
	if err != nil {
		t.Fatalf("FindByUserAndWorkspace returned error: %v", err)
	}
	if m == nil {
		t.Fatal("expected member, got nil")
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", m.Role, model.RoleAdmin)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresMemberRepo_FindByUserAndWorkspace_Absent は
// メンバー不在時にnil, nilが返ることを検証する。不在はエラーではない。
func TestPostgresMemberRepo_FindByUserAndWorkspace_Absent(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, workspace_id, user_id, role, created_at`).
		WithArgs("user-x", "ws-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "user_id", "role", "created_at"}))

	m, err := repo.FindByUserAndWorkspace(context.Background(), "user-x", "ws-1")
	if err != nil {
		t.Fatalf("expected nil error for absent member, got %v", err)
	}
	if m != nil {
		t.Errorf("expected nil member, got %+v", m)
	}
}

// TestPostgresMemberRepo_Create_UniqueViolation は(workspace_id, user_id)の
// 一意制約違反がErrDuplicateMemberに変換されることを検証する。
// 同時参加のレースで負けた側はこのエラーを受け取る。
func TestPostgresMemberRepo_Create_UniqueViolation(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO members`).
		WithArgs("member-2", "ws-1", "user-1", "member", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "members_workspace_user_key"})

	err := repo.Create(context.Background(), &model.Member{
		ID:          "member-2",
		WorkspaceID: "ws-1",
		UserID:      "user-1",
		Role:        model.RoleMember,
		CreatedAt:   time.Now(),
	})
	if !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("err = %v, want ErrDuplicateMember", err)
	}
}

// TestPostgresMemberRepo_Create は通常のメンバー作成を検証する。
func TestPostgresMemberRepo_Create(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO members`).
		WithArgs("member-3", "ws-1", "user-2", "member", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Member{
		ID:          "member-3",
		WorkspaceID: "ws-1",
		UserID:      "user-2",
		Role:        model.RoleMember,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresMemberRepo_CountAdminsByWorkspaceID はadmin数の取得を検証する。
func TestPostgresMemberRepo_CountAdminsByWorkspaceID(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM members`).
		WithArgs("ws-1", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountAdminsByWorkspaceID(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("CountAdminsByWorkspaceID returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
