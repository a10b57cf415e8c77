// Package member はワークスペースメンバーの管理ロジックを提供する。
package member

import (
	"context"
	"fmt"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
)

// MembershipGuard は認可ガードのインターフェース。authzパッケージのGuardが実装する。
type MembershipGuard interface {
	RequireMember(ctx context.Context, userID, workspaceID string) (*model.Member, error)
	RequireRole(ctx context.Context, userID, workspaceID string, role model.MemberRole) (*model.Member, error)
}

// Service はメンバー一覧・ロール変更・除名を提供する。
type Service struct {
	memberRepo repository.MemberRepository
	guard      MembershipGuard
}

// NewService はServiceを生成する。
func NewService(memberRepo repository.MemberRepository, guard MembershipGuard) *Service {
	return &Service{
		memberRepo: memberRepo,
		guard:      guard,
	}
}

// List はワークスペースの全メンバーを返す。メンバーであることを要求する。
func (s *Service) List(ctx context.Context, userID, workspaceID string) ([]*model.Member, error) {
	if _, err := s.guard.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return members, nil
}

// UpdateRole はメンバーのロールを変更する。adminロールを要求する。
// 最後のadminをmemberに降格することはできない。ワークスペースには
// 常に少なくとも1人のadminが存在する。
func (s *Service) UpdateRole(ctx context.Context, userID, memberID string, role model.MemberRole) (*model.Member, error) {
	target, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if target == nil {
		return nil, model.NewMemberNotFoundError(memberID)
	}

	if _, err := s.guard.RequireRole(ctx, userID, target.WorkspaceID, model.RoleAdmin); err != nil {
		return nil, err
	}

	if target.Role == model.RoleAdmin && role != model.RoleAdmin {
		lastAdmin, err := s.isLastAdmin(ctx, target.WorkspaceID)
		if err != nil {
			return nil, err
		}
		if lastAdmin {
			return nil, model.NewLastAdminError()
		}
	}

	if err := s.memberRepo.UpdateRole(ctx, memberID, role); err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	target.Role = role
	return target, nil
}

// Remove はメンバーをワークスペースから除名する。
// adminは任意のメンバーを除名でき、memberは自分自身のみ退出できる。
// 最後のadminを除名することはできない。
func (s *Service) Remove(ctx context.Context, userID, memberID string) error {
	target, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("メンバーの取得に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewMemberNotFoundError(memberID)
	}

	caller, err := s.guard.RequireMember(ctx, userID, target.WorkspaceID)
	if err != nil {
		return err
	}
	// 自分以外を除名できるのはadminのみ
	if caller.ID != target.ID && caller.Role != model.RoleAdmin {
		return model.NewForbiddenError(model.RoleAdmin)
	}

	if target.Role == model.RoleAdmin {
		lastAdmin, err := s.isLastAdmin(ctx, target.WorkspaceID)
		if err != nil {
			return err
		}
		if lastAdmin {
			return model.NewLastAdminError()
		}
	}

	if err := s.memberRepo.Delete(ctx, memberID); err != nil {
		return fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	return nil
}

// isLastAdmin はワークスペースのadminが1人以下かどうかを返す。
func (s *Service) isLastAdmin(ctx context.Context, workspaceID string) (bool, error) {
	count, err := s.memberRepo.CountAdminsByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return false, fmt.Errorf("admin数の取得に失敗しました: %w", err)
	}
	return count <= 1, nil
}
