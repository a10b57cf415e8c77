// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
)

// MembershipGuard は認可ガードのインターフェース。authzパッケージのGuardが実装する。
type MembershipGuard interface {
	RequireMember(ctx context.Context, userID, workspaceID string) (*model.Member, error)
	RequireRole(ctx context.Context, userID, workspaceID string, role model.MemberRole) (*model.Member, error)
}

// ImageAdmitter は外部画像URLを検証しdata URLに変換するインターフェース。
// imageパッケージのFetcherが実装する。
type ImageAdmitter interface {
	AdmitImageURL(ctx context.Context, rawURL string) (string, error)
}

// Service はプロジェクトのCRUDを提供する。すべての操作はワークスペースの
// メンバーであることを要求する。
type Service struct {
	projectRepo   repository.ProjectRepository
	guard         MembershipGuard
	imageAdmitter ImageAdmitter
}

// NewService はServiceを生成する。imageAdmitterはnilでもよい。
func NewService(projectRepo repository.ProjectRepository, guard MembershipGuard, imageAdmitter ImageAdmitter) *Service {
	return &Service{
		projectRepo:   projectRepo,
		guard:         guard,
		imageAdmitter: imageAdmitter,
	}
}

// Create はワークスペース配下にプロジェクトを作成する。
func (s *Service) Create(ctx context.Context, userID, workspaceID, name, imageURL string) (*model.Project, error) {
	if _, err := s.guard.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}

	image, err := s.admitImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	project := &model.Project{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		ImageURL:    image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return project, nil
}

// List はワークスペースの全プロジェクトを返す。
func (s *Service) List(ctx context.Context, userID, workspaceID string) ([]*model.Project, error) {
	if _, err := s.guard.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.ListByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// Get はプロジェクトを取得する。プロジェクトが属するワークスペースの
// メンバーであることを要求する。
func (s *Service) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, userID, project.WorkspaceID); err != nil {
		return nil, err
	}
	return project, nil
}

// Update はプロジェクトの名前と画像を更新する。
// nameとimageURLはnilの場合更新しない。imageURLに空文字を渡すと画像を削除する。
func (s *Service) Update(ctx context.Context, userID, projectID string, name, imageURL *string) (*model.Project, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, userID, project.WorkspaceID); err != nil {
		return nil, err
	}

	if name != nil {
		project.Name = *name
	}
	if imageURL != nil {
		image, err := s.admitImage(ctx, *imageURL)
		if err != nil {
			return nil, err
		}
		project.ImageURL = image
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return project, nil
}

// Delete はプロジェクトを削除する。配下のタスクもすべて削除される。
func (s *Service) Delete(ctx context.Context, userID, projectID string) error {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return err
	}
	if _, err := s.guard.RequireMember(ctx, userID, project.WorkspaceID); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	return nil
}

// findProject はプロジェクトを取得する。不在の場合はPROJECT_NOT_FOUNDを返す。
func (s *Service) findProject(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}
	return project, nil
}

// admitImage は画像URLを検証してdata URLに変換する。空文字はそのまま通す。
func (s *Service) admitImage(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" || s.imageAdmitter == nil {
		return rawURL, nil
	}
	return s.imageAdmitter.AdmitImageURL(ctx, rawURL)
}
