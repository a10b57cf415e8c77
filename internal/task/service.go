// Package task はタスク管理のドメインロジックを提供する。
package task

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
}

// DescriptionSanitizer はタスク説明文のHTMLサニタイズを行うインターフェース。
// securityパッケージのContentSanitizerServiceが実装する。
type DescriptionSanitizer interface {
	Sanitize(rawHTML string) string
}

// CreateInput はタスク作成の入力。
type CreateInput struct {
	WorkspaceID string
	ProjectID   string
	AssigneeID  *string
	Name        string
	Description string
	Status      model.TaskStatus
	DueDate     *time.Time
}

// UpdateInput はタスク更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name          *string
	Description   *string
	Status        *model.TaskStatus
	AssigneeID    *string
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// Service はタスクのCRUDを提供する。すべての操作はワークスペースの
// メンバーであることを要求する。
type Service struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	memberRepo  repository.MemberRepository
	guard       MembershipGuard
	sanitizer   DescriptionSanitizer
}

// NewService はServiceを生成する。sanitizerはnilでもよい。
func NewService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	memberRepo repository.MemberRepository,
	guard MembershipGuard,
	sanitizer DescriptionSanitizer,
) *Service {
	return &Service{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		guard:       guard,
		sanitizer:   sanitizer,
	}
}

// Create はタスクを作成する。
// ステータスは定義済みの値のみ受理する。担当者を指定する場合、担当者は
// 同じワークスペースのメンバーでなければならない。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Task, error) {
	if _, err := s.guard.RequireMember(ctx, userID, input.WorkspaceID); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, model.NewInvalidTaskStatusError(string(input.Status))
	}
	if err := s.validateProject(ctx, input.ProjectID, input.WorkspaceID); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(ctx, input.AssigneeID, input.WorkspaceID); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		WorkspaceID: input.WorkspaceID,
		ProjectID:   input.ProjectID,
		AssigneeID:  input.AssigneeID,
		Name:        input.Name,
		Description: s.sanitize(input.Description),
		Status:      input.Status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return task, nil
}

// List はフィルタ条件に合致するタスクを返す。
func (s *Service) List(ctx context.Context, userID string, filter repository.TaskListFilter) ([]*model.Task, error) {
	if _, err := s.guard.RequireMember(ctx, userID, filter.WorkspaceID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get はタスクを取得する。
func (s *Service) Get(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, userID, task.WorkspaceID); err != nil {
		return nil, err
	}
	return task, nil
}

// Update はタスクを更新する。nilのフィールドは変更しない。
// ClearAssignee/ClearDueDateで担当者・期限を未設定に戻せる。
func (s *Service) Update(ctx context.Context, userID, taskID string, input UpdateInput) (*model.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireMember(ctx, userID, task.WorkspaceID); err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, model.NewInvalidTaskStatusError(string(*input.Status))
		}
		task.Status = *input.Status
	}
	if input.Name != nil {
		task.Name = *input.Name
	}
	if input.Description != nil {
		task.Description = s.sanitize(*input.Description)
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		if err := s.validateAssignee(ctx, input.AssigneeID, task.WorkspaceID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	return task, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.guard.RequireMember(ctx, userID, task.WorkspaceID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	return nil
}

// findTask はタスクを取得する。不在の場合はTASK_NOT_FOUNDを返す。
func (s *Service) findTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// validateProject はプロジェクトが存在し、指定ワークスペースに属することを検証する。
func (s *Service) validateProject(ctx context.Context, projectID, workspaceID string) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil || project.WorkspaceID != workspaceID {
		return model.NewProjectNotFoundError(projectID)
	}
	return nil
}

// validateAssignee は担当者がワークスペースのメンバーであることを検証する。
// assigneeIDはメンバーID。nilの場合は未割り当てとして受理する。
func (s *Service) validateAssignee(ctx context.Context, assigneeID *string, workspaceID string) error {
	if assigneeID == nil {
		return nil
	}
	member, err := s.memberRepo.FindByID(ctx, *assigneeID)
	if err != nil {
		return fmt.Errorf("担当者の取得に失敗しました: %w", err)
	}
	if member == nil || member.WorkspaceID != workspaceID {
		return model.NewMemberNotFoundError(*assigneeID)
	}
	return nil
}

// sanitize は説明文をサニタイズする。
func (s *Service) sanitize(description string) string {
	if s.sanitizer == nil {
		return description
	}
	return s.sanitizer.Sanitize(description)
}
