package workspace

import (
	"context"
	"errors"
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

// ImageAdmitter は外部画像URLを検証し、埋め込み可能なdata URLに変換する
// インターフェース。imageパッケージのFetcherが実装する。
type ImageAdmitter interface {
	AdmitImageURL(ctx context.Context, rawURL string) (string, error)
}

// JoinOutcomeRecorder は参加プロトコルの結果を記録するインターフェース。
// metricsパッケージのCollectorが実装する。nilの場合は記録しない。
type JoinOutcomeRecorder interface {
	RecordJoinOutcome(outcome string)
}

// 参加プロトコル結果のラベル値。
const (
	JoinOutcomeJoined        = "joined"
	JoinOutcomeAlreadyMember = "already_member"
	JoinOutcomeInvalidCode   = "invalid_code"
)

// Service はワークスペースのライフサイクルと参加プロトコルを提供する。
type Service struct {
	workspaceRepo repository.WorkspaceRepository
	memberRepo    repository.MemberRepository
	guard         MembershipGuard
	imageAdmitter ImageAdmitter
	joinRecorder  JoinOutcomeRecorder
}

// NewService はServiceを生成する。imageAdmitterとjoinRecorderはnilでもよい。
func NewService(
	workspaceRepo repository.WorkspaceRepository,
	memberRepo repository.MemberRepository,
	guard MembershipGuard,
	imageAdmitter ImageAdmitter,
	joinRecorder JoinOutcomeRecorder,
) *Service {
	return &Service{
		workspaceRepo: workspaceRepo,
		memberRepo:    memberRepo,
		guard:         guard,
		imageAdmitter: imageAdmitter,
		joinRecorder:  joinRecorder,
	}
}

// Create はワークスペースを作成し、作成者をadminメンバーとして登録する。
// ワークスペースとメンバーは同一トランザクションで作成され、メンバーを持たない
// ワークスペースは存在しない。
func (s *Service) Create(ctx context.Context, userID, name, imageURL string) (*model.Workspace, error) {
	image, err := s.admitImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	inviteCode, err := GenerateInviteCode(InviteCodeLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ws := &model.Workspace{
		ID:          uuid.New().String(),
		Name:        name,
		OwnerUserID: userID,
		ImageURL:    image,
		InviteCode:  inviteCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	member := &model.Member{
		ID:          uuid.New().String(),
		WorkspaceID: ws.ID,
		UserID:      userID,
		Role:        model.RoleAdmin,
		CreatedAt:   now,
	}

	if err := s.workspaceRepo.CreateWithAdminMember(ctx, ws, member); err != nil {
		return nil, fmt.Errorf("ワークスペースの作成に失敗しました: %w", err)
	}
	return ws, nil
}

// List はユーザーが所属する全ワークスペースを返す。
// 所属していないワークスペースは一覧に現れない。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークスペース一覧の取得に失敗しました: %w", err)
	}
	return workspaces, nil
}

// Get はワークスペースを取得する。メンバーであることを要求する。
func (s *Service) Get(ctx context.Context, userID, workspaceID string) (*model.Workspace, error) {
	if _, err := s.guard.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの取得に失敗しました: %w", err)
	}
	if ws == nil {
		return nil, model.NewWorkspaceNotFoundError(workspaceID)
	}
	return ws, nil
}

// Update はワークスペースの名前と画像を更新する。adminロールを要求する。
// nameとimageURLはnilの場合更新しない。imageURLに空文字を渡すと画像を削除する。
func (s *Service) Update(ctx context.Context, userID, workspaceID string, name, imageURL *string) (*model.Workspace, error) {
	if _, err := s.guard.RequireRole(ctx, userID, workspaceID, model.RoleAdmin); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの取得に失敗しました: %w", err)
	}
	if ws == nil {
		return nil, model.NewWorkspaceNotFoundError(workspaceID)
	}

	if name != nil {
		ws.Name = *name
	}
	if imageURL != nil {
		image, err := s.admitImage(ctx, *imageURL)
		if err != nil {
			return nil, err
		}
		ws.ImageURL = image
	}
	ws.UpdatedAt = time.Now()

	if err := s.workspaceRepo.Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("ワークスペースの更新に失敗しました: %w", err)
	}
	return ws, nil
}

// Delete はワークスペースを削除する。adminロールを要求する。
// 配下のメンバー・プロジェクト・タスクもすべて削除される。
func (s *Service) Delete(ctx context.Context, userID, workspaceID string) error {
	if _, err := s.guard.RequireRole(ctx, userID, workspaceID, model.RoleAdmin); err != nil {
		return err
	}
	if err := s.workspaceRepo.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("ワークスペースの削除に失敗しました: %w", err)
	}
	return nil
}

// ResetInviteCode は招待コードを新しいコードに置き換える。adminロールを要求する。
// 置き換えた瞬間から旧コードでの参加はすべて失敗する。
func (s *Service) ResetInviteCode(ctx context.Context, userID, workspaceID string) (*model.Workspace, error) {
	if _, err := s.guard.RequireRole(ctx, userID, workspaceID, model.RoleAdmin); err != nil {
		return nil, err
	}
	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの取得に失敗しました: %w", err)
	}
	if ws == nil {
		return nil, model.NewWorkspaceNotFoundError(workspaceID)
	}

	newCode, err := GenerateInviteCode(InviteCodeLength)
	if err != nil {
		return nil, err
	}
	if err := s.workspaceRepo.UpdateInviteCode(ctx, workspaceID, newCode); err != nil {
		return nil, fmt.Errorf("招待コードの更新に失敗しました: %w", err)
	}
	ws.InviteCode = newCode
	return ws, nil
}

// Join は招待コードによるワークスペース参加を処理する。
//
// 判定は次の順で行う:
//  1. 既にメンバーの場合はALREADY_MEMBER。コードの正誤は判定しない。
//  2. ワークスペースが存在しない場合はWORKSPACE_NOT_FOUND。
//  3. 招待コードが現在のコードと完全一致しない場合はINVALID_INVITE_CODE。
//  4. role=memberでメンバーを作成する。同時参加によりDBの一意制約に
//     当たった場合もALREADY_MEMBERとして扱う。
//
// 同一ユーザーが何度参加を試みても、メンバーレコードは高々1つしか作られない。
func (s *Service) Join(ctx context.Context, userID, workspaceID, inviteCode string) (*model.Workspace, error) {
	existing, err := s.memberRepo.FindByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("メンバーシップの確認に失敗しました: %w", err)
	}
	if existing != nil {
		s.recordJoin(JoinOutcomeAlreadyMember)
		return nil, model.NewAlreadyMemberError()
	}

	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("ワークスペースの取得に失敗しました: %w", err)
	}
	if ws == nil {
		return nil, model.NewWorkspaceNotFoundError(workspaceID)
	}

	// 大文字小文字を区別した完全一致。正規化は一切行わない。
	if inviteCode != ws.InviteCode {
		s.recordJoin(JoinOutcomeInvalidCode)
		return nil, model.NewInvalidInviteCodeError()
	}

	member := &model.Member{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        model.RoleMember,
		CreatedAt:   time.Now(),
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicateMember) {
			s.recordJoin(JoinOutcomeAlreadyMember)
			return nil, model.NewAlreadyMemberError()
		}
		return nil, fmt.Errorf("メンバーの作成に失敗しました: %w", err)
	}

	s.recordJoin(JoinOutcomeJoined)
	return ws, nil
}

// admitImage は画像URLを検証してdata URLに変換する。空文字はそのまま通す。
func (s *Service) admitImage(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" || s.imageAdmitter == nil {
		return rawURL, nil
	}
	return s.imageAdmitter.AdmitImageURL(ctx, rawURL)
}

// recordJoin は参加結果を記録する。
func (s *Service) recordJoin(outcome string) {
	if s.joinRecorder != nil {
		s.joinRecorder.RecordJoinOutcome(outcome)
	}
}
