// Package authz はワークスペース単位の認可ガードを提供する。
//
// すべてのリソース操作はリソース本体に触れる前にこのガードを通過する。
// 判定はリクエストごとにメンバーシップレコードから導出し、キャッシュしない。
// そのためロール変更やメンバー削除は次のリクエストから即座に反映され、
// 権限が古いまま残る時間窓は存在しない。
package authz

import (
	"context"
	"fmt"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
)

// OutcomeRecorder は認可判定の結果を記録するインターフェース。
// metricsパッケージのCollectorが実装する。nilの場合は記録しない。
type OutcomeRecorder interface {
	RecordAuthzOutcome(outcome string)
}

// 認可判定結果のラベル値。
const (
	OutcomeAllowed      = "allowed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
)

// Guard はメンバーシップディレクトリを合成した再利用可能なアクセスチェック。
// 各リソースハンドラーはメンバーシップ判定を自前で行わず、必ずGuardに委譲する。
type Guard struct {
	memberRepo repository.MemberRepository
	recorder   OutcomeRecorder
}

// NewGuard はGuardを生成する。recorderはnilでもよい。
func NewGuard(memberRepo repository.MemberRepository, recorder OutcomeRecorder) *Guard {
	return &Guard{
		memberRepo: memberRepo,
		recorder:   recorder,
	}
}

// RequireMember はユーザーがワークスペースのメンバーであることを要求する。
// メンバーでない場合はUNAUTHORIZEDのAPIErrorを返す。
// 成功時は解決済みのメンバーを返し、呼び出し側はそのIDやロールを利用できる。
func (g *Guard) RequireMember(ctx context.Context, userID, workspaceID string) (*model.Member, error) {
	member, err := g.memberRepo.FindByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("メンバーシップの解決に失敗しました: %w", err)
	}
	if member == nil {
		g.record(OutcomeUnauthorized)
		return nil, model.NewUnauthorizedError()
	}
	g.record(OutcomeAllowed)
	return member, nil
}

// RequireRole はメンバーであることに加えて指定ロールを要求する。
// メンバーでない場合はUNAUTHORIZED、ロール不足の場合はFORBIDDENを返す。
// 両者は呼び出し側が異なるユーザー向けメッセージを出せるよう区別される。
func (g *Guard) RequireRole(ctx context.Context, userID, workspaceID string, role model.MemberRole) (*model.Member, error) {
	member, err := g.RequireMember(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if member.Role != role {
		g.record(OutcomeForbidden)
		return nil, model.NewForbiddenError(role)
	}
	return member, nil
}

// record は判定結果を記録する。
func (g *Guard) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthzOutcome(outcome)
	}
}
