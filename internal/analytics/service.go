// Package analytics はプロジェクトの月次アクティビティ集計を提供する。
//
// 今月と先月の2つの暦月ウィンドウについて、5種類の述語でタスクを数え、
// 今月の値と前月比を返す。集計は常にDBへの問い合わせで行い、
// 事前計算やキャッシュは持たない。
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
)

// MembershipGuard は認可ガードのインターフェース。authzパッケージのGuardが実装する。
type MembershipGuard interface {
	RequireMember(ctx context.Context, userID, workspaceID string) (*model.Member, error)
}

// LatencyRecorder は集計処理の所要時間を記録するインターフェース。
// metricsパッケージのCollectorが実装する。nilの場合は記録しない。
type LatencyRecorder interface {
	ObserveAnalyticsDuration(seconds float64)
}

// Snapshot はプロジェクトの月次集計結果。
// Countは今月作成されたタスクの数、Differenceは今月と先月の差（今月 - 先月）。
type Snapshot struct {
	TaskCount                 int `json:"taskCount"`
	TaskDifference            int `json:"taskDifference"`
	AssignedTaskCount         int `json:"assignedTaskCount"`
	AssignedTaskDifference    int `json:"assignedTaskDifference"`
	CompletedTaskCount        int `json:"completedTaskCount"`
	CompletedTaskDifference   int `json:"completedTaskDifference"`
	IncompletedTaskCount      int `json:"incompletedTaskCount"`
	IncompletedTaskDifference int `json:"incompletedTaskDifference"`
	OverdueTaskCount          int `json:"overdueTaskCount"`
	OverdueTaskDifference     int `json:"overdueTaskDifference"`
}

// Service はプロジェクトアナリティクスを提供する。
type Service struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	guard       MembershipGuard
	recorder    LatencyRecorder
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	guard MembershipGuard,
	recorder LatencyRecorder,
) *Service {
	return &Service{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		guard:       guard,
		recorder:    recorder,
	}
}

// ProjectAnalytics はプロジェクトの月次集計を返す。
// 呼び出しユーザーはプロジェクトが属するワークスペースのメンバーで
// なければならない。担当タスク数は呼び出しユーザー自身のメンバーIDで数える。
//
// nowは集計の基準時刻。月ウィンドウの決定と期限切れ判定の両方に使う。
// 期限切れ判定のカットオフは今月・先月どちらのウィンドウでも常にnowであり、
// 「先月末時点で期限切れだったか」ではなく「now時点で期限切れか」を数える。
func (s *Service) ProjectAnalytics(ctx context.Context, userID, projectID string, now time.Time) (*Snapshot, error) {
	start := time.Now()
	defer func() {
		if s.recorder != nil {
			s.recorder.ObserveAnalyticsDuration(time.Since(start).Seconds())
		}
	}()

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	member, err := s.guard.RequireMember(ctx, userID, project.WorkspaceID)
	if err != nil {
		return nil, err
	}

	// 月末日からのAddDateは日付正規化で月をまたぐため、月初を起点に前月を求める
	thisMonth := monthWindow(now)
	lastMonth := monthWindow(thisMonth.from.AddDate(0, -1, 0))

	done := model.StatusDone
	cutoff := now

	type predicate struct {
		dest   *int
		filter repository.TaskCountFilter
	}

	snapshot := &Snapshot{}
	var thisTotal, lastTotal, thisAssigned, lastAssigned int
	var thisCompleted, lastCompleted, thisIncomplete, lastIncomplete int
	var thisOverdue, lastOverdue int

	predicates := make([]predicate, 0, 10)
	for _, window := range []struct {
		window     timeWindow
		total      *int
		assigned   *int
		completed  *int
		incomplete *int
		overdue    *int
	}{
		{thisMonth, &thisTotal, &thisAssigned, &thisCompleted, &thisIncomplete, &thisOverdue},
		{lastMonth, &lastTotal, &lastAssigned, &lastCompleted, &lastIncomplete, &lastOverdue},
	} {
		base := repository.TaskCountFilter{
			ProjectID:   projectID,
			CreatedFrom: window.window.from,
			CreatedTo:   window.window.to,
		}

		all := base
		predicates = append(predicates, predicate{window.total, all})

		assigned := base
		assigned.AssigneeID = &member.ID
		predicates = append(predicates, predicate{window.assigned, assigned})

		completed := base
		completed.Status = &done
		predicates = append(predicates, predicate{window.completed, completed})

		incomplete := base
		incomplete.StatusNot = &done
		predicates = append(predicates, predicate{window.incomplete, incomplete})

		overdue := base
		overdue.StatusNot = &done
		overdue.DueBefore = &cutoff
		predicates = append(predicates, predicate{window.overdue, overdue})
	}

	// 10個のカウントクエリを並行実行する。最初のエラーのみ報告する。
	var wg sync.WaitGroup
	errs := make([]error, len(predicates))
	for i, p := range predicates {
		wg.Add(1)
		go func(i int, p predicate) {
			defer wg.Done()
			count, err := s.taskRepo.Count(ctx, p.filter)
			if err != nil {
				errs[i] = err
				return
			}
			*p.dest = count
		}(i, p)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("タスク集計に失敗しました: %w", err)
		}
	}

	snapshot.TaskCount = thisTotal
	snapshot.TaskDifference = thisTotal - lastTotal
	snapshot.AssignedTaskCount = thisAssigned
	snapshot.AssignedTaskDifference = thisAssigned - lastAssigned
	snapshot.CompletedTaskCount = thisCompleted
	snapshot.CompletedTaskDifference = thisCompleted - lastCompleted
	snapshot.IncompletedTaskCount = thisIncomplete
	snapshot.IncompletedTaskDifference = thisIncomplete - lastIncomplete
	snapshot.OverdueTaskCount = thisOverdue
	snapshot.OverdueTaskDifference = thisOverdue - lastOverdue
	return snapshot, nil
}

// timeWindow は両端を含む時刻範囲。
type timeWindow struct {
	from time.Time
	to   time.Time
}

// monthWindow はtを含む暦月のウィンドウを返す。
// fromは月初の00:00:00、toは月末日の最終ナノ秒。
func monthWindow(t time.Time) timeWindow {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return timeWindow{from: from, to: to}
}
