package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
)

// --- モック ---

type mockProjectRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Project, error)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockProjectRepo) ListByWorkspaceID(ctx context.Context, workspaceID string) ([]*model.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) error { return nil }
func (m *mockProjectRepo) Update(ctx context.Context, project *model.Project) error { return nil }
func (m *mockProjectRepo) Delete(ctx context.Context, id string) error              { return nil }

// fakeTaskRepo はタスクをメモリ上に保持し、Countのフィルタ条件を
// 実際に評価する。集計述語がSQLと同じ意味で組まれているかを検証できる。
type fakeTaskRepo struct {
	tasks   []*model.Task
	countFn func(ctx context.Context, filter repository.TaskCountFilter) (int, error)
}

func (f *fakeTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) List(ctx context.Context, filter repository.TaskListFilter) ([]*model.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) Count(ctx context.Context, filter repository.TaskCountFilter) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	count := 0
	for _, task := range f.tasks {
		if task.ProjectID != filter.ProjectID {
			continue
		}
		if task.CreatedAt.Before(filter.CreatedFrom) || task.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		if filter.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.StatusNot != nil && task.Status == *filter.StatusNot {
			continue
		}
		if filter.DueBefore != nil && (task.DueDate == nil || !task.DueDate.Before(*filter.DueBefore)) {
			continue
		}
		count++
	}
	return count, nil
}
func (f *fakeTaskRepo) Create(ctx context.Context, task *model.Task) error { return nil }
func (f *fakeTaskRepo) Update(ctx context.Context, task *model.Task) error { return nil }
func (f *fakeTaskRepo) Delete(ctx context.Context, id string) error        { return nil }

type mockGuard struct {
	requireMemberFn func(ctx context.Context, userID, workspaceID string) (*model.Member, error)
}

func (m *mockGuard) RequireMember(ctx context.Context, userID, workspaceID string) (*model.Member, error) {
	return m.requireMemberFn(ctx, userID, workspaceID)
}

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func projectRepoWith(project *model.Project) *mockProjectRepo {
	return &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			if project != nil && project.ID == id {
				return project, nil
			}
			return nil, nil
		},
	}
}

func memberGuard(memberID string) *mockGuard {
	return &mockGuard{
		requireMemberFn: func(ctx context.Context, userID, workspaceID string) (*model.Member, error) {
			return &model.Member{ID: memberID, UserID: userID, WorkspaceID: workspaceID, Role: model.RoleMember}, nil
		},
	}
}

func ptr[T any](v T) *T { return &v }

// --- テスト ---

// TestService_ProjectAnalytics は月次集計の全10項目を検証する。
//
// 基準時刻は2026-08-28 12:00 UTC。今月(8月)に5件、先月(7月)に3件のタスクがある。
func TestService_ProjectAnalytics(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	aug := func(day int) time.Time { return time.Date(2026, 8, day, 10, 0, 0, 0, time.UTC) }
	jul := func(day int) time.Time { return time.Date(2026, 7, day, 10, 0, 0, 0, time.UTC) }

	tasks := []*model.Task{
		// 今月: 合計5、担当2 (m-1)、完了2、未完了3、期限切れ1
		{ID: "a1", ProjectID: "proj-1", Status: model.StatusDone, AssigneeID: ptr("m-1"), CreatedAt: aug(5)},
		{ID: "a2", ProjectID: "proj-1", Status: model.StatusDone, CreatedAt: aug(6)},
		{ID: "a3", ProjectID: "proj-1", Status: model.StatusTodo, AssigneeID: ptr("m-1"), DueDate: ptr(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)), CreatedAt: aug(10)},
		{ID: "a4", ProjectID: "proj-1", Status: model.StatusInProgress, DueDate: ptr(aug(20)), CreatedAt: aug(12)},
		{ID: "a5", ProjectID: "proj-1", Status: model.StatusBacklog, CreatedAt: aug(15)},
		// 先月: 合計3、担当1、完了1、未完了2、期限切れ1
		// j2の期限は8月1日。先月末時点では期限内だったが、判定カットオフは
		// 常にnowなので先月ウィンドウでも期限切れとして数える。
		{ID: "j1", ProjectID: "proj-1", Status: model.StatusDone, CreatedAt: jul(3)},
		{ID: "j2", ProjectID: "proj-1", Status: model.StatusTodo, AssigneeID: ptr("m-1"), DueDate: ptr(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)), CreatedAt: jul(10)},
		{ID: "j3", ProjectID: "proj-1", Status: model.StatusInReview, CreatedAt: jul(20)},
		// 範囲外: 6月作成と別プロジェクトは無視される
		{ID: "x1", ProjectID: "proj-1", Status: model.StatusTodo, CreatedAt: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "x2", ProjectID: "proj-2", Status: model.StatusTodo, CreatedAt: aug(10)},
	}

	project := &model.Project{ID: "proj-1", WorkspaceID: "ws-1", Name: "モバイルアプリ"}
	svc := NewService(projectRepoWith(project), &fakeTaskRepo{tasks: tasks}, memberGuard("m-1"), nil)

	got, err := svc.ProjectAnalytics(context.Background(), "user-1", "proj-1", now)
	if err != nil {
		t.Fatalf("ProjectAnalytics returned error: %v", err)
	}

	want := &Snapshot{
		TaskCount: 5, TaskDifference: 2,
		AssignedTaskCount: 2, AssignedTaskDifference: 1,
		CompletedTaskCount: 2, CompletedTaskDifference: 1,
		IncompletedTaskCount: 3, IncompletedTaskDifference: 1,
		OverdueTaskCount: 1, OverdueTaskDifference: 0,
	}
	if *got != *want {
		t.Errorf("snapshot = %+v, want %+v", got, want)
	}
}

// TestService_ProjectAnalytics_EmptyProject はタスクのないプロジェクトで
// 全項目が0になることを検証する。
func TestService_ProjectAnalytics_EmptyProject(t *testing.T) {
	project := &model.Project{ID: "proj-1", WorkspaceID: "ws-1"}
	svc := NewService(projectRepoWith(project), &fakeTaskRepo{}, memberGuard("m-1"), nil)

	got, err := svc.ProjectAnalytics(context.Background(), "user-1", "proj-1", time.Now())
	if err != nil {
		t.Fatalf("ProjectAnalytics returned error: %v", err)
	}
	if *got != (Snapshot{}) {
		t.Errorf("snapshot = %+v, want all zeros", got)
	}
}

// TestService_ProjectAnalytics_ProjectNotFound は存在しないプロジェクトの集計が
// PROJECT_NOT_FOUNDになることを検証する。
func TestService_ProjectAnalytics_ProjectNotFound(t *testing.T) {
	svc := NewService(projectRepoWith(nil), &fakeTaskRepo{}, memberGuard("m-1"), nil)

	_, err := svc.ProjectAnalytics(context.Background(), "user-1", "proj-x", time.Now())
	if code := apiErrorCode(err); code != model.ErrCodeProjectNotFound {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeProjectNotFound)
	}
}

// TestService_ProjectAnalytics_RequiresMembership は非メンバーによる集計が
// UNAUTHORIZEDになることを検証する。
func TestService_ProjectAnalytics_RequiresMembership(t *testing.T) {
	project := &model.Project{ID: "proj-1", WorkspaceID: "ws-1"}
	guard := &mockGuard{
		requireMemberFn: func(ctx context.Context, userID, workspaceID string) (*model.Member, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	svc := NewService(projectRepoWith(project), &fakeTaskRepo{}, guard, nil)

	_, err := svc.ProjectAnalytics(context.Background(), "outsider", "proj-1", time.Now())
	if code := apiErrorCode(err); code != model.ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeUnauthorized)
	}
}

// TestService_ProjectAnalytics_CountError はカウントクエリの失敗が
// エラーとして伝播することを検証する。
func TestService_ProjectAnalytics_CountError(t *testing.T) {
	countErr := errors.New("connection refused")
	taskRepo := &fakeTaskRepo{
		countFn: func(ctx context.Context, filter repository.TaskCountFilter) (int, error) {
			return 0, countErr
		},
	}
	project := &model.Project{ID: "proj-1", WorkspaceID: "ws-1"}
	svc := NewService(projectRepoWith(project), taskRepo, memberGuard("m-1"), nil)

	_, err := svc.ProjectAnalytics(context.Background(), "user-1", "proj-1", time.Now())
	if !errors.Is(err, countErr) {
		t.Errorf("expected wrapped count error, got %v", err)
	}
}

// TestMonthWindow は暦月ウィンドウの境界を検証する。
func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "月の途中",
			input:    time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 8, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:     "うるう年の2月",
			input:    time.Date(2028, 2, 15, 0, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2028, 2, 29, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:     "年またぎの1月",
			input:    time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := monthWindow(tt.input)
			if !got.from.Equal(tt.wantFrom) {
				t.Errorf("from = %v, want %v", got.from, tt.wantFrom)
			}
			if !got.to.Equal(tt.wantTo) {
				t.Errorf("to = %v, want %v", got.to, tt.wantTo)
			}
		})
	}
}

// TestMonthWindow_PreviousMonthFromMonthEnd は月末日を含む月の月初から
// 前月ウィンドウを正しく導出できることを検証する。
// 2026-03-31からの単純なAddDate(0,-1,0)は日付正規化で3月3日になるため、
// 月初を起点にしている。
func TestMonthWindow_PreviousMonthFromMonthEnd(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	thisMonth := monthWindow(now)
	lastMonth := monthWindow(thisMonth.from.AddDate(0, -1, 0))

	wantFrom := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 2, 28, 23, 59, 59, 999999999, time.UTC)
	if !lastMonth.from.Equal(wantFrom) || !lastMonth.to.Equal(wantTo) {
		t.Errorf("last month = [%v, %v], want [%v, %v]", lastMonth.from, lastMonth.to, wantFrom, wantTo)
	}
}

// TestSnapshot_FieldNames はレスポンスのフィールド名がAPI契約どおりで
// あることを検証する。incompletedは契約上の綴りであり、修正してはならない。
func TestSnapshot_FieldNames(t *testing.T) {
	raw, err := json.Marshal(&Snapshot{})
	if err != nil {
		t.Fatalf("marshalに失敗: %v", err)
	}

	wantKeys := []string{
		"taskCount", "taskDifference",
		"assignedTaskCount", "assignedTaskDifference",
		"completedTaskCount", "completedTaskDifference",
		"incompletedTaskCount", "incompletedTaskDifference",
		"overdueTaskCount", "overdueTaskDifference",
	}
	for _, key := range wantKeys {
		if !strings.Contains(string(raw), `"`+key+`"`) {
			t.Errorf("フィールド %q がレスポンスに含まれていない: %s", key, raw)
		}
	}
}
