package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/analytics"
	"github.com/hitoshi/teamdeck/internal/model"
)

// mockProjectService はProjectServiceInterfaceのモック。
type mockProjectService struct {
	createFn func(ctx context.Context, userID, workspaceID, name, imageURL string) (*model.Project, error)
	listFn   func(ctx context.Context, userID, workspaceID string) ([]*model.Project, error)
	getFn    func(ctx context.Context, userID, projectID string) (*model.Project, error)
	updateFn func(ctx context.Context, userID, projectID string, name, imageURL *string) (*model.Project, error)
	deleteFn func(ctx context.Context, userID, projectID string) error
}

func (m *mockProjectService) Create(ctx context.Context, userID, workspaceID, name, imageURL string) (*model.Project, error) {
	return m.createFn(ctx, userID, workspaceID, name, imageURL)
}

func (m *mockProjectService) List(ctx context.Context, userID, workspaceID string) ([]*model.Project, error) {
	return m.listFn(ctx, userID, workspaceID)
}

func (m *mockProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	return m.getFn(ctx, userID, projectID)
}

func (m *mockProjectService) Update(ctx context.Context, userID, projectID string, name, imageURL *string) (*model.Project, error) {
	return m.updateFn(ctx, userID, projectID, name, imageURL)
}

func (m *mockProjectService) Delete(ctx context.Context, userID, projectID string) error {
	return m.deleteFn(ctx, userID, projectID)
}

// mockAnalyticsService はAnalyticsServiceInterfaceのモック。
type mockAnalyticsService struct {
	projectAnalyticsFn func(ctx context.Context, userID, projectID string, now time.Time) (*analytics.Snapshot, error)
}

func (m *mockAnalyticsService) ProjectAnalytics(ctx context.Context, userID, projectID string, now time.Time) (*analytics.Snapshot, error) {
	return m.projectAnalyticsFn(ctx, userID, projectID, now)
}

func testProject(id string) *model.Project {
	return &model.Project{
		ID:          id,
		WorkspaceID: "ws-1",
		Name:        "API刷新",
		CreatedAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestProjectHandler_Create_ReturnsCreated(t *testing.T) {
	mock := &mockProjectService{
		createFn: func(ctx context.Context, userID, workspaceID, name, imageURL string) (*model.Project, error) {
			if workspaceID != "ws-1" {
				t.Errorf("workspaceID = %q, want ws-1", workspaceID)
			}
			return testProject("p-1"), nil
		},
	}
	h := NewProjectHandler(mock, nil)

	r := chi.NewRouter()
	r.Post("/api/workspaces/{workspaceID}/projects", h.Create)

	req := authedRequest(t, http.MethodPost, "/api/workspaces/ws-1/projects", "user-1", []byte(`{"name":"API刷新"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestProjectHandler_Create_EmptyName_ReturnsBadRequest(t *testing.T) {
	h := NewProjectHandler(&mockProjectService{}, nil)

	r := chi.NewRouter()
	r.Post("/api/workspaces/{workspaceID}/projects", h.Create)

	req := authedRequest(t, http.MethodPost, "/api/workspaces/ws-1/projects", "user-1", []byte(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestProjectHandler_Get_NotFound_ReturnsNotFound(t *testing.T) {
	mock := &mockProjectService{
		getFn: func(ctx context.Context, userID, projectID string) (*model.Project, error) {
			return nil, model.NewProjectNotFoundError(projectID)
		},
	}
	h := NewProjectHandler(mock, nil)

	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}", h.Get)

	req := authedRequest(t, http.MethodGet, "/api/projects/nope", "user-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if resp := decodeAPIError(t, w); resp.Code != model.ErrCodeProjectNotFound {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeProjectNotFound)
	}
}

func TestProjectHandler_Analytics_ReturnsSnapshot(t *testing.T) {
	snapshot := &analytics.Snapshot{
		TaskCount:                 5,
		TaskDifference:            2,
		AssignedTaskCount:         2,
		AssignedTaskDifference:    1,
		CompletedTaskCount:        2,
		CompletedTaskDifference:   1,
		IncompletedTaskCount:      3,
		IncompletedTaskDifference: 1,
		OverdueTaskCount:          1,
		OverdueTaskDifference:     0,
	}
	mock := &mockAnalyticsService{
		projectAnalyticsFn: func(ctx context.Context, userID, projectID string, now time.Time) (*analytics.Snapshot, error) {
			if projectID != "p-1" {
				t.Errorf("projectID = %q, want p-1", projectID)
			}
			if now.IsZero() {
				t.Error("now should not be zero")
			}
			return snapshot, nil
		},
	}
	h := NewProjectHandler(&mockProjectService{}, mock)

	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}/analytics", h.Analytics)

	req := authedRequest(t, http.MethodGet, "/api/projects/p-1/analytics", "user-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp analytics.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp != *snapshot {
		t.Errorf("snapshot = %+v, want %+v", resp, *snapshot)
	}
}

func TestProjectHandler_Analytics_NotMember_ReturnsUnauthorized(t *testing.T) {
	mock := &mockAnalyticsService{
		projectAnalyticsFn: func(ctx context.Context, userID, projectID string, now time.Time) (*analytics.Snapshot, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewProjectHandler(&mockProjectService{}, mock)

	r := chi.NewRouter()
	r.Get("/api/projects/{projectID}/analytics", h.Analytics)

	req := authedRequest(t, http.MethodGet, "/api/projects/p-1/analytics", "stranger", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestProjectHandler_Update_ClearsImage(t *testing.T) {
	mock := &mockProjectService{
		updateFn: func(ctx context.Context, userID, projectID string, name, imageURL *string) (*model.Project, error) {
			if imageURL == nil || *imageURL != "" {
				t.Errorf("imageURL = %v, want empty string pointer", imageURL)
			}
			return testProject("p-1"), nil
		},
	}
	h := NewProjectHandler(mock, nil)

	r := chi.NewRouter()
	r.Patch("/api/projects/{projectID}", h.Update)

	req := authedRequest(t, http.MethodPatch, "/api/projects/p-1", "user-1", []byte(`{"imageUrl":""}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestProjectHandler_Delete_ReturnsNoContent(t *testing.T) {
	mock := &mockProjectService{
		deleteFn: func(ctx context.Context, userID, projectID string) error {
			return nil
		},
	}
	h := NewProjectHandler(mock, nil)

	r := chi.NewRouter()
	r.Delete("/api/projects/{projectID}", h.Delete)

	req := authedRequest(t, http.MethodDelete, "/api/projects/p-1", "user-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestProjectHandler_List_ReturnsProjects(t *testing.T) {
	mock := &mockProjectService{
		listFn: func(ctx context.Context, userID, workspaceID string) ([]*model.Project, error) {
			return []*model.Project{testProject("p-1"), testProject("p-2")}, nil
		},
	}
	h := NewProjectHandler(mock, nil)

	r := chi.NewRouter()
	r.Get("/api/workspaces/{workspaceID}/projects", h.List)

	req := authedRequest(t, http.MethodGet, "/api/workspaces/ws-1/projects", "user-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []projectResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("len = %d, want 2", len(resp))
	}
}
