package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/analytics"
	"github.com/hitoshi/teamdeck/internal/model"
)

// ProjectServiceInterface はプロジェクトサービスのインターフェース。
type ProjectServiceInterface interface {
	Create(ctx context.Context, userID, workspaceID, name, imageURL string) (*model.Project, error)
	List(ctx context.Context, userID, workspaceID string) ([]*model.Project, error)
	Get(ctx context.Context, userID, projectID string) (*model.Project, error)
	Update(ctx context.Context, userID, projectID string, name, imageURL *string) (*model.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
}

// AnalyticsServiceInterface はプロジェクトアナリティクスのインターフェース。
type AnalyticsServiceInterface interface {
	ProjectAnalytics(ctx context.Context, userID, projectID string, now time.Time) (*analytics.Snapshot, error)
}

// ProjectHandler はプロジェクト関連のHTTPハンドラー。
type ProjectHandler struct {
	service   ProjectServiceInterface
	analytics AnalyticsServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface, analytics AnalyticsServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service, analytics: analytics}
}

// projectResponse はプロジェクトのAPIレスポンス。
type projectResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type createProjectRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type updateProjectRequest struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// Create はPOST /api/workspaces/{workspaceID}/projectsを処理する。
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	var req createProjectRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Name == "" {
		writeValidationError(w, "プロジェクト名は必須です。")
		return
	}

	project, err := h.service.Create(r.Context(), userID, workspaceID, req.Name, req.ImageURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(project))
}

// List はGET /api/workspaces/{workspaceID}/projectsを処理する。
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	projects, err := h.service.List(r.Context(), userID, workspaceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		responses = append(responses, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Get はGET /api/projects/{projectID}を処理する。
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectID")

	project, err := h.service.Get(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// Update はPATCH /api/projects/{projectID}を処理する。
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectID")

	var req updateProjectRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	project, err := h.service.Update(r.Context(), userID, projectID, req.Name, req.ImageURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// Delete はDELETE /api/projects/{projectID}を処理する。
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectID")

	if err := h.service.Delete(r.Context(), userID, projectID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analytics はGET /api/projects/{projectID}/analyticsを処理する。
func (h *ProjectHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "projectID")

	snapshot, err := h.analytics.ProjectAnalytics(r.Context(), userID, projectID, time.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
