package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/model"
)

// WorkspaceServiceInterface はワークスペースサービスのインターフェース。
type WorkspaceServiceInterface interface {
	Create(ctx context.Context, userID, name, imageURL string) (*model.Workspace, error)
	List(ctx context.Context, userID string) ([]*model.Workspace, error)
	Get(ctx context.Context, userID, workspaceID string) (*model.Workspace, error)
	Update(ctx context.Context, userID, workspaceID string, name, imageURL *string) (*model.Workspace, error)
	Delete(ctx context.Context, userID, workspaceID string) error
	ResetInviteCode(ctx context.Context, userID, workspaceID string) (*model.Workspace, error)
	Join(ctx context.Context, userID, workspaceID, inviteCode string) (*model.Workspace, error)
}

// WorkspaceHandler はワークスペース関連のHTTPハンドラー。
type WorkspaceHandler struct {
	service WorkspaceServiceInterface
}

// NewWorkspaceHandler はWorkspaceHandlerを生成する。
func NewWorkspaceHandler(service WorkspaceServiceInterface) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// workspaceResponse はワークスペースのAPIレスポンス。
type workspaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"ownerUserId"`
	ImageURL    string    `json:"imageUrl"`
	InviteCode  string    `json:"inviteCode"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toWorkspaceResponse(ws *model.Workspace) workspaceResponse {
	return workspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		OwnerUserID: ws.OwnerUserID,
		ImageURL:    ws.ImageURL,
		InviteCode:  ws.InviteCode,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

type createWorkspaceRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type updateWorkspaceRequest struct {
	Name     *string `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

type joinWorkspaceRequest struct {
	InviteCode string `json:"inviteCode"`
}

// Create はPOST /api/workspacesを処理する。
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req createWorkspaceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Name == "" {
		writeValidationError(w, "ワークスペース名は必須です。")
		return
	}

	ws, err := h.service.Create(r.Context(), userID, req.Name, req.ImageURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkspaceResponse(ws))
}

// List はGET /api/workspacesを処理する。
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	workspaces, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]workspaceResponse, 0, len(workspaces))
	for _, ws := range workspaces {
		responses = append(responses, toWorkspaceResponse(ws))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Get はGET /api/workspaces/{workspaceID}を処理する。
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	ws, err := h.service.Get(r.Context(), userID, workspaceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

// Update はPATCH /api/workspaces/{workspaceID}を処理する。
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	var req updateWorkspaceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ws, err := h.service.Update(r.Context(), userID, workspaceID, req.Name, req.ImageURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

// Delete はDELETE /api/workspaces/{workspaceID}を処理する。
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	if err := h.service.Delete(r.Context(), userID, workspaceID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetInviteCode はPOST /api/workspaces/{workspaceID}/reset-invite-codeを処理する。
func (h *WorkspaceHandler) ResetInviteCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	ws, err := h.service.ResetInviteCode(r.Context(), userID, workspaceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

// Join はPOST /api/workspaces/{workspaceID}/joinを処理する。
func (h *WorkspaceHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	var req joinWorkspaceRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ws, err := h.service.Join(r.Context(), userID, workspaceID, req.InviteCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}
