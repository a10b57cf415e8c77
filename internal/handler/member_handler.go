package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/model"
)

// MemberServiceInterface はメンバーサービスのインターフェース。
type MemberServiceInterface interface {
	List(ctx context.Context, userID, workspaceID string) ([]*model.Member, error)
	UpdateRole(ctx context.Context, userID, memberID string, role model.MemberRole) (*model.Member, error)
	Remove(ctx context.Context, userID, memberID string) error
}

// MemberHandler はメンバー関連のHTTPハンドラー。
type MemberHandler struct {
	service MemberServiceInterface
}

// NewMemberHandler はMemberHandlerを生成する。
func NewMemberHandler(service MemberServiceInterface) *MemberHandler {
	return &MemberHandler{service: service}
}

// memberResponse はメンバーのAPIレスポンス。
type memberResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toMemberResponse(m *model.Member) memberResponse {
	return memberResponse{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		CreatedAt:   m.CreatedAt,
	}
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

// List はGET /api/workspaces/{workspaceID}/membersを処理する。
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	members, err := h.service.List(r.Context(), userID, workspaceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]memberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, responses)
}

// UpdateRole はPATCH /api/members/{memberID}を処理する。
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "memberID")

	var req updateMemberRoleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	role := model.MemberRole(req.Role)
	if !role.IsValid() {
		writeValidationError(w, "ロールには admin または member を指定してください。")
		return
	}

	member, err := h.service.UpdateRole(r.Context(), userID, memberID, role)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(member))
}

// Remove はDELETE /api/members/{memberID}を処理する。
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "memberID")

	if err := h.service.Remove(r.Context(), userID, memberID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
