package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teamdeck/internal/model"
	"github.com/hitoshi/teamdeck/internal/repository"
	"github.com/hitoshi/teamdeck/internal/task"
)

// TaskServiceInterface はタスクサービスのインターフェース。
type TaskServiceInterface interface {
	Create(ctx context.Context, userID string, input task.CreateInput) (*model.Task, error)
	List(ctx context.Context, userID string, filter repository.TaskListFilter) ([]*model.Task, error)
	Get(ctx context.Context, userID, taskID string) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, input task.UpdateInput) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
}

// TaskHandler はタスク関連のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  *string    `json:"assigneeId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		WorkspaceID: t.WorkspaceID,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Name:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type createTaskRequest struct {
	ProjectID   string     `json:"projectId"`
	AssigneeID  *string    `json:"assigneeId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}

// updateTaskRequest はタスク更新のリクエストボディ。
// assigneeId/dueDateに明示的にnullを渡すと未設定に戻す。フィールドの省略は
// 変更なしを意味し、nullとの区別はoptionalStr/optionalTSで行う。
type updateTaskRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Status      *string     `json:"status"`
	AssigneeID  optionalStr `json:"assigneeId"`
	DueDate     optionalTS  `json:"dueDate"`
}

// optionalStr は「省略」「null」「値あり」を区別する文字列フィールド。
type optionalStr struct {
	Set   bool
	Value *string
}

func (o *optionalStr) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// optionalTS は「省略」「null」「値あり」を区別する時刻フィールド。
type optionalTS struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTS) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// Create はPOST /api/workspaces/{workspaceID}/tasksを処理する。
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	var req createTaskRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Name == "" {
		writeValidationError(w, "タスク名は必須です。")
		return
	}
	if req.ProjectID == "" {
		writeValidationError(w, "プロジェクトIDは必須です。")
		return
	}

	status := model.TaskStatus(req.Status)
	if req.Status == "" {
		status = model.StatusBacklog
	}

	created, err := h.service.Create(r.Context(), userID, task.CreateInput{
		WorkspaceID: workspaceID,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(created))
}

// List はGET /api/workspaces/{workspaceID}/tasksを処理する。
// projectId、status、assigneeIdクエリパラメータで絞り込める。
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	workspaceID := chi.URLParam(r, "workspaceID")

	filter := repository.TaskListFilter{
		WorkspaceID: workspaceID,
		ProjectID:   r.URL.Query().Get("projectId"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.TaskStatus(v)
		if !status.IsValid() {
			handleServiceError(w, model.NewInvalidTaskStatusError(v))
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("assigneeId"); v != "" {
		filter.AssigneeID = &v
	}

	tasks, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, responses)
}

// Get はGET /api/tasks/{taskID}を処理する。
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")

	found, err := h.service.Get(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(found))
}

// Update はPATCH /api/tasks/{taskID}を処理する。
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")

	var req updateTaskRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input := task.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.AssigneeID.Set {
		if req.AssigneeID.Value == nil {
			input.ClearAssignee = true
		} else {
			input.AssigneeID = req.AssigneeID.Value
		}
	}
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			input.ClearDueDate = true
		} else {
			input.DueDate = req.DueDate.Value
		}
	}

	updated, err := h.service.Update(r.Context(), userID, taskID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(updated))
}

// Delete はDELETE /api/tasks/{taskID}を処理する。
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")

	if err := h.service.Delete(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
