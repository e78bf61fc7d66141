package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

func taskRouter(userID string, role models.UserRole, svc *fakeTasks) *gin.Engine {
	h := NewTaskHandler(svc, nopLog)
	r := newRouter(userID, role)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:id", h.GetByID)
	r.POST("/tasks/:id/status", h.ChangeStatus)
	r.POST("/tasks/:id/assign", h.Assign)
	return r
}

func TestTaskCreate_SalesExecutiveSelfAssignOnly(t *testing.T) {
	svc := &fakeTasks{tasks: map[string]*models.Task{}}
	r := taskRouter("rep-1", models.RoleSalesExecutive, svc)

	w := do(r, http.MethodPost, "/tasks", map[string]string{"title": "Call back", "assigned_to": "rep-2"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.tasks)

	w = do(r, http.MethodPost, "/tasks", map[string]string{"title": "Call back"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, svc.tasks, 1)
	assert.Equal(t, "rep-1", *svc.tasks["task-1"].AssignedTo)
}

func TestTaskCreate_ManagerAssignsAnyone(t *testing.T) {
	svc := &fakeTasks{tasks: map[string]*models.Task{}}
	w := do(taskRouter("mgr", models.RoleManager, svc), http.MethodPost, "/tasks",
		map[string]string{"title": "Prepare demo", "assigned_to": "rep-2", "priority": "high"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "rep-2", *svc.tasks["task-1"].AssignedTo)
	assert.Equal(t, models.PriorityHigh, svc.tasks["task-1"].Priority)
}

func TestTask_VisibleToAssigneeAndCreator(t *testing.T) {
	svc := &fakeTasks{tasks: map[string]*models.Task{
		"t1": {ID: "t1", Title: "x", AssignedTo: strPtr("rep-1"), CreatedBy: strPtr("mgr"), Status: models.TaskPending},
	}}

	assert.Equal(t, http.StatusOK, do(taskRouter("rep-1", models.RoleSalesExecutive, svc), http.MethodGet, "/tasks/t1", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(taskRouter("rep-2", models.RoleSalesExecutive, svc), http.MethodGet, "/tasks/t1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(taskRouter("rep-1", models.RoleSalesExecutive, svc), http.MethodGet, "/tasks/t9", nil).Code)
}

func TestTaskStatusAndAssign(t *testing.T) {
	svc := &fakeTasks{tasks: map[string]*models.Task{
		"t1": {ID: "t1", Title: "x", AssignedTo: strPtr("rep-1"), Status: models.TaskPending},
	}}
	r := taskRouter("rep-1", models.RoleSalesExecutive, svc)

	w := do(r, http.MethodPost, "/tasks/t1/status", map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/tasks/t1/status", map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.TaskInProgress, svc.tasks["t1"].Status)

	w = do(r, http.MethodPost, "/tasks/t1/assign", map[string]string{"assigned_to": "rep-2"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.assigned)
}
