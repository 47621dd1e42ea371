package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
	"go-todo-app/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// GetTodosHandler はTodo一覧をフィルタ・ページネーション付きで取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var query models.TodoListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.todoService.ListTodos(userID, query)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ID format")
		return
	}

	todo, err := h.todoService.GetTodoByID(id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "Todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to fetch todo")
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	createdTodo, err := h.todoService.CreateTodo(userID, &req)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save todo to database")
		return
	}
	c.JSON(http.StatusCreated, createdTodo)
}

// UpdateTodoHandler はTodoを部分更新します。指定されなかったフィールドは変更されません。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ID format")
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updatedTodo, err := h.todoService.UpdateTodo(id, userID, &req)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "Todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// DeleteTodoHandler はTodoを論理削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ID format")
		return
	}

	if err := h.todoService.DeleteTodo(id, userID); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "Todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

// ToggleTodoHandler は完了状態を反転します。
func (h *TodoHandler) ToggleTodoHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid ID format")
		return
	}

	toggledTodo, err := h.todoService.ToggleTodo(id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			respondError(c, http.StatusNotFound, "Todo not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to toggle todo")
		return
	}
	c.JSON(http.StatusOK, toggledTodo)
}
