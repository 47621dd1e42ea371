package services

import (
	"go-todo-app/backend/internal/models"
	"go-todo-app/backend/internal/repositories"
)

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は呼び出しユーザーのTodoに限定されます。他人のTodoは
// 管理者であっても見えません。
type TodoService struct {
	todoRepo *repositories.TodoRepository
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// ListTodos はユーザーのTodoをフィルタ・ページネーション付きで取得します。
func (s *TodoService) ListTodos(userID int, q models.TodoListQuery) (*models.TodoListResponse, error) {
	return s.todoRepo.List(userID, q)
}

// GetTodoByID は指定IDのTodoを取得します。
func (s *TodoService) GetTodoByID(id, userID int) (*models.Todo, error) {
	return s.todoRepo.FindByID(id, userID)
}

// CreateTodo は新しいTodoを作成します。所有者はリクエストしたユーザーです。
func (s *TodoService) CreateTodo(userID int, req *models.CreateTodoRequest) (*models.Todo, error) {
	return s.todoRepo.Create(userID, req)
}

// UpdateTodo は指定されたフィールドのみを更新します。
func (s *TodoService) UpdateTodo(id, userID int, req *models.UpdateTodoRequest) (*models.Todo, error) {
	return s.todoRepo.Update(id, userID, req)
}

// DeleteTodo はTodoを論理削除します。復元する操作は提供していません。
func (s *TodoService) DeleteTodo(id, userID int) error {
	return s.todoRepo.SoftDelete(id, userID)
}

// ToggleTodo は完了状態を反転します。
func (s *TodoService) ToggleTodo(id, userID int) (*models.Todo, error) {
	return s.todoRepo.Toggle(id, userID)
}
