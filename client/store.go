// Package client はTodo APIのGoクライアントと、サーバー状態をミラーする
// ストアを提供します。ストアは純粋なreducerで、ネットワーク呼び出しは
// Client側が行い、完了時にアクションをdispatchします。
package client

import (
	"sync"

	"go-todo-app/backend/internal/models"
)

// Filters は一覧取得に適用中のフィルタです。
type Filters struct {
	Completed *bool
	Priority  string
	Search    string
}

// State はストアが保持するスナップショットです。
// TodosはUI表示中の1ページ分のみを保持します。
type State struct {
	Todos      []*models.Todo
	Total      int
	Page       int
	Limit      int
	TotalPages int
	Loading    bool
	Filters    Filters
}

// NewState は初期状態を返します。
func NewState() State {
	return State{
		Todos: []*models.Todo{},
		Page:  1,
		Limit: 10,
	}
}

// Action はストアへの状態遷移要求を表します。
type Action interface {
	isAction()
}

// SetLoading は読み込み中フラグを設定します。
type SetLoading struct {
	Loading bool
}

// SetTodos は一覧取得結果でページ全体を置き換えます。
type SetTodos struct {
	Response models.TodoListResponse
}

// AddTodo は作成されたTodoを先頭に追加します。
type AddTodo struct {
	Todo *models.Todo
}

// UpdateTodo は同じIDのTodoを置き換えます（更新・トグル確定時）。
type UpdateTodo struct {
	Todo *models.Todo
}

// DeleteTodo は指定IDのTodoを取り除きます。
type DeleteTodo struct {
	ID int
}

// SetFilters はフィルタを置き換え、ページを1に戻します。
type SetFilters struct {
	Filters Filters
}

// SetPage は表示ページを変更します。
type SetPage struct {
	Page int
}

func (SetLoading) isAction() {}
func (SetTodos) isAction()   {}
func (AddTodo) isAction()    {}
func (UpdateTodo) isAction() {}
func (DeleteTodo) isAction() {}
func (SetFilters) isAction() {}
func (SetPage) isAction()    {}

// Reduce は現在の状態とアクションから次の状態を計算する純粋関数です。
// 渡されたスナップショットは変更せず、スライスは必ずコピーします。
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetLoading:
		state.Loading = a.Loading

	case SetTodos:
		todos := make([]*models.Todo, len(a.Response.Todos))
		copy(todos, a.Response.Todos)
		state.Todos = todos
		state.Total = a.Response.Total
		state.Page = a.Response.Page
		state.Limit = a.Response.Limit
		state.TotalPages = a.Response.TotalPages
		state.Loading = false

	case AddTodo:
		todos := make([]*models.Todo, 0, len(state.Todos)+1)
		todos = append(todos, a.Todo)
		todos = append(todos, state.Todos...)
		state.Todos = todos
		state.Total = state.Total + 1

	case UpdateTodo:
		todos := make([]*models.Todo, len(state.Todos))
		for i, t := range state.Todos {
			if t.ID == a.Todo.ID {
				todos[i] = a.Todo
			} else {
				todos[i] = t
			}
		}
		state.Todos = todos

	case DeleteTodo:
		todos := make([]*models.Todo, 0, len(state.Todos))
		for _, t := range state.Todos {
			if t.ID != a.ID {
				todos = append(todos, t)
			}
		}
		state.Todos = todos
		state.Total = state.Total - 1

	case SetFilters:
		state.Filters = a.Filters
		state.Page = 1 // フィルタ変更時はページを先頭に戻す

	case SetPage:
		state.Page = a.Page
	}
	return state
}

// Store は現在の状態を保持する明示的な状態コンテナです。
// グローバル変数ではなく、依存として引き回して使います。
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore は初期状態のStoreを作成します。
func NewStore() *Store {
	return &Store{state: NewState()}
}

// State は現在の状態のスナップショットを返します。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch はアクションを適用し、遷移後の状態を返します。
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	return s.state
}
