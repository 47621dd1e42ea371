package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go-todo-app/backend/internal/models"
)

// TokenStore はセッションをまたいで認証トークンを保持します。
// ブラウザ版のlocalStorageに相当します。
type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemoryTokenStore はメモリ上にトークンを保持するTokenStoreです。
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// APIError はサーバーが返したエラーレスポンスです。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// AuthResponse は登録・ログインのレスポンスです。
type AuthResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

// Client はTodo APIへのHTTPクライアントです。
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// NewClient は新しいClientを作成します。baseURLは "http://host:port/api" の形式です。
// tokensがnilの場合はメモリ上のストアを使います。
func NewClient(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		tokens:  tokens,
	}
}

// do はリクエストを送信し、レスポンスボディをoutにデコードします。
// 401が返った場合は保持しているトークンを破棄します（再ログインが必要）。
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Clear()
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Message == "" {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("could not decode response: %w", err)
		}
	}
	return nil
}

// Register はユーザー登録を行い、取得したトークンを保存します。
func (c *Client) Register(req models.UserRegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.SetToken(resp.Token)
	return &resp, nil
}

// Login はログインを行い、取得したトークンを保存します。
func (c *Client) Login(req models.UserLoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.SetToken(resp.Token)
	return &resp, nil
}

// Profile は認証済みユーザーのプロフィールを取得します。
func (c *Client) Profile() (*models.User, error) {
	var user models.User
	if err := c.do(http.MethodGet, "/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout はログアウトし、保持しているトークンを破棄します。
func (c *Client) Logout() error {
	if err := c.do(http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.tokens.Clear()
	return nil
}

// ListTodos はフィルタ・ページネーション付きでTodo一覧を取得します。
func (c *Client) ListTodos(q models.TodoListQuery) (*models.TodoListResponse, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Completed != nil {
		params.Set("completed", strconv.FormatBool(*q.Completed))
	}
	if q.Priority != "" {
		params.Set("priority", q.Priority)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	path := "/todos"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp models.TodoListResponse
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTodo は指定IDのTodoを取得します。
func (c *Client) GetTodo(id int) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(http.MethodGet, fmt.Sprintf("/todos/%d", id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo は新しいTodoを作成します。
func (c *Client) CreateTodo(req models.CreateTodoRequest) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(http.MethodPost, "/todos", req, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo はTodoを部分更新します。
func (c *Client) UpdateTodo(id int, req models.UpdateTodoRequest) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(http.MethodPut, fmt.Sprintf("/todos/%d", id), req, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo はTodoを論理削除します。
func (c *Client) DeleteTodo(id int) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/todos/%d", id), nil, nil)
}

// ToggleTodo は完了状態を反転します。
func (c *Client) ToggleTodo(id int) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(http.MethodPatch, fmt.Sprintf("/todos/%d/toggle", id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// FetchTodos は現在のストア状態に基づいて一覧を取得し、結果をdispatchします。
// 失敗時はLoadingを解除し、状態は変更しません。
func (c *Client) FetchTodos(store *Store) error {
	state := store.Dispatch(SetLoading{Loading: true})

	resp, err := c.ListTodos(models.TodoListQuery{
		Page:      state.Page,
		Limit:     state.Limit,
		Completed: state.Filters.Completed,
		Priority:  state.Filters.Priority,
		Search:    state.Filters.Search,
	})
	if err != nil {
		store.Dispatch(SetLoading{Loading: false})
		return err
	}

	store.Dispatch(SetTodos{Response: *resp})
	return nil
}
