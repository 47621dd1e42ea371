// Package modelsはTodoを定義します。
package models

import (
	"time"
)

// Priorityの有効値。データベース側のENUM定義と一致させること。
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo はタスク1件のデータベース構造体を表します。
// IsDeletedがtrueのレコードは論理削除済みで、通常のレスポンスには現れません。
type Todo struct {
	ID          int        `json:"id"`                // 主キー
	UserID      int        `json:"userId"`            // 所有ユーザーID（作成後は不変）
	Title       string     `json:"title"`             // タスクのタイトル（必須、最大100文字）
	Description string     `json:"description"`       // 説明（最大500文字）
	Completed   bool       `json:"completed"`         // 完了状態
	Priority    string     `json:"priority"`          // low / medium / high
	DueDate     *time.Time `json:"dueDate,omitempty"` // 期限（任意）
	IsDeleted   bool       `json:"isDeleted"`         // 論理削除フラグ
	CreatedAt   time.Time  `json:"createdAt"`         // 作成日時
	UpdatedAt   time.Time  `json:"updatedAt"`         // 更新日時
}

// CreateTodoRequest はTodo作成リクエストのボディです。
type CreateTodoRequest struct {
	Title       string     `json:"title" binding:"required,max=100"`
	Description string     `json:"description" binding:"max=500"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTodoRequest はTodo更新リクエストのボディです。
// ポインタのフィールドはnilなら「指定なし」として既存値を保持します。
type UpdateTodoRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Completed   *bool      `json:"completed"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// TodoListQuery はGET /api/todosのクエリパラメータです。
type TodoListQuery struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=10" binding:"min=1,max=100"`
	Completed *bool  `form:"completed"`
	Priority  string `form:"priority" binding:"omitempty,oneof=low medium high"`
	Search    string `form:"search"`
}

// TodoListResponse はページネーション付きのTodo一覧レスポンスです。
type TodoListResponse struct {
	Todos      []*Todo `json:"todos"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}
