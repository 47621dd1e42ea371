package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"go-todo-app/backend/internal/models"
)

// ErrTodoNotFound はTodoが見つからない場合のエラーです。
// 他人のTodoや論理削除済みのTodoも「存在しない」として扱います。
var ErrTodoNotFound = errors.New("todo not found")

// ownerScope は全クエリ共通のWHERE句です。
// 所有者スコープと論理削除の除外をここに集約し、呼び出し側には書かせません。
const ownerScope = "user_id = ? AND is_deleted = FALSE"

const todoColumns = "id, user_id, title, description, completed, priority, due_date, is_deleted, created_at, updated_at"

// TodoRepository はデータベース操作を行うための構造体です。
type TodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

func scanTodo(row *sql.Row) (*models.Todo, error) {
	var t models.Todo
	var dueDate sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
		&t.Priority, &dueDate, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}

// escapeLike はLIKE検索でワイルドカードとして解釈される文字をエスケープします。
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// List はユーザーのTodoをフィルタ・ページネーション付きで取得します。
// 検索はタイトルまたは説明に対する大文字小文字を区別しない部分一致です。
func (r *TodoRepository) List(userID int, q models.TodoListQuery) (*models.TodoListResponse, error) {
	where := []string{ownerScope}
	args := []interface{}{userID}

	if q.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *q.Completed)
	}
	if q.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, q.Priority)
	}
	if q.Search != "" {
		// utf8mb4の既定照合順序は大文字小文字を区別しない
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + escapeLike(q.Search) + "%"
		args = append(args, pattern, pattern)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM todos WHERE " + whereClause
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		log.Printf("Failed to count todos: %v", err)
		return nil, fmt.Errorf("could not count todos: %w", err)
	}

	offset := (q.Page - 1) * q.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM todos WHERE %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		todoColumns, whereClause,
	)
	rows, err := r.DB.Query(query, append(args, q.Limit, offset)...)
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		var t models.Todo
		var dueDate sql.NullTime
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
			&t.Priority, &dueDate, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			log.Printf("Failed to scan todo: %v", err)
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		if dueDate.Valid {
			t.DueDate = &dueDate.Time
		}
		todos = append(todos, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	totalPages := (total + q.Limit - 1) / q.Limit

	return &models.TodoListResponse{
		Todos:      todos,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}, nil
}

// FindByID は指定IDのTodoを取得します。
// 所有者が一致しない場合や論理削除済みの場合はErrTodoNotFoundを返します。
func (r *TodoRepository) FindByID(id, userID int) (*models.Todo, error) {
	query := fmt.Sprintf("SELECT %s FROM todos WHERE id = ? AND %s", todoColumns, ownerScope)
	t, err := scanTodo(r.DB.QueryRow(query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return t, nil
}

// Create は新しいTodoをデータベースに挿入します。
func (r *TodoRepository) Create(userID int, req *models.CreateTodoRequest) (*models.Todo, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	query := "INSERT INTO todos (user_id, title, description, priority, due_date) VALUES (?, ?, ?, ?, ?)"
	result, err := r.DB.Exec(query, userID, req.Title, req.Description, priority, req.DueDate)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}

	// サーバー側で採番されたIDとタイムスタンプを含めて返す
	return r.FindByID(int(id), userID)
}

// Update は指定されたフィールドのみを更新します。nilのフィールドは変更されません。
func (r *TodoRepository) Update(id, userID int, req *models.UpdateTodoRequest) (*models.Todo, error) {
	// 存在・所有・未削除の確認
	if _, err := r.FindByID(id, userID); err != nil {
		return nil, err
	}

	set := []string{}
	args := []interface{}{}
	if req.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Completed != nil {
		set = append(set, "completed = ?")
		args = append(args, *req.Completed)
	}
	if req.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *req.Priority)
	}
	if req.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, *req.DueDate)
	}
	if len(set) == 0 {
		// 更新対象なし
		return r.FindByID(id, userID)
	}

	query := fmt.Sprintf("UPDATE todos SET %s WHERE id = ? AND %s", strings.Join(set, ", "), ownerScope)
	args = append(args, id, userID)
	if _, err := r.DB.Exec(query, args...); err != nil {
		log.Printf("Failed to update todo: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	return r.FindByID(id, userID)
}

// SoftDelete はTodoに論理削除フラグを立てます。レコード自体は残ります。
func (r *TodoRepository) SoftDelete(id, userID int) error {
	query := fmt.Sprintf("UPDATE todos SET is_deleted = TRUE WHERE id = ? AND %s", ownerScope)
	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		log.Printf("Failed to soft delete todo: %v", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// Toggle は完了状態を反転します。
func (r *TodoRepository) Toggle(id, userID int) (*models.Todo, error) {
	query := fmt.Sprintf("UPDATE todos SET completed = NOT completed WHERE id = ? AND %s", ownerScope)
	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		log.Printf("Failed to toggle todo: %v", err)
		return nil, fmt.Errorf("could not toggle todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTodoNotFound
	}

	return r.FindByID(id, userID)
}
