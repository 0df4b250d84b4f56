package task

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/guiChehade/planner-tatatu/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteRepo is a persistent task repository backed by a SQLite file.
// Like FileRepo it is user-scoped; ForUser returns a scoped view over
// the same database handle.
type SQLiteRepo struct {
	db     *sql.DB
	userID string
}

func NewSQLiteRepo(path string, busyTimeout time.Duration) (*SQLiteRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if busyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(string(schema)); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteRepo{db: db, userID: "default"}, nil
}

func (r *SQLiteRepo) ForUser(userID string) Repo {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = "default"
	}
	return &SQLiteRepo{db: r.db, userID: userID}
}

func (r *SQLiteRepo) Users() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT user_id FROM tasks ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepo) Create(t model.Task) (model.Task, error) {
	now := time.Now()
	t.ID = newID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	normalizeTask(&t)

	tags, recur, err := encodeTaskJSON(t)
	if err != nil {
		return model.Task{}, err
	}
	_, err = r.db.Exec(
		`INSERT INTO tasks(id, user_id, title, description, done, project, tags, due_date,
		                   recurrence, parent_task_id, is_instance, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		string(t.ID), r.userID, t.Title, t.Description, t.Done,
		nullStr(t.Project), tags, nullStr(t.DueDate), recur,
		nullTaskID(t.ParentTaskID), t.RecurringInstance,
		t.CreatedAt.Format(sqliteTimeLayout), t.UpdatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *SQLiteRepo) Get(id model.TaskID) (model.Task, error) {
	row := r.db.QueryRow(taskSelect+` WHERE user_id = ? AND id = ?`, r.userID, string(id))
	return scanTask(row)
}

func (r *SQLiteRepo) Update(id model.TaskID, p Patch) (model.Task, error) {
	t, err := r.Get(id)
	if err != nil {
		return model.Task{}, err
	}

	applyPatch(&t, p)
	t.UpdatedAt = time.Now()
	normalizeTask(&t)

	tags, recur, err := encodeTaskJSON(t)
	if err != nil {
		return model.Task{}, err
	}
	res, err := r.db.Exec(
		`UPDATE tasks SET title=?, description=?, done=?, project=?, tags=?, due_date=?,
		        recurrence=?, updated_at=?
		 WHERE user_id = ? AND id = ?`,
		t.Title, t.Description, t.Done, nullStr(t.Project), tags, nullStr(t.DueDate),
		recur, t.UpdatedAt.Format(sqliteTimeLayout), r.userID, string(id),
	)
	if err != nil {
		return model.Task{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *SQLiteRepo) Delete(id model.TaskID) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE user_id = ? AND id = ?`, r.userID, string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) List(filter ListFilter) ([]model.Task, error) {
	rows, err := r.db.Query(taskSelect+` WHERE user_id = ?`, r.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	today := time.Now().Format(ymdLayout)

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if matchesFilter(t, filter, today) {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortTasks(out)
	return out, nil
}

func (r *SQLiteRepo) FindInstance(parentID model.TaskID, dueDate string) (model.Task, error) {
	row := r.db.QueryRow(
		taskSelect+` WHERE user_id = ? AND parent_task_id = ? AND due_date = ? AND is_instance = 1 LIMIT 1`,
		r.userID, string(parentID), dueDate,
	)
	return scanTask(row)
}

const taskSelect = `SELECT id, title, description, done, project, tags, due_date,
       recurrence, parent_task_id, is_instance, created_at, updated_at FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t         model.Task
		id        string
		project   sql.NullString
		tags      sql.NullString
		dueDate   sql.NullString
		recur     sql.NullString
		parentID  sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&id, &t.Title, &t.Description, &t.Done, &project, &tags, &dueDate,
		&recur, &parentID, &t.RecurringInstance, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}

	t.ID = model.TaskID(id)
	if project.Valid {
		t.Project = &project.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if parentID.Valid {
		pid := model.TaskID(parentID.String)
		t.ParentTaskID = &pid
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return model.Task{}, fmt.Errorf("decode tags for task %s: %w", id, err)
		}
	}
	if recur.Valid && recur.String != "" {
		var rec model.Recurrence
		if err := json.Unmarshal([]byte(recur.String), &rec); err != nil {
			return model.Task{}, fmt.Errorf("decode recurrence for task %s: %w", id, err)
		}
		t.Recurrence = &rec
	}
	if t.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return model.Task{}, fmt.Errorf("decode created_at for task %s: %w", id, err)
	}
	if t.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return model.Task{}, fmt.Errorf("decode updated_at for task %s: %w", id, err)
	}

	normalizeTask(&t)
	return t, nil
}

func encodeTaskJSON(t model.Task) (tags string, recurrence any, err error) {
	b, err := json.Marshal(t.Tags)
	if err != nil {
		return "", nil, err
	}
	tags = string(b)

	if t.Recurrence == nil {
		return tags, nil, nil
	}
	rb, err := json.Marshal(t.Recurrence)
	if err != nil {
		return "", nil, err
	}
	return tags, string(rb), nil
}

func nullStr(v *string) any {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return *v
}

func nullTaskID(v *model.TaskID) any {
	if v == nil || *v == "" {
		return nil
	}
	return string(*v)
}
