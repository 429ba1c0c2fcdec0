package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQueryThreshold = time.Millisecond * 100

// Storage держит пул соединений PostgreSQL, общий для всех
// репозиториев
type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Users() *UserRepo     { return &UserRepo{pool: s.pool} }
func (s *Storage) Boards() *BoardRepo   { return &BoardRepo{pool: s.pool} }
func (s *Storage) Columns() *ColumnRepo { return &ColumnRepo{pool: s.pool} }
func (s *Storage) Tasks() *TaskRepo     { return &TaskRepo{pool: s.pool} }

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Попытка миграций")

	initUp, err := os.ReadFile("internal/migrations/001_init.up.sql")
	if err != nil {
		logger.Error("failed to read 001_init.up.sql", err)
		return err
	}

	indexesUp, err := os.ReadFile("internal/migrations/002_indexes.up.sql")
	if err != nil {
		logger.Error("failed to read 002_indexes.up.sql", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(initUp))
	if err != nil {
		logger.Error("failed to apply 001_init", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(indexesUp))
	if err != nil {
		logger.Error("failed to apply 002_indexes", err)
		return err
	}

	logger.Info("Миграции применены")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Откат миграций")

	indexesDown, err := os.ReadFile("internal/migrations/002_indexes.down.sql")
	if err != nil {
		logger.Error("failed to read 002_indexes.down.sql", err)
		return err
	}

	initDown, err := os.ReadFile("internal/migrations/001_init.down.sql")
	if err != nil {
		logger.Error("failed to read 001_init.down.sql", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(indexesDown))
	if err != nil {
		logger.Error("failed to rollback 002_indexes", err)
		return err
	}

	_, err = s.pool.Exec(ctx, string(initDown))
	if err != nil {
		logger.Error("failed to rollback 001_init", err)
		return err
	}

	logger.Info("Миграции откачены")
	return nil
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQueryThreshold {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}

// ----- пользователи -----

type UserRepo struct {
	pool *pgxpool.Pool
}

func (r *UserRepo) Insert(ctx context.Context, rec *repository.UserRecord) error {
	start := time.Now()

	query := `INSERT INTO users (email, password)
				VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, rec.Email, rec.Password)
	if err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление пользователя: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (r *UserRepo) LoadAll(ctx context.Context) ([]*repository.UserRecord, error) {
	start := time.Now()

	query := `SELECT email, password FROM users`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	records := []*repository.UserRecord{}
	for rows.Next() {
		rec := &repository.UserRecord{}
		if err := rows.Scan(&rec.Email, &rec.Password); err != nil {
			logger.Warn("Repository: Ошибка сканирования пользователя", zap.Error(err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return records, nil
}

func (r *UserRepo) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		logger.Error("Repository: Не удалось очистить пользователей", err)
		return fmt.Errorf("очистка пользователей: %w", err)
	}
	return nil
}

// ----- доски -----

type BoardRepo struct {
	pool *pgxpool.Pool
}

func (r *BoardRepo) Insert(ctx context.Context, rec *repository.BoardRecord) error {
	start := time.Now()

	query := `INSERT INTO boards (id, name, owner_email)
				VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, rec.ID, rec.Name, rec.OwnerEmail)
	if err != nil {
		logger.Error("Repository: Не удалось добавить доску", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление доски: %w", err)
	}

	for _, member := range rec.Members {
		if err := r.AddMember(ctx, rec.ID, member); err != nil {
			return err
		}
	}

	warnIfSlow(start)
	return nil
}

func (r *BoardRepo) AddMember(ctx context.Context, boardID int, email string) error {
	start := time.Now()

	query := `INSERT INTO board_members (board_id, email)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`

	_, err := r.pool.Exec(ctx, query, boardID, email)
	if err != nil {
		logger.Error("Repository: Не удалось добавить участника", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление участника: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (r *BoardRepo) RemoveMember(ctx context.Context, boardID int, email string) error {
	start := time.Now()

	query := `DELETE FROM board_members
				WHERE board_id = $1 AND email = $2`

	_, err := r.pool.Exec(ctx, query, boardID, email)
	if err != nil {
		logger.Error("Repository: Не удалось убрать участника", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление участника: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (r *BoardRepo) SetOwner(ctx context.Context, boardID int, email string) error {
	start := time.Now()

	query := `UPDATE boards
				SET owner_email = $1
				WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, email, boardID)
	if err != nil {
		logger.Error("Repository: Не удалось сменить владельца", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("смена владельца: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (r *BoardRepo) Delete(ctx context.Context, boardID int) error {
	start := time.Now()

	query := `DELETE FROM boards
				WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, boardID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить доску", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление доски: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (r *BoardRepo) LoadAll(ctx context.Context) ([]*repository.BoardRecord, error) {
	start := time.Now()

	query := `SELECT id, name, owner_email FROM boards`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить доски", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение досок: %w", err)
	}
	defer rows.Close()

	records := []*repository.BoardRecord{}
	byID := map[int]*repository.BoardRecord{}
	for rows.Next() {
		rec := &repository.BoardRecord{Members: []string{}}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.OwnerEmail); err != nil {
			logger.Warn("Repository: Ошибка сканирования доски", zap.Error(err))
		}
		records = append(records, rec)
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	memberRows, err := r.pool.Query(ctx, `SELECT board_id, email FROM board_members`)
	if err != nil {
		logger.Error("Repository: Не удалось получить участников", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение участников: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var boardID int
		var email string
		if err := memberRows.Scan(&boardID, &email); err != nil {
			logger.Warn("Repository: Ошибка сканирования участника", zap.Error(err))
			continue
		}
		if rec, ok := byID[boardID]; ok {
			rec.Members = append(rec.Members, email)
		}
	}
	if err := memberRows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return records, nil
}

func (r *BoardRepo) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM boards`)
	if err != nil {
		logger.Error("Repository: Не удалось очистить доски", err)
		return fmt.Errorf("очистка досок: %w", err)
	}
	return nil
}

// ----- колонки -----

type ColumnRepo struct {
	pool *pgxpool.Pool
}

func (r *ColumnRepo) Insert(ctx context.Context, rec *repository.ColumnRecord) error {
	start := time.Now()

	query := `INSERT INTO columns (board_id, ordinal, name, task_limit)
				VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, rec.BoardID, rec.Ordinal, rec.Name, rec.TaskLimit)
	if err != nil {
		logger.Error("Repository: Не удалось добавить колонку", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление колонки: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (r *ColumnRepo) UpdateColumnLimit(ctx context.Context, boardID, ordinal, limit int) error {
	start := time.Now()

	query := `UPDATE columns
				SET task_limit = $1
				WHERE board_id = $2 AND ordinal = $3`

	tag, err := r.pool.Exec(ctx, query, limit, boardID, ordinal)
	if err != nil {
		logger.Error("Repository: Не удалось обновить лимит колонки", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление лимита: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (r *ColumnRepo) DeleteBoardColumns(ctx context.Context, boardID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM columns WHERE board_id = $1`, boardID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить колонки доски", err, zap.Int("board_id", boardID))
		return fmt.Errorf("удаление колонок: %w", err)
	}
	return nil
}

func (r *ColumnRepo) LoadAll(ctx context.Context) ([]*repository.ColumnRecord, error) {
	start := time.Now()

	query := `SELECT board_id, ordinal, name, task_limit FROM columns`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить колонки", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение колонок: %w", err)
	}
	defer rows.Close()

	records := []*repository.ColumnRecord{}
	for rows.Next() {
		rec := &repository.ColumnRecord{}
		if err := rows.Scan(&rec.BoardID, &rec.Ordinal, &rec.Name, &rec.TaskLimit); err != nil {
			logger.Warn("Repository: Ошибка сканирования колонки", zap.Error(err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return records, nil
}

func (r *ColumnRepo) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM columns`)
	if err != nil {
		logger.Error("Repository: Не удалось очистить колонки", err)
		return fmt.Errorf("очистка колонок: %w", err)
	}
	return nil
}

// ----- задачи -----

type TaskRepo struct {
	pool *pgxpool.Pool
}

// колонки tasks, разрешённые для точечного обновления
var taskColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"due_date":    "due_date",
	"state":       "state",
	"assignee":    "assignee",
}

func (r *TaskRepo) Insert(ctx context.Context, rec *repository.TaskRecord) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(board_id, id, creation_time, due_date, title, description, state, assignee)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		rec.BoardID,
		rec.ID,
		rec.CreationTime,
		rec.DueDate,
		rec.Title,
		rec.Description,
		rec.State,
		rec.Assignee,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (r *TaskRepo) UpdateField(ctx context.Context, boardID, taskID int, field string, value any) error {
	start := time.Now()

	column, ok := taskColumns[field]
	if !ok {
		return fmt.Errorf("неизвестное поле задачи: %s", field)
	}

	query := fmt.Sprintf(`UPDATE tasks
				SET %s = $1
				WHERE board_id = $2 AND id = $3`, column)

	tag, err := r.pool.Exec(ctx, query, value, boardID, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err,
			zap.String("field", field),
			zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (r *TaskRepo) DeleteBoardTasks(ctx context.Context, boardID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE board_id = $1`, boardID)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачи доски", err, zap.Int("board_id", boardID))
		return fmt.Errorf("удаление задач: %w", err)
	}
	return nil
}

func (r *TaskRepo) LoadAll(ctx context.Context) ([]*repository.TaskRecord, error) {
	start := time.Now()

	query := `SELECT
				board_id,
				id,
				creation_time,
				due_date,
				title,
				description,
				state,
				assignee
				FROM tasks`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	records := []*repository.TaskRecord{}
	for rows.Next() {
		rec := &repository.TaskRecord{}
		err := rows.Scan(
			&rec.BoardID,
			&rec.ID,
			&rec.CreationTime,
			&rec.DueDate,
			&rec.Title,
			&rec.Description,
			&rec.State,
			&rec.Assignee,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return records, nil
}

func (r *TaskRepo) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks`)
	if err != nil {
		logger.Error("Repository: Не удалось очистить задачи", err)
		return fmt.Errorf("очистка задач: %w", err)
	}
	return nil
}
