package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kanbanTracker/internal/repository"
	"kanbanTracker/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	connString string
	ctx        context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Запускаем контейнер с PostgreSQL
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	// Получаем connection string
	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port())

	s.storage, err = postgres.New(s.ctx, s.connString)
	require.NoError(s.T(), err)

	err = s.applyTestMigrations()
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest запускается перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	s.cleanupDatabase()
}

// cleanupDatabase очищает таблицы с учётом внешних ключей
func (s *PostgresTestSuite) cleanupDatabase() {
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		s.T().Logf("Не удалось подключиться для очистки: %v", err)
		return
	}
	defer conn.Close(ctx)

	for _, table := range []string{"tasks", "columns", "board_members", "boards", "users"} {
		if _, err := conn.Exec(ctx, "DELETE FROM "+table); err != nil {
			s.T().Logf("Не удалось очистить таблицу %s: %v", table, err)
		}
	}
}

// applyTestMigrations создает тестовые таблицы
func (s *PostgresTestSuite) applyTestMigrations() error {
	conn, err := pgx.Connect(s.ctx, s.connString)
	if err != nil {
		return err
	}
	defer conn.Close(s.ctx)

	query := `
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		password TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boards (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		owner_email TEXT NOT NULL REFERENCES users(email)
	);

	CREATE TABLE IF NOT EXISTS board_members (
		board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		PRIMARY KEY (board_id, email)
	);

	CREATE TABLE IF NOT EXISTS columns (
		board_id INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		task_limit INTEGER NOT NULL DEFAULT -1,
		PRIMARY KEY (board_id, ordinal)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		board_id INTEGER NOT NULL,
		id INTEGER NOT NULL,
		creation_time TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		title VARCHAR(50) NOT NULL,
		description VARCHAR(300) NOT NULL DEFAULT '',
		state INTEGER NOT NULL DEFAULT 0,
		assignee TEXT REFERENCES users(email),
		PRIMARY KEY (board_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee);
	CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state);
	CREATE INDEX IF NOT EXISTS idx_board_members_email ON board_members(email);
	CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_email);
	`

	_, err = conn.Exec(s.ctx, query)
	return err
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

// seedUser добавляет пользователя, нужного внешним ключам
func (s *PostgresTestSuite) seedUser(email string) {
	err := s.storage.Users().Insert(s.ctx, &repository.UserRecord{Email: email, Password: "Aa1111"})
	require.NoError(s.T(), err)
}

// seedBoard добавляет доску вместе с владельцем
func (s *PostgresTestSuite) seedBoard(id int, name, owner string) {
	s.seedUser(owner)
	err := s.storage.Boards().Insert(s.ctx, &repository.BoardRecord{
		ID:         id,
		Name:       name,
		OwnerEmail: owner,
		Members:    []string{owner},
	})
	require.NoError(s.T(), err)
}

// TestUserRepo тестирует репозиторий пользователей
func (s *PostgresTestSuite) TestUserRepo() {
	ctx := context.Background()

	s.seedUser("a@x.com")
	s.seedUser("b@x.com")

	records, err := s.storage.Users().LoadAll(ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), records, 2)

	// повторная вставка того же email нарушает первичный ключ
	err = s.storage.Users().Insert(ctx, &repository.UserRecord{Email: "a@x.com", Password: "Bb2222"})
	require.Error(s.T(), err)

	err = s.storage.Users().DeleteAll(ctx)
	require.NoError(s.T(), err)

	records, err = s.storage.Users().LoadAll(ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}

// TestBoardRepo тестирует доски вместе с участниками
func (s *PostgresTestSuite) TestBoardRepo() {
	ctx := context.Background()

	s.seedBoard(0, "proj", "a@x.com")
	s.seedUser("b@x.com")

	err := s.storage.Boards().AddMember(ctx, 0, "b@x.com")
	require.NoError(s.T(), err)

	// повторное добавление того же участника проходит без ошибки
	err = s.storage.Boards().AddMember(ctx, 0, "b@x.com")
	require.NoError(s.T(), err)

	records, err := s.storage.Boards().LoadAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "proj", records[0].Name)
	assert.Equal(s.T(), "a@x.com", records[0].OwnerEmail)
	assert.ElementsMatch(s.T(), []string{"a@x.com", "b@x.com"}, records[0].Members)

	err = s.storage.Boards().RemoveMember(ctx, 0, "b@x.com")
	require.NoError(s.T(), err)

	err = s.storage.Boards().SetOwner(ctx, 0, "b@x.com")
	require.NoError(s.T(), err)

	records, err = s.storage.Boards().LoadAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "b@x.com", records[0].OwnerEmail)
	assert.Equal(s.T(), []string{"a@x.com"}, records[0].Members)

	// отсутствующая доска
	err = s.storage.Boards().SetOwner(ctx, 42, "b@x.com")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	err = s.storage.Boards().Delete(ctx, 42)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	// удаление доски каскадно убирает участников
	err = s.storage.Boards().Delete(ctx, 0)
	require.NoError(s.T(), err)

	records, err = s.storage.Boards().LoadAll(ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}

// TestColumnRepo тестирует колонки и лимиты
func (s *PostgresTestSuite) TestColumnRepo() {
	ctx := context.Background()

	for ordinal, name := range []string{"backlog", "in progress", "done"} {
		err := s.storage.Columns().Insert(ctx, &repository.ColumnRecord{
			BoardID:   0,
			Ordinal:   ordinal,
			Name:      name,
			TaskLimit: -1,
		})
		require.NoError(s.T(), err)
	}

	err := s.storage.Columns().UpdateColumnLimit(ctx, 0, 1, 5)
	require.NoError(s.T(), err)

	err = s.storage.Columns().UpdateColumnLimit(ctx, 42, 0, 5)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	records, err := s.storage.Columns().LoadAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 3)
	for _, rec := range records {
		if rec.Ordinal == 1 {
			assert.Equal(s.T(), 5, rec.TaskLimit)
		} else {
			assert.Equal(s.T(), -1, rec.TaskLimit)
		}
	}

	err = s.storage.Columns().DeleteBoardColumns(ctx, 0)
	require.NoError(s.T(), err)

	records, err = s.storage.Columns().LoadAll(ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}

// TestTaskRepo тестирует задачи и точечные обновления полей
func (s *PostgresTestSuite) TestTaskRepo() {
	ctx := context.Background()

	s.seedUser("a@x.com")

	rec := &repository.TaskRecord{
		BoardID:      0,
		ID:           0,
		CreationTime: time.Now().UTC(),
		DueDate:      time.Now().UTC().Add(24 * time.Hour),
		Title:        "Test Task",
		Description:  "Test Description",
		State:        0,
	}
	err := s.storage.Tasks().Insert(ctx, rec)
	require.NoError(s.T(), err)

	assignee := "a@x.com"
	require.NoError(s.T(), s.storage.Tasks().UpdateField(ctx, 0, 0, "title", "New Title"))
	require.NoError(s.T(), s.storage.Tasks().UpdateField(ctx, 0, 0, "state", 2))
	require.NoError(s.T(), s.storage.Tasks().UpdateField(ctx, 0, 0, "assignee", &assignee))

	records, err := s.storage.Tasks().LoadAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "New Title", records[0].Title)
	assert.Equal(s.T(), 2, records[0].State)
	require.NotNil(s.T(), records[0].Assignee)
	assert.Equal(s.T(), "a@x.com", *records[0].Assignee)

	// снятие исполнителя пишет NULL
	require.NoError(s.T(), s.storage.Tasks().UpdateField(ctx, 0, 0, "assignee", (*string)(nil)))

	records, err = s.storage.Tasks().LoadAll(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Nil(s.T(), records[0].Assignee)

	// отсутствующая задача и неизвестное поле
	err = s.storage.Tasks().UpdateField(ctx, 0, 42, "title", "x")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	err = s.storage.Tasks().UpdateField(ctx, 0, 0, "color", "red")
	require.Error(s.T(), err)

	err = s.storage.Tasks().DeleteBoardTasks(ctx, 0)
	require.NoError(s.T(), err)

	records, err = s.storage.Tasks().LoadAll(ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}

// TestStorage_HealthCheck тестирует проверку соединения
func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	err := s.storage.HealthCheck(context.Background())
	require.NoError(s.T(), err)
}

// Unit тесты (без базы данных)
func TestStorage_New(t *testing.T) {
	tests := []struct {
		name        string
		connString  string
		expectError bool
	}{
		{
			name:        "invalid connection string",
			connString:  "invalid",
			expectError: true,
		},
		{
			name:        "empty connection string",
			connString:  "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			_, err := postgres.New(ctx, tt.connString)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
