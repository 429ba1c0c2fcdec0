package inmemory_test

import (
	"context"
	"testing"
	"time"

	"kanbanTracker/internal/repository"
	"kanbanTracker/internal/repository/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserRepo тестирует хранение пользователей
func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := inmemory.NewStorage().Users()

	require.NoError(t, users.Insert(ctx, &repository.UserRecord{Email: "a@x.com", Password: "Aa1111"}))
	require.NoError(t, users.Insert(ctx, &repository.UserRecord{Email: "b@x.com", Password: "Bb2222"}))

	records, err := users.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.NoError(t, users.DeleteAll(ctx))

	records, err = users.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestBoardRepo тестирует доски и участников
func TestBoardRepo(t *testing.T) {
	ctx := context.Background()
	boards := inmemory.NewStorage().Boards()

	rec := &repository.BoardRecord{ID: 0, Name: "proj", OwnerEmail: "a@x.com", Members: []string{"a@x.com"}}
	require.NoError(t, boards.Insert(ctx, rec))

	t.Run("success - add and remove member", func(t *testing.T) {
		require.NoError(t, boards.AddMember(ctx, 0, "b@x.com"))

		records, err := boards.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.ElementsMatch(t, []string{"a@x.com", "b@x.com"}, records[0].Members)

		require.NoError(t, boards.RemoveMember(ctx, 0, "b@x.com"))

		records, err = boards.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x.com"}, records[0].Members)
	})

	t.Run("success - set owner", func(t *testing.T) {
		require.NoError(t, boards.SetOwner(ctx, 0, "b@x.com"))

		records, err := boards.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", records[0].OwnerEmail)
	})

	t.Run("error - unknown board", func(t *testing.T) {
		assert.ErrorIs(t, boards.AddMember(ctx, 42, "b@x.com"), repository.ErrNotFound)
		assert.ErrorIs(t, boards.RemoveMember(ctx, 42, "b@x.com"), repository.ErrNotFound)
		assert.ErrorIs(t, boards.SetOwner(ctx, 42, "b@x.com"), repository.ErrNotFound)
		assert.ErrorIs(t, boards.Delete(ctx, 42), repository.ErrNotFound)
	})

	t.Run("success - delete", func(t *testing.T) {
		require.NoError(t, boards.Delete(ctx, 0))

		records, err := boards.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

// TestColumnRepo тестирует колонки и их лимиты
func TestColumnRepo(t *testing.T) {
	ctx := context.Background()
	columns := inmemory.NewStorage().Columns()

	for ordinal, name := range []string{"backlog", "in progress", "done"} {
		require.NoError(t, columns.Insert(ctx, &repository.ColumnRecord{
			BoardID:   0,
			Ordinal:   ordinal,
			Name:      name,
			TaskLimit: -1,
		}))
	}
	require.NoError(t, columns.Insert(ctx, &repository.ColumnRecord{BoardID: 1, Ordinal: 0, Name: "backlog", TaskLimit: -1}))

	require.NoError(t, columns.UpdateColumnLimit(ctx, 0, 1, 5))
	assert.ErrorIs(t, columns.UpdateColumnLimit(ctx, 42, 0, 5), repository.ErrNotFound)

	records, err := columns.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	for _, rec := range records {
		if rec.BoardID == 0 && rec.Ordinal == 1 {
			assert.Equal(t, 5, rec.TaskLimit)
		}
	}

	// удаление колонок одной доски не трогает остальные
	require.NoError(t, columns.DeleteBoardColumns(ctx, 0))

	records, err = columns.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].BoardID)
}

// TestTaskRepo тестирует задачи и точечные обновления полей
func TestTaskRepo(t *testing.T) {
	ctx := context.Background()
	tasks := inmemory.NewStorage().Tasks()

	rec := &repository.TaskRecord{
		BoardID:      0,
		ID:           0,
		CreationTime: time.Now(),
		DueDate:      time.Now().Add(24 * time.Hour),
		Title:        "T",
		Description:  "D",
		State:        0,
	}
	require.NoError(t, tasks.Insert(ctx, rec))
	require.NoError(t, tasks.Insert(ctx, &repository.TaskRecord{BoardID: 1, ID: 0, Title: "other"}))

	t.Run("success - update fields", func(t *testing.T) {
		assignee := "a@x.com"
		require.NoError(t, tasks.UpdateField(ctx, 0, 0, "title", "New Title"))
		require.NoError(t, tasks.UpdateField(ctx, 0, 0, "state", 1))
		require.NoError(t, tasks.UpdateField(ctx, 0, 0, "assignee", &assignee))

		records, err := tasks.LoadAll(ctx)
		require.NoError(t, err)
		for _, loaded := range records {
			if loaded.BoardID == 0 {
				assert.Equal(t, "New Title", loaded.Title)
				assert.Equal(t, 1, loaded.State)
				require.NotNil(t, loaded.Assignee)
				assert.Equal(t, "a@x.com", *loaded.Assignee)
			}
		}
	})

	t.Run("error - unknown task or field", func(t *testing.T) {
		assert.ErrorIs(t, tasks.UpdateField(ctx, 0, 42, "title", "x"), repository.ErrNotFound)
		assert.Error(t, tasks.UpdateField(ctx, 0, 0, "color", "red"))
		assert.Error(t, tasks.UpdateField(ctx, 0, 0, "title", 7))
	})

	t.Run("success - board scoped delete", func(t *testing.T) {
		require.NoError(t, tasks.DeleteBoardTasks(ctx, 0))

		records, err := tasks.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1, records[0].BoardID)
	})
}

// TestStorage_Isolation: загруженные записи не делят память с хранилищем
func TestStorage_Isolation(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	original := &repository.BoardRecord{ID: 0, Name: "proj", OwnerEmail: "a@x.com", Members: []string{"a@x.com"}}
	require.NoError(t, storage.Boards().Insert(ctx, original))

	original.Name = "mutated"
	original.Members[0] = "mutated"

	records, err := storage.Boards().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "proj", records[0].Name)
	assert.Equal(t, []string{"a@x.com"}, records[0].Members)

	records[0].Name = "changed by caller"

	records, err = storage.Boards().LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "proj", records[0].Name)

	assignee := "a@x.com"
	taskRec := &repository.TaskRecord{BoardID: 0, ID: 0, Title: "T", Assignee: &assignee}
	require.NoError(t, storage.Tasks().Insert(ctx, taskRec))

	assignee = "mutated"

	loaded, err := storage.Tasks().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.NotNil(t, loaded[0].Assignee)
	assert.Equal(t, "a@x.com", *loaded[0].Assignee)
}
