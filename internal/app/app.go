package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"kanbanTracker/internal/config"
	"kanbanTracker/internal/handlers"
	"kanbanTracker/internal/logger"
	"kanbanTracker/internal/middleware"
	"kanbanTracker/internal/models/user"
	"kanbanTracker/internal/repository"
	"kanbanTracker/internal/repository/inmemory"
	"kanbanTracker/internal/repository/postgres"
	"kanbanTracker/internal/service"
	"kanbanTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	registry  *service.Registry
	worker    *worker.OverdueWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	users, boards, columns, tasks, err := a.initStorage(ctx)
	if err != nil {
		return err
	}

	a.registry = service.NewRegistry(users, boards, columns, tasks, user.DefaultPasswordChecker{})
	if err := a.registry.LoadData(ctx); err != nil {
		return fmt.Errorf("загрузка данных: %w", err)
	}

	if a.config.Worker.Enabled {
		interval := a.config.Worker.Interval
		a.worker = worker.NewOverdueWorker(a.registry, &interval)
	}

	a.initRouter()

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return nil
}

func (a *App) initStorage(ctx context.Context) (repository.UserRepository, repository.BoardRepository,
	repository.ColumnRepository, repository.TaskRepository, error) {

	switch a.config.Repository.Type {
	case "postgres":
		storage, err := postgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("миграции: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		return storage.Users(), storage.Boards(), storage.Columns(), storage.Tasks(), nil

	case "inmemory":
		storage := inmemory.NewStorage()
		return storage.Users(), storage.Boards(), storage.Columns(), storage.Tasks(), nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("неизвестный тип репозитория: %s", a.config.Repository.Type)
	}
}

func (a *App) initRouter() {
	userHandler := handlers.NewUserHandler(a.registry)
	boardHandler := handlers.NewBoardHandler(a.registry)
	taskHandler := handlers.NewTaskHandler(a.registry)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(100))

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register) // POST /users/register
		r.Post("/login", userHandler.Login)       // POST /users/login
		r.Post("/logout", userHandler.Logout)     // POST /users/logout
	})

	r.Route("/boards", func(r chi.Router) {
		r.Get("/", boardHandler.GetUserBoards) // GET /boards?email=
		r.Post("/", boardHandler.CreateBoard)  // POST /boards
		r.Delete("/", boardHandler.DeleteBoard)

		r.Post("/transfer", boardHandler.TransferOwnership) // POST /boards/transfer

		r.Route("/columns", func(r chi.Router) {
			r.Get("/", boardHandler.GetColumn)           // GET /boards/columns?email=&board=&ordinal=
			r.Get("/name", boardHandler.GetColumnName)   // GET /boards/columns/name
			r.Get("/limit", boardHandler.GetColumnLimit) // GET /boards/columns/limit
			r.Put("/limit", boardHandler.LimitColumn)    // PUT /boards/columns/limit
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/name", boardHandler.GetBoardName) // GET /boards/{id}/name?email=
			r.Post("/join", boardHandler.JoinBoard)   // POST /boards/{id}/join
			r.Post("/leave", boardHandler.LeaveBoard) // POST /boards/{id}/leave
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.CreateTask)             // POST /tasks
		r.Get("/inprogress", taskHandler.GetInProgress) // GET /tasks/inprogress?email=

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", taskHandler.UpdateTask)        // PUT /tasks/{id}
			r.Post("/move", taskHandler.MoveTask)     // POST /tasks/{id}/move
			r.Post("/assign", taskHandler.AssignTask) // POST /tasks/{id}/assign
		})
	})

	r.Get("/health", userHandler.HealthCheck)

	a.router = r
}

// Run запускает сервер и воркер и ждёт отмены контекста
func (a *App) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if a.worker != nil {
		go a.worker.Start(workerCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
