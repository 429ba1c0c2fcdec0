package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kanbanTracker/internal/handlers/dto"
	"kanbanTracker/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		// вне chi-роутера (httptest) параметр лежит в стандартном мультиплексоре
		idParam = r.PathValue("id")
	}
	id, err := strconv.Atoi(idParam)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id задачи",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id:"+err.Error())
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")

	newTask, err := h.TaskService.AddTask(r.Context(), request.Email, request.Board,
		request.DueDate, request.Title, request.Description)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "add_task"),
			zap.String("client_ip", r.RemoteAddr),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int("task_id", newTask.ID()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(newTask)))
}

// UpdateTask применяет переданные поля по одному; первое нарушение
// правила прерывает обновление
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest

	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления:"+err.Error())
		return
	}

	logger.Info("HTTP: запрос к сервису обновления задачи")

	if request.Title != nil {
		if err := h.TaskService.UpdateTaskTitle(r.Context(), request.Email, request.Board, id, *request.Title); err != nil {
			if handleBusinessError(w, err) {
				return
			}
			logger.Error("HTTP: ошибка в Service", err,
				zap.String("operation", "update_task_title"),
				zap.String("client_addr", r.RemoteAddr))
			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if request.Description != nil {
		if err := h.TaskService.UpdateTaskDescription(r.Context(), request.Email, request.Board, id, *request.Description); err != nil {
			if handleBusinessError(w, err) {
				return
			}
			logger.Error("HTTP: ошибка в Service", err,
				zap.String("operation", "update_task_description"),
				zap.String("client_addr", r.RemoteAddr))
			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if request.DueDate != nil {
		if err := h.TaskService.UpdateTaskDueDate(r.Context(), request.Email, request.Board, id, *request.DueDate); err != nil {
			if handleBusinessError(w, err) {
				return
			}
			logger.Error("HTTP: ошибка в Service", err,
				zap.String("operation", "update_task_due_date"),
				zap.String("client_addr", r.RemoteAddr))
			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task_id", id))
}

func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var request dto.MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса перемещения задачи")

	if err := h.TaskService.MoveTaskState(r.Context(), request.Email, request.Board, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "move_task"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача перемещена",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task_id", id))
}

func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var request dto.AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса назначения задачи")

	if err := h.TaskService.AssignTask(r.Context(), request.Email, request.Board, id, request.Assignee); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "assign_task"),
			zap.String("client_addr", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача назначена",
		zap.Int("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task_id", id))
}

func (h *TaskHandler) GetInProgress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	email := r.URL.Query().Get("email")

	logger.Info("HTTP: Вызов сервиса для получения задач в работе")

	tasks, err := h.TaskService.GetAllInProgressByUser(email)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_in_progress"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}
