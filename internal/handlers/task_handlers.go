package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"taskManager/internal/dto"
	"taskManager/internal/logger"
	"taskManager/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "task-manager"

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/openapi.yaml", s.OpenAPI)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.GetTasks)  // GET /tasks?pageNumber=&pageSize=
		r.Post("/", s.PostTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", s.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", s.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName),
	)
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	pageNumber, busErr := parsePositiveQuery(r, "pageNumber")
	if busErr != nil {
		handleBusinessError(w, busErr)
		return
	}
	pageSize, busErr := parsePositiveQuery(r, "pageSize")
	if busErr != nil {
		handleBusinessError(w, busErr)
		return
	}

	tasks, err := s.TaskService.FindAllTasks(r.Context(), pageNumber, pageSize)
	if err != nil {
		handleServiceError(w, r, err, "get_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, tasks)
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	request, ok := decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := s.TaskService.CreateTask(r.Context(), request)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, task)
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, busErr := parseID(r)
	if busErr != nil {
		handleBusinessError(w, busErr)
		return
	}

	task, err := s.TaskService.FindTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.Int64("task_id", task.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, task)
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, busErr := parseID(r)
	if busErr != nil {
		handleBusinessError(w, busErr)
		return
	}

	request, ok := decodeTaskRequest(w, r)
	if !ok {
		return
	}

	task, err := s.TaskService.UpdateTask(r.Context(), id, request)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, task)
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, busErr := parseID(r)
	if busErr != nil {
		handleBusinessError(w, busErr)
		return
	}

	if err := s.TaskService.DeleteTaskByID(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	w.WriteHeader(http.StatusOK)
}

// decodeTaskRequest сам пишет ответ об ошибке и возвращает false
func decodeTaskRequest(w http.ResponseWriter, r *http.Request) (dto.CreateOrUpdateTaskRequest, bool) {
	var request dto.CreateOrUpdateTaskRequest

	if !checkContentType(r, jsonContentType) {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", jsonContentType),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
			"Content-Type должен быть application/json")
		return request, false
	}

	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, service.NewValidationError("body", "неверное тело запроса: "+err.Error()))
		return request, false
	}
	// после объекта допустимы только пробелы
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		logger.Warn("HTTP: данные после JSON-объекта",
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, service.NewValidationError("body", "после JSON-объекта есть лишние данные"))
		return request, false
	}

	if busErr := validateTaskRequest(request); busErr != nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.Any("details", busErr.Details),
			zap.String("client_ip", r.RemoteAddr))

		handleBusinessError(w, busErr)
		return request, false
	}

	return request, true
}
