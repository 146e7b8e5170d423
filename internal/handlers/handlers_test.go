package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"taskManager/internal/dto"
	"taskManager/internal/handlers"
	"taskManager/internal/mapper"
	"taskManager/internal/models/task"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, req dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(dto.TaskResponse), args.Error(1)
}

func (m *MockTaskService) FindTaskByID(ctx context.Context, id int64) (dto.TaskResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(dto.TaskResponse), args.Error(1)
}

func (m *MockTaskService) FindAllTasks(ctx context.Context, pageNumber, pageSize int) ([]dto.TaskResponse, error) {
	args := m.Called(ctx, pageNumber, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.TaskResponse), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, req dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(dto.TaskResponse), args.Error(1)
}

func (m *MockTaskService) DeleteTaskByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.Service = (*MockTaskService)(nil)

func ptr[T any](v T) *T {
	return &v
}

func newRouter(svc handlers.Service) http.Handler {
	r := chi.NewRouter()
	handlers.NewTaskHandler(svc).Register(r)
	return r
}

func do(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func futureDate() string {
	return time.Now().AddDate(1, 0, 0).Format(dto.DateTimeLayout)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService), http.MethodGet, "/health", "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "task-manager")

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_OpenAPI документ разбирается как YAML и описывает все маршруты
func TestTaskHandler_OpenAPI(t *testing.T) {
	w := do(newRouter(new(MockTaskService)), http.MethodGet, "/openapi.yaml", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))

	var doc struct {
		OpenAPI string                    `yaml:"openapi"`
		Paths   map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
	assert.True(t, strings.HasPrefix(doc.OpenAPI, "3."))

	expected := map[string]map[string][]string{
		"/tasks":      {"get": {"200", "400", "500"}, "post": {"201", "400", "415", "500"}},
		"/tasks/{id}": {"get": {"200", "400", "404"}, "put": {"200", "400", "404", "415"}, "delete": {"200", "400"}},
		"/health":     {"get": {"200", "503"}},
	}
	for path, methods := range expected {
		require.Contains(t, doc.Paths, path)
		for method, codes := range methods {
			operation, ok := doc.Paths[path][method].(map[string]any)
			require.True(t, ok, "%s %s", method, path)
			responses, ok := operation["responses"].(map[string]any)
			require.True(t, ok, "%s %s", method, path)
			for _, code := range codes {
				assert.Contains(t, responses, code, "%s %s", method, path)
			}
		}
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	due := futureDate()

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success - create task",
			requestBody: fmt.Sprintf(`{
				"title": "Test Task",
				"description": "Test Description",
				"dueDate": "%s",
				"completed": "IN_PROCESS"
			}`, due),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(req dto.CreateOrUpdateTaskRequest) bool {
					return *req.Title == "Test Task" && req.DueDate.String() == due
				})).Return(dto.TaskResponse{ID: 1, Title: ptr("Test Task")}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "success - all fields optional",
			requestBody: `{}`,
			contentType: "application/json; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, dto.CreateOrUpdateTaskRequest{}).
					Return(dto.TaskResponse{ID: 2}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - trailing data after object",
			requestBody:    `{"title": "a"} junk`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - second object",
			requestBody:    `{"title": "a"}{"title": "b"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:        "success - trailing whitespace",
			requestBody: "{\"title\": \"a\"}\n\t ",
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(dto.TaskResponse{ID: 3}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - title too long",
			requestBody:    fmt.Sprintf(`{"title": "%s"}`, strings.Repeat("a", 65)),
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - description too long",
			requestBody:    fmt.Sprintf(`{"description": "%s"}`, strings.Repeat("a", 256)),
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - unknown completed value",
			requestBody:    `{"completed": "FINISHED"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - due date in the past",
			requestBody:    `{"dueDate": "2020-01-01T10:00:00"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:           "error - due date wrong format",
			requestBody:    `{"dueDate": "01.01.2099 10:00"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  service.CodeValidation,
		},
		{
			name:        "error - service error",
			requestBody: `{"title": "Test Task"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(dto.TaskResponse{}, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  service.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService), http.MethodPost, "/tasks", tt.contentType, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w)["error"])
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: "1",
			setupMock: func(m *MockTaskService) {
				m.On("FindTaskByID", mock.Anything, int64(1)).
					Return(dto.TaskResponse{ID: 1, Title: ptr("Test Task")}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - not a number",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - zero id",
			taskID:         "0",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - negative id",
			taskID:         "-4",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: "2",
			setupMock: func(m *MockTaskService) {
				m.On("FindTaskByID", mock.Anything, int64(2)).
					Return(dto.TaskResponse{}, service.NewNotFound(2))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - internal error",
			taskID: "3",
			setupMock: func(m *MockTaskService) {
				m.On("FindTaskByID", mock.Anything, int64(3)).
					Return(dto.TaskResponse{}, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService), http.MethodGet, "/tasks/"+tt.taskID, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(1), response.ID)
				assert.Equal(t, "Test Task", *response.Title)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTasks тестирует постраничное получение
func TestTaskHandler_GetTasks(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedLen    int
	}{
		{
			name:  "success - page of tasks",
			query: "?pageNumber=1&pageSize=20",
			setupMock: func(m *MockTaskService) {
				m.On("FindAllTasks", mock.Anything, 1, 20).
					Return([]dto.TaskResponse{{ID: 1}, {ID: 2}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedLen:    2,
		},
		{
			name:  "success - large page size passed to service",
			query: "?pageNumber=2&pageSize=1000",
			setupMock: func(m *MockTaskService) {
				m.On("FindAllTasks", mock.Anything, 2, 1000).
					Return([]dto.TaskResponse{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{"error - missing pageNumber", "?pageSize=20", func(m *MockTaskService) {}, http.StatusBadRequest, 0},
		{"error - missing pageSize", "?pageNumber=1", func(m *MockTaskService) {}, http.StatusBadRequest, 0},
		{"error - zero pageNumber", "?pageNumber=0&pageSize=20", func(m *MockTaskService) {}, http.StatusBadRequest, 0},
		{"error - negative pageSize", "?pageNumber=1&pageSize=-1", func(m *MockTaskService) {}, http.StatusBadRequest, 0},
		{"error - not a number", "?pageNumber=one&pageSize=20", func(m *MockTaskService) {}, http.StatusBadRequest, 0},
		{
			name:  "error - service error",
			query: "?pageNumber=1&pageSize=20",
			setupMock: func(m *MockTaskService) {
				m.On("FindAllTasks", mock.Anything, 1, 20).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService), http.MethodGet, "/tasks"+tt.query, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response []dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.NotNil(t, response)
				assert.Len(t, response, tt.expectedLen)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpdateTask", mock.Anything, int64(1), mock.MatchedBy(func(req dto.CreateOrUpdateTaskRequest) bool {
			return *req.Title == "New Title" && *req.Completed == task.CompletedDone
		})).Return(dto.TaskResponse{ID: 1, Title: ptr("New Title"), Completed: ptr(task.CompletedDone)}, nil)

		w := do(newRouter(mockService), http.MethodPut, "/tasks/1", "application/json",
			`{"title": "New Title", "completed": "DONE"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "New Title", *response.Title)
		mockService.AssertExpectations(t)
	})

	t.Run("error - not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("UpdateTask", mock.Anything, int64(9), mock.Anything).
			Return(dto.TaskResponse{}, service.NewNotFound(9))

		w := do(newRouter(mockService), http.MethodPut, "/tasks/9", "application/json", `{"title": "x"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, service.CodeNotFound, body["error"])
		assert.Contains(t, body["message"], "9")
		mockService.AssertExpectations(t)
	})

	t.Run("error - invalid id", func(t *testing.T) {
		mockService := new(MockTaskService)
		w := do(newRouter(mockService), http.MethodPut, "/tasks/0", "application/json", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - invalid content type", func(t *testing.T) {
		mockService := new(MockTaskService)
		w := do(newRouter(mockService), http.MethodPut, "/tasks/1", "text/xml", `<task/>`)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("error - validation", func(t *testing.T) {
		mockService := new(MockTaskService)
		w := do(newRouter(mockService), http.MethodPut, "/tasks/1", "application/json",
			fmt.Sprintf(`{"title": "%s"}`, strings.Repeat("я", 65)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		details := body["details"].(map[string]any)
		assert.Equal(t, "title", details["field"])
	})
}

// TestTaskHandler_DeleteTaskByID тестирует удаление задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success",
			taskID: "1",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTaskByID", mock.Anything, int64(1)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid id",
			taskID:         "x",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - service error",
			taskID: "1",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTaskByID", mock.Anything, int64(1)).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService), http.MethodDelete, "/tasks/"+tt.taskID, "", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Empty(t, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_ConcurrentRequests тестирует конкурентные запросы
func TestTaskHandler_ConcurrentRequests(t *testing.T) {
	mockService := new(MockTaskService)
	router := newRouter(mockService)

	mockService.On("FindTaskByID", mock.Anything, int64(5)).
		Return(dto.TaskResponse{ID: 5, Title: ptr("Test Task")}, nil).Times(10)

	var wg sync.WaitGroup
	codes := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = do(router, http.MethodGet, "/tasks/5", "", "").Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	mockService.AssertExpectations(t)
}

// TestTaskAPI_Scenario прогоняет полный цикл через настоящий сервис и хранилище в памяти
func TestTaskAPI_Scenario(t *testing.T) {
	store := inmemory.NewTaskStorage()
	router := newRouter(service.NewTaskService(store, mapper.NewTaskMapper()))
	due := "2099-04-01T11:00:00"

	created := do(router, http.MethodPost, "/tasks", "application/json", fmt.Sprintf(`{
		"title": "Title",
		"description": "Description",
		"dueDate": "%s",
		"completed": "IN_PROCESS"
	}`, due))
	require.Equal(t, http.StatusCreated, created.Code)

	var createdTask map[string]any
	require.NoError(t, json.NewDecoder(created.Body).Decode(&createdTask))
	assert.Equal(t, map[string]any{
		"id":          float64(1),
		"title":       "Title",
		"description": "Description",
		"dueDate":     due,
		"completed":   "IN_PROCESS",
	}, createdTask)

	found := do(router, http.MethodGet, "/tasks/1", "", "")
	require.Equal(t, http.StatusOK, found.Code)
	var foundTask map[string]any
	require.NoError(t, json.NewDecoder(found.Body).Decode(&foundTask))
	assert.Equal(t, createdTask, foundTask)

	updated := do(router, http.MethodPut, "/tasks/1", "application/json", `{"title": "Renamed"}`)
	require.Equal(t, http.StatusOK, updated.Code)
	var updatedTask map[string]any
	require.NoError(t, json.NewDecoder(updated.Body).Decode(&updatedTask))
	assert.Equal(t, "Renamed", updatedTask["title"])
	assert.Nil(t, updatedTask["description"])
	assert.Nil(t, updatedTask["dueDate"])
	assert.Nil(t, updatedTask["completed"])

	deleted := do(router, http.MethodDelete, "/tasks/1", "", "")
	assert.Equal(t, http.StatusOK, deleted.Code)

	missing := do(router, http.MethodGet, "/tasks/1", "", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	again := do(router, http.MethodDelete, "/tasks/1", "", "")
	assert.Equal(t, http.StatusOK, again.Code)

	notUpdated := do(router, http.MethodPut, "/tasks/1", "application/json", `{}`)
	assert.Equal(t, http.StatusNotFound, notUpdated.Code)
}

// TestTaskAPI_ListScenario три задачи помещаются на первую страницу
func TestTaskAPI_ListScenario(t *testing.T) {
	store := inmemory.NewTaskStorage()
	router := newRouter(service.NewTaskService(store, mapper.NewTaskMapper()))

	for i := 1; i <= 3; i++ {
		w := do(router, http.MethodPost, "/tasks", "application/json",
			fmt.Sprintf(`{"title": "Task %d", "completed": "NOT_STARTED"}`, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(router, http.MethodGet, "/tasks?pageNumber=1&pageSize=20", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tasks []dto.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tasks))
	require.Len(t, tasks, 3)
	for i, tk := range tasks {
		assert.Equal(t, int64(i+1), tk.ID)
	}

	w = do(router, http.MethodGet, "/tasks?pageNumber=2&pageSize=20", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// смещение не помещается в int
	w = do(router, http.MethodGet, "/tasks?pageNumber=9223372036854775807&pageSize=50", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
