package handlers

import (
	_ "embed"
	"net/http"
	"taskManager/internal/logger"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPI отдаёт описание API, вшитое в бинарник
func (s *TaskHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(openAPISpec); err != nil {
		logger.Error("HTTP: Не удалось отдать openapi.yaml", err)
	}
}
