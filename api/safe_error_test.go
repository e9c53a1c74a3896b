package api

import (
	"errors"
	"fmt"
	"testing"

	"finplan/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", fmt.Errorf("criar regra: %w", service.FieldError("percentage", "Percentual inválido")), 400, "Percentual inválido"},
		{"not found", fmt.Errorf("buscar meta: %w", service.NewNotFoundError("Meta não encontrada")), 404, "Meta não encontrada"},
		{"unauthorized", service.ErrUnauthorized, 401, "Usuário não autenticado"},
		{"ai disabled", service.ErrAIDisabled, 400, "O resumo por IA não está habilitado"},
		{"internal", errors.New("connection refused"), 500, internalErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { handleError(c, tt.err) })

			w := perform(router, "GET", "/", "")

			assert.Equal(t, tt.code, w.Code)
			resp := decode(t, w)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.message, resp["message"])
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}

	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		handleError(c, fmt.Errorf("wrapped: %w", service.FieldError("percentage", "Percentual inválido")))
	})
	errs := decode(t, perform(router, "GET", "/", ""))["errors"].(map[string]interface{})
	assert.Equal(t, "Percentual inválido", errs["percentage"])
}
