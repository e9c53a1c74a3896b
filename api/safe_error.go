package api

import (
	"errors"

	"finplan/service"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// internalErrorMessage 500 时返回给客户端的通用信息，细节只写日志
const internalErrorMessage = "Erro interno do servidor"

// handleError 将 service 层错误映射为 HTTP 响应
func handleError(c *gin.Context, err error) {
	if vErr, ok := service.AsValidationError(err); ok {
		ValidationFailed(c, vErr.Message, vErr.Fields)
		return
	}
	if nErr, ok := service.AsNotFoundError(err); ok {
		NotFound(c, nErr.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, "Usuário não autenticado")
	case errors.Is(err, service.ErrAIDisabled):
		BadRequest(c, "O resumo por IA não está habilitado")
	default:
		log.Error().
			Err(err).
			Str("request_id", requestid.Get(c)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		InternalError(c, internalErrorMessage)
	}
}
