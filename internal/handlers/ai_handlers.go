package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/kam-assistant-api/internal/services/ai"
)

// AIHandler - обработчики для AI эндпоинтов
type AIHandler struct {
	aiService *ai.Service
	now       func() time.Time
}

// NewAIHandler создаёт новый обработчик AI
func NewAIHandler(aiService *ai.Service, now func() time.Time) *AIHandler {
	if now == nil {
		now = time.Now
	}
	return &AIHandler{
		aiService: aiService,
		now:       now,
	}
}

// Analyze запускает анализ активностей пользователя.
// Всегда 200: сбои возвращаются в теле с ключом error.
func (h *AIHandler) Analyze(c *gin.Context) {
	result := h.aiService.Analyze(c.Request.Context(), c.Param("user"), h.now())
	c.JSON(http.StatusOK, result)
}
