package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/kam-assistant-api/internal/models"
	"github.com/user/kam-assistant-api/internal/services/ingest"
	"github.com/user/kam-assistant-api/internal/services/report"
)

// Pinger - проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler - обработчики HTTP-запросов
type Handler struct {
	store  Pinger
	ingest *ingest.Service
	report *report.Service
	pdf    *report.PDFGenerator
	now    func() time.Time
}

// NewHandler создаёт новый обработчик
func NewHandler(store Pinger, ingestSvc *ingest.Service, reportSvc *report.Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store:  store,
		ingest: ingestSvc,
		report: reportSvc,
		pdf:    report.NewPDFGenerator(),
		now:    now,
	}
}

// === Ingest ===

// Ingest принимает JSON-массив активностей и сохраняет его одной транзакцией
func (h *Handler) Ingest(c *gin.Context) {
	var rows []models.ActivityInput
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	inserted, err := h.ingest.Ingest(c.Request.Context(), rows)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "inserted": inserted})
}

// === Dashboard ===

// GetDashboard возвращает KPI пользователя
func (h *Handler) GetDashboard(c *gin.Context) {
	result, err := h.report.Dashboard(c.Request.Context(), c.Param("user"), h.now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDashboardPDF отдаёт дашборд в виде PDF
func (h *Handler) GetDashboardPDF(c *gin.Context) {
	user := c.Param("user")
	now := h.now()

	result, err := h.report.Dashboard(c.Request.Context(), user, now)
	if err != nil {
		writeError(c, err)
		return
	}

	pdfBytes, err := h.pdf.GenerateDashboardPDF(user, result, now)
	if err != nil {
		log.Printf("[Dashboard] Ошибка генерации PDF для %s: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка генерации PDF"})
		return
	}

	filename := fmt.Sprintf("dashboard_%s_%s.pdf", models.DateOf(now), sanitizeFilename(user))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// === Health ===

// Health проверяет доступность БД
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError переводит таксономию ошибок в HTTP-статусы
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// validationMessage убирает префикс "validation error: "
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
}

// sanitizeFilename оставляет в имени файла только безопасные символы
func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
