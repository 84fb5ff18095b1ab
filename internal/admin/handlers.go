package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

type SummaryUseCaseInterface interface {
	Summary(ctx context.Context) (*Summary, error)
}

type SummaryHandler struct {
	useCase SummaryUseCaseInterface
}

func NewSummaryHandler(useCase SummaryUseCaseInterface) *SummaryHandler {
	return &SummaryHandler{useCase: useCase}
}

// GetSummary serves GET /admin/summary. The route is admin only.
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	summary, err := h.useCase.Summary(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
