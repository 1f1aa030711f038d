package flags

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghxstship/recordguard/internal/api/models/common"
	"github.com/ghxstship/recordguard/internal/domain/flag"
)

var subPath = "flags"

var flagNameKey = "flag_name"
var subjectQueryKey = "subject"

// Evaluation is the result of evaluating a flag for a subject
type Evaluation struct {
	Name    flag.Name `json:"name"`
	Enabled bool      `json:"enabled"`
}

type RoutesHandler struct {
	Flags flag.Registry
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	subGroup := routerGroup.Group(subPath)
	subGroup.GET("/:"+flagNameKey, h.evaluate)
}

// @Summary Evaluate a feature flag
// @ID evaluate-flag
// @Tags flags
// @Description Evaluates a feature flag for a given subject. The same subject always evaluates the same way for a given flag and rollout percentage.
// @Accept  json
// @Produce  json
// @Param   flag_name path string true "The name of the flag"
// @Param   subject query string true "The subject (e.g. org) the flag is evaluated for"
// @Success 200 {object} flags.Evaluation
// @Failure 400 {object} common.Body "Missing subject"
// @Failure 404 {object} common.Body "Flag is not configured"
// @Router /flags/{flag_name} [get]
func (h *RoutesHandler) evaluate(c *gin.Context) {
	name := flag.Name(c.Param(flagNameKey))
	subject := c.Query(subjectQueryKey)
	if subject == "" {
		c.JSON(http.StatusBadRequest, common.Body{
			Message: "The [subject] query parameter is required.",
			Type:    "validation",
		})
		return
	}
	if _, configured := h.Flags.Get(name); !configured {
		c.JSON(http.StatusNotFound, common.Body{
			Message: "No such flag.",
			Type:    "not_found",
		})
		return
	}
	c.JSON(http.StatusOK, Evaluation{
		Name:    name,
		Enabled: h.Flags.IsEnabledFor(name, subject),
	})
}
