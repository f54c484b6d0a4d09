package dice

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/skywatch/internal/observability"
)

// Handler serves GET /rolldice.
type Handler struct {
	roller *Roller
	logger observability.Logger
}

// NewHandler creates the handler. A nil roller gets a time-seeded one.
func NewHandler(roller *Roller, logger observability.Logger) *Handler {
	if roller == nil {
		roller = NewRoller(0)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handler{roller: roller, logger: logger}
}

// RollDice handles GET /rolldice?player= and GET /rolldice/:player.
func (h *Handler) RollDice(c *gin.Context) {
	player := c.Param("player")
	if player == "" {
		player = c.Query("player")
	}

	result := h.roller.Roll()

	logger := h.logger.WithContext(c.Request.Context())
	if player == "" {
		logger.Warn("anonymous player is rolling the dice",
			observability.Int("result", result),
		)
	} else {
		logger.Warn("player is rolling the dice",
			observability.String("player", player),
			observability.Int("result", result),
		)
	}

	c.String(http.StatusOK, strconv.Itoa(result))
}
