package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"raffle/internal/logger"
	"raffle/internal/raffle"
	"raffle/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

const defaultDrawsLimit = 20

// HTTPHandler exposes the raffle and its journal over HTTP.
type HTTPHandler struct {
	raffle  *raffle.Raffle
	journal storage.Storage
}

func NewHTTPHandler(r *raffle.Raffle, journal storage.Storage) *HTTPHandler {
	return &HTTPHandler{
		raffle:  r,
		journal: journal,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/raffle", h.GetRaffle)
	router.GET("/raffle/upkeep", h.CheckUpkeep)
	router.GET("/raffle/players/:index", h.GetPlayer)
	router.POST("/raffle/enter", h.Enter)
	router.GET("/draws", h.GetDraws)
	router.GET("/draws/:requestId", h.GetDraw)
}

// RequestLogger logs every request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func snapshotResponse(s raffle.Snapshot) gin.H {
	response := gin.H{
		"state":          s.State.String(),
		"round":          s.Round,
		"entranceFee":    uint64(s.EntranceFee),
		"interval":       s.Interval.String(),
		"players":        s.Players,
		"balance":        uint64(s.Balance),
		"lastTimestamp":  s.LastTimestamp,
		"elapsed":        s.Elapsed.String(),
		"recentWinner":   nil,
		"pendingRequest": s.PendingRequest,
	}
	if s.RecentWinner != nil {
		response["recentWinner"] = s.RecentWinner.ToRaw()
	}
	return response
}

func (h *HTTPHandler) GetRaffle(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotResponse(h.raffle.Snapshot()))
}

func (h *HTTPHandler) CheckUpkeep(c *gin.Context) {
	due, snapshot := h.raffle.CheckUpkeep()
	c.JSON(http.StatusOK, gin.H{
		"upkeepNeeded": due,
		"raffle":       snapshotResponse(snapshot),
	})
}

func (h *HTTPHandler) GetPlayer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player index"})
		return
	}

	player, err := h.raffle.Player(index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"index": index, "player": player.ToRaw()})
}

type enterRequest struct {
	Player  string  `json:"player" binding:"required"`
	Payment *uint64 `json:"payment" binding:"required"`
}

func (h *HTTPHandler) Enter(c *gin.Context) {
	var request enterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player and payment are required"})
		return
	}

	player, err := ton.ParseAccountID(request.Player)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player address"})
		return
	}

	err = h.raffle.Enter(player, tlb.Grams(*request.Payment))
	switch {
	case errors.Is(err, raffle.ErrInsufficientPayment), errors.Is(err, raffle.ErrBalanceOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, raffle.ErrNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Error("http: enter failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player":  player.ToRaw(),
		"players": h.raffle.NumberOfPlayers(),
	})
}

func drawResponse(draw *storage.DrawRecord) gin.H {
	return gin.H{
		"requestId":   draw.RequestID,
		"round":       draw.Round,
		"players":     draw.Players,
		"requestedAt": draw.RequestedAt,
		"winner":      draw.Winner,
		"prize":       draw.Prize,
		"fulfilledAt": draw.FulfilledAt,
	}
}

func (h *HTTPHandler) GetDraws(c *gin.Context) {
	limit := defaultDrawsLimit
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	draws, err := h.journal.GetDraws(limit)
	if err != nil {
		logger.Error("http: cannot read draws", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	response := make([]gin.H, 0, len(draws))
	for _, draw := range draws {
		response = append(response, drawResponse(draw))
	}
	c.JSON(http.StatusOK, response)
}

func (h *HTTPHandler) GetDraw(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("requestId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	draw, err := h.journal.GetDraw(requestID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "draw not found"})
		return
	}
	if err != nil {
		logger.Error("http: cannot read draw", zap.Uint64("requestID", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, drawResponse(draw))
}
