package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/burnwise/coordinator/pkg/agent"
	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/config"
	"github.com/burnwise/coordinator/pkg/coordinator"
	"github.com/burnwise/coordinator/pkg/events"
	"github.com/burnwise/coordinator/pkg/models"
)

// submitRequest is the wire shape for POST /requests (spec §6). It mirrors
// BurnRequest's fields under snake_case names rather than exposing the
// domain struct directly, so the HTTP contract and the internal model can
// drift independently.
type submitRequest struct {
	FarmID        string            `json:"farm_id" binding:"required"`
	FieldBoundary models.Polygon    `json:"field_boundary" binding:"required"`
	Acres         float64           `json:"acres"`
	FuelType      string            `json:"fuel_type"`
	Intensity     string            `json:"intensity"`
	BurnDate      string            `json:"burn_date" binding:"required"` // "2006-01-02"
	TimeWindow    models.TimeWindow `json:"time_window"`
	PriorityScore float64           `json:"priority_score"`
	ContactMethod string            `json:"contact_method"`
	ContactHandle string            `json:"contact_handle"`
}

func newRouter(cfg *config.Config, coord *coordinator.Coordinator, ws *events.WSManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", handleHealth(coord))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/requests", handleSubmit(coord))
	r.GET("/requests/:id", handleStatus(coord))
	r.POST("/requests/:id/approve", handleDecision(coord, agent.ApprovalApprove))
	r.POST("/requests/:id/reject", handleDecision(coord, agent.ApprovalReject))
	r.POST("/requests/:id/cancel", handleCancel(coord))
	r.GET("/events", handleEvents(ws))

	return r
}

func handleHealth(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"queue_depth": coord.QueueDepth(),
		})
	}
}

func handleSubmit(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body submitRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		date, err := time.Parse("2006-01-02", body.BurnDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "burn_date must be YYYY-MM-DD"})
			return
		}

		req := models.BurnRequest{
			FarmID:        body.FarmID,
			Field:         body.FieldBoundary,
			Acres:         body.Acres,
			Fuel:          models.FuelType(body.FuelType),
			Intensity:     models.IntensityFactor(body.Intensity),
			BurnDate:      date,
			Window:        body.TimeWindow,
			Priority:      body.PriorityScore,
			Contact:       models.ContactMethod(body.ContactMethod),
			ContactHandle: body.ContactHandle,
		}

		id, err := coord.Submit(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	}
}

func handleStatus(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, ok := coord.Status(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
			return
		}
		body := gin.H{"id": status.ID, "state": status.State}
		if status.Err != nil {
			body["error"] = status.Err.Error()
		}
		if status.Schedule != nil {
			body["schedule"] = status.Schedule
		}
		c.JSON(http.StatusOK, body)
	}
}

func handleDecision(coord *coordinator.Coordinator, decision agent.ApprovalDecision) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !coord.Approve(c.Param("id"), decision) {
			c.JSON(http.StatusConflict, gin.H{"error": "request not awaiting a decision"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleCancel(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !coord.Cancel(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not running"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleEvents(ws *events.WSManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocketAccept(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ws.HandleConnection(c.Request.Context(), conn)
	}
}

func writeError(c *gin.Context, err error) {
	kind, _ := bwerr.KindOf(err)
	switch kind {
	case bwerr.KindBackpressure:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case bwerr.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
