package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// executeRequest is /execute's {type, params} body. Handle copies it into an
// execution.ExecuteRequest, taking the target's kind from the request type
// via execution.KindFor (unused fields for a given Type are simply left
// zero).
type executeRequest struct {
	Type   execution.RequestType `json:"type" binding:"required"`
	Params executeParams         `json:"params"`
}

type executeParams struct {
	Target   executionTarget `json:"target"`
	Signal   string          `json:"signal"`
	TimeSec  int             `json:"time_sec"`
	Services []string        `json:"services"`
}

type executionTarget struct {
	ID string `json:"id"`
}

// Executor serves /execute: decode, resolve the target kind from the
// request type, and hand off to execution.Engine.Execute. The engine
// itself handles permission checks, the busy-flag guard, and journaling.
type Executor struct {
	Engine *execution.Engine
}

func NewExecutor(engine *execution.Engine) *Executor {
	return &Executor{Engine: engine}
}

func (e *Executor) Handle(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, ok := execution.KindFor(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown execute type"})
		return
	}

	user := userFrom(c)
	execReq := execution.ExecuteRequest{
		Type:     req.Type,
		Target:   models.NewTarget(kind, req.Params.Target.ID),
		Signal:   req.Params.Signal,
		TimeSec:  req.Params.TimeSec,
		Services: req.Params.Services,
	}

	u, err := e.Engine.Execute(c.Request.Context(), execReq, user)
	if err != nil {
		status := http.StatusInternalServerError
		switch err.(type) {
		case *execution.ErrForbidden:
			status = http.StatusForbidden
		case *execution.ErrCancelConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}
