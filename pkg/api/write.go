package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/registry"
	"github.com/komodo-run/komodo-core/pkg/sync"
)

// writeOp names the CRUD action a /write body requests, carried in
// params.op alongside type/id/name/tags/config the same envelope.
type writeOp string

const (
	writeCreate writeOp = "Create"
	writeUpdate writeOp = "Update"
	writeDelete writeOp = "Delete"
)

type writeRequest struct {
	Type   models.Kind `json:"type" binding:"required"`
	Params struct {
		Op     writeOp        `json:"op" binding:"required"`
		ID     string         `json:"id"`
		Name   string         `json:"name"`
		Tags   []string       `json:"tags"`
		Config map[string]any `json:"config"`
	} `json:"params"`
}

// Writer serves /write: create/update/delete dispatched through the same
// per-kind sync.Adapter the ResourceSync engine applies declared config
// through, so there's exactly one Merge/Diff code path per kind instead of
// a second one duplicated for interactive API calls.
type Writer struct {
	Registry    *registry.Registry
	Adapters    map[models.Kind]sync.Adapter
	Permissions *permission.Engine
}

func NewWriter(reg *registry.Registry, adapters map[models.Kind]sync.Adapter, perms *permission.Engine) *Writer {
	return &Writer{Registry: reg, Adapters: adapters, Permissions: perms}
}

func (w *Writer) Handle(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adapter, ok := w.Adapters[req.Type]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind"})
		return
	}
	handler, err := w.Registry.Get(req.Type)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	user := userFrom(c)
	ctx := c.Request.Context()

	switch req.Params.Op {
	case writeCreate:
		ok, err := w.Permissions.HasLevel(ctx, user, models.NewTarget(req.Type, ""), models.LevelWrite)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "write permission required"})
			return
		}
		id, err := adapter.Create(ctx, req.Params.Name, req.Params.Tags, req.Params.Config)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := handler.PostCreate(ctx, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})

	case writeUpdate:
		target := models.NewTarget(req.Type, req.Params.ID)
		if handler.Busy(req.Params.ID) {
			c.JSON(http.StatusConflict, gin.H{"error": "resource busy"})
			return
		}
		ok, err := w.Permissions.HasLevel(ctx, user, target, models.LevelWrite)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "write permission required"})
			return
		}
		if err := adapter.Update(ctx, req.Params.ID, req.Params.Config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := handler.PostUpdate(ctx, req.Params.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})

	case writeDelete:
		target := models.NewTarget(req.Type, req.Params.ID)
		if handler.Busy(req.Params.ID) {
			c.JSON(http.StatusConflict, gin.H{"error": "resource busy"})
			return
		}
		ok, err := w.Permissions.HasLevel(ctx, user, target, models.LevelWrite)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "write permission required"})
			return
		}
		if err := handler.PreDelete(ctx, req.Params.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := adapter.Delete(ctx, req.Params.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := handler.PostDelete(ctx, req.Params.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown write op"})
	}
}
