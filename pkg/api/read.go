package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodo-run/komodo-core/pkg/kinds"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/registry"
	"github.com/komodo-run/komodo-core/pkg/sync"
)

// readRequest is /read's {type, params} body. Type names a resource Kind;
// an empty ID in params lists every resource of that kind the subject can
// at least Read, a non-empty ID fetches that one resource's full document.
type readRequest struct {
	Type   models.Kind `json:"type" binding:"required"`
	Params struct {
		ID string `json:"id"`
	} `json:"params"`
}

// Reader serves /read: list/get dispatch generalized over every kind via
// the registry (for monitoring-derived ListItem projections) and the sync
// adapters (for the id/name/tags enumeration list needs).
type Reader struct {
	Registry     *registry.Registry
	SyncAdapters map[models.Kind]sync.Adapter
	RawReaders   map[models.Kind]kinds.RawReader
	Permissions  *permission.Engine
}

func NewReader(reg *registry.Registry, adapters map[models.Kind]sync.Adapter, raw map[models.Kind]kinds.RawReader, perms *permission.Engine) *Reader {
	return &Reader{Registry: reg, SyncAdapters: adapters, RawReaders: raw, Permissions: perms}
}

func (rd *Reader) Handle(c *gin.Context) {
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handler, err := rd.Registry.Get(req.Type)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	user := userFrom(c)
	ctx := c.Request.Context()

	if req.Params.ID != "" {
		target := models.NewTarget(req.Type, req.Params.ID)
		ok, err := rd.Permissions.HasLevel(ctx, user, target, models.LevelRead)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "read permission required"})
			return
		}
		reader, ok := rd.RawReaders[req.Type]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind"})
			return
		}
		raw, err := reader(ctx, req.Params.ID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, raw)
		return
	}

	adapter, ok := rd.SyncAdapters[req.Type]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind"})
		return
	}
	items, err := adapter.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]*registry.ListItem, 0, len(items))
	for _, item := range items {
		target := models.NewTarget(req.Type, item.ID)
		ok, err := rd.Permissions.HasLevel(ctx, user, target, models.LevelRead)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			continue
		}
		li, err := handler.ToListItem(ctx, item.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out = append(out, li)
	}
	c.JSON(http.StatusOK, out)
}
