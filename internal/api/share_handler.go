package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/cache"
	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/middleware"
)

const (
	shareCacheKeyPrefix = "share:"
	jsonContentType     = "application/json; charset=utf-8"
)

// ShareHandler resolves share urls on behalf of the signed-in caller.
type ShareHandler struct {
	database   db.Database
	files      db.FileStore
	backendURL string
	cache      cache.Cache
	ttl        time.Duration
	logger     *zap.Logger
}

// NewShareHandler creates a handler reading through database with each
// caller's token. A nil shareCache disables caching.
func NewShareHandler(database db.Database, files db.FileStore, backendURL string, shareCache cache.Cache, ttl time.Duration, logger *zap.Logger) *ShareHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareHandler{
		database:   database,
		files:      files,
		backendURL: backendURL,
		cache:      shareCache,
		ttl:        ttl,
		logger:     logger,
	}
}

// GetShared handles GET /:uid/:trip[/:dest[/:note]]?{kind}.
func (h *ShareHandler) GetShared(c *gin.Context) {
	ctx := c.Request.Context()
	rawURL := h.backendURL + c.Request.URL.RequestURI()
	key := shareCacheKeyPrefix + rawURL

	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("Share cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.Set(middleware.ContextShareCache, "hit")
			c.Data(http.StatusOK, jsonContentType, []byte(cached))
			return
		}
	}

	if h.cache != nil {
		c.Set(middleware.ContextShareCache, "miss")
	}
	uid := c.GetString(middleware.ContextUserID)
	client := db.NewClient(h.database, h.files, c.GetString(middleware.ContextIDToken))
	entity, err := core.NewShareManager(client, uid, h.backendURL, nil, h.logger).ResolveURL(ctx, rawURL)
	if err != nil {
		mapShareErrorToStatus(c, err)
		return
	}

	body, err := json.Marshal(newEntityResponse(entity))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to encode shared document"})
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, string(body), h.ttl); err != nil {
			h.logger.Warn("Share cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	c.Data(http.StatusOK, jsonContentType, body)
}

func mapShareErrorToStatus(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, core.ErrInvalidShareURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid share url", Details: err.Error()})
	case errors.Is(err, db.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
	case errors.Is(err, db.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access to the shared document is denied"})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Shared document not found"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve share url"})
	}
}
