package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/records"
	"github.com/MarcoPoloResearchLab/collectibles/internal/remote"
	"github.com/MarcoPoloResearchLab/collectibles/internal/slideshow"
	"github.com/MarcoPoloResearchLab/collectibles/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultHeartbeatInterval = 30 * time.Second

var (
	errMissingStore    = errors.New("record store dependency required")
	errMissingRealtime = errors.New("realtime dispatcher dependency required")
)

type Dependencies struct {
	Store             *store.Store
	Realtime          *RealtimeDispatcher
	Logger            *zap.Logger
	HeartbeatInterval time.Duration
}

// NewHTTPHandler exposes the dashboard state and intents as JSON endpoints plus an
// event stream.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Realtime == nil {
		return nil, errMissingRealtime
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		store:     deps.Store,
		realtime:  deps.Realtime,
		logger:    logger,
		heartbeat: heartbeat,
	}

	router.GET("/healthz", handler.handleHealth)

	api := router.Group("/api")
	api.GET("/dashboard", handler.handleDashboard)
	api.GET("/events", handler.handleEvents)

	api.POST("/records/refresh", handler.handleRefresh)
	api.POST("/records", handler.handleCreate)
	api.DELETE("/records/:id", handler.handleDelete)

	api.POST("/draft", handler.handleOpenDraft)
	api.PATCH("/draft", handler.handleUpdateDraft)
	api.DELETE("/draft", handler.handleCancelDraft)

	api.POST("/page/next", handler.handleNextPage)
	api.POST("/page/previous", handler.handlePreviousPage)
	api.PUT("/page", handler.handleSetPage)

	api.POST("/slides/:id/:direction", handler.handleAdvanceSlide)

	api.DELETE("/notifications/:id", handler.handleDismissNotification)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{"Content-Type", "Last-Event-ID"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	store     *store.Store
	realtime  *RealtimeDispatcher
	logger    *zap.Logger
	heartbeat time.Duration
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleRefresh(c *gin.Context) {
	err := h.store.Refresh(c.Request.Context())
	switch {
	case errors.Is(err, store.ErrSuperseded) && remote.KindOf(err) == "":
		c.JSON(http.StatusAccepted, gin.H{"status": "superseded", "dashboard": h.store.Snapshot()})
	case err != nil:
		h.writeOperationError(c, err)
	default:
		c.JSON(http.StatusOK, h.store.Snapshot())
	}
}

type createResponsePayload struct {
	Record    records.Record `json:"record"`
	Dashboard store.Snapshot `json:"dashboard"`
}

// handleCreate submits the posted draft, or the draft held by the store when the body is empty.
func (h *httpHandler) handleCreate(c *gin.Context) {
	var (
		draft   records.Draft
		created records.Record
	)
	err := c.ShouldBindJSON(&draft)
	switch {
	case errors.Is(err, io.EOF):
		created, err = h.store.SubmitDraft(c.Request.Context())
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	default:
		created, err = h.store.Create(c.Request.Context(), draft)
	}
	if err != nil {
		h.writeOperationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createResponsePayload{Record: created, Dashboard: h.store.Snapshot()})
}

func (h *httpHandler) handleDelete(c *gin.Context) {
	id, err := records.ParseRecordID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_id"})
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeOperationError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleOpenDraft(c *gin.Context) {
	h.store.OpenDraft()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// handleUpdateDraft applies {"<field>": "<value>"} pairs; every field is checked before any
// is applied.
func (h *httpHandler) handleUpdateDraft(c *gin.Context) {
	var request map[string]string
	if err := c.ShouldBindJSON(&request); err != nil || len(request) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	fields := make(map[records.DraftField]string, len(request))
	for name, value := range request {
		field, err := records.ParseDraftField(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_draft_field", "field": name})
			return
		}
		fields[field] = value
	}
	for field, value := range fields {
		if _, err := h.store.UpdateDraft(field, value); err != nil {
			h.logger.Error("failed to update draft", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_draft_field", "field": string(field)})
			return
		}
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleCancelDraft(c *gin.Context) {
	h.store.CancelDraft()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleNextPage(c *gin.Context) {
	h.store.NextPage()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handlePreviousPage(c *gin.Context) {
	h.store.PreviousPage()
	c.JSON(http.StatusOK, h.store.Snapshot())
}

type pageRequestPayload struct {
	Index *int `json:"index"`
	Size  *int `json:"size"`
}

func (h *httpHandler) handleSetPage(c *gin.Context) {
	var request pageRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || (request.Index == nil && request.Size == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.Size != nil {
		if _, err := h.store.SetPageSize(*request.Size); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_page_size", "message": err.Error()})
			return
		}
	}
	if request.Index != nil {
		h.store.SetPage(*request.Index)
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleAdvanceSlide(c *gin.Context) {
	id, err := records.ParseRecordID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_id"})
		return
	}
	direction, err := slideshow.ParseDirection(c.Param("direction"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid_direction"})
		return
	}
	h.store.AdvanceSlide(id, direction)
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *httpHandler) handleDismissNotification(c *gin.Context) {
	if !h.store.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification_not_found"})
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// writeOperationError maps a failed remote-backed intent onto a response. The store has
// already raised the user-facing notification.
func (h *httpHandler) writeOperationError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch remote.KindOf(err) {
	case remote.KindNetwork, remote.KindServer:
		status = http.StatusBadGateway
	case remote.KindNotFound:
		status = http.StatusNotFound
	}

	code := "internal_error"
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		code = storeErr.Code()
	}
	h.logger.Warn("dashboard intent failed", zap.String("code", code), zap.Error(err))

	body := gin.H{"error": code, "message": remote.MessageOf(err)}
	if kind := remote.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	c.JSON(status, body)
}
