package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/present/rest/middleware"
	"github.com/totegamma/tentd/internal/present/rest/presenter"
	"github.com/totegamma/tentd/internal/usecase"
	"github.com/totegamma/tentd/internal/utils"
)

const maxBodySize = 1 << 20

// RealtimeSource streams events published for an entity.
type RealtimeSource interface {
	Realtime(ctx context.Context, entity string, output chan<- tent.Event) error
}

type Handler struct {
	config       domain.Config
	entity       *usecase.EntityUsecase
	follow       *usecase.FollowUsecase
	post         *usecase.PostUsecase
	notification *usecase.NotificationUsecase
	realtime     RealtimeSource
	logger       *zap.Logger
}

func NewHandler(
	config domain.Config,
	entity *usecase.EntityUsecase,
	follow *usecase.FollowUsecase,
	post *usecase.PostUsecase,
	notification *usecase.NotificationUsecase,
	realtime RealtimeSource,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		config:       config,
		entity:       entity,
		follow:       follow,
		post:         post,
		notification: notification,
		realtime:     realtime,
		logger:       logger.With(zap.String("module", "rest")),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	resolver := middleware.NewEntityMiddleware(h.entity)
	g := e.Group("/:entity", resolver.ResolveEntity)

	g.HEAD("", h.handleEntity)
	g.GET("", h.handleEntity)
	g.GET("/profile", h.handleProfile)

	g.POST("/followers", h.handleFollow)
	g.GET("/followers/:id", h.handleGetFollower)
	g.PUT("/followers/:id", h.handleUpdateFollower)
	g.DELETE("/followers/:id", h.handleDeleteFollower)

	g.GET("/posts", h.handleListPosts)
	g.POST("/posts", h.handleCreatePost)
	g.GET("/posts/:id", h.handleGetPost)
	g.PUT("/posts/:id", h.handleUpdatePost)
	g.DELETE("/posts/:id", h.handleDeletePost)

	g.GET("/notification", h.handleNotificationProbe)
	g.POST("/notification", h.handleNotification)

	g.GET("/realtime", h.handleRealtime)
}

func (h *Handler) baseURL(c echo.Context) string {
	if h.config.BaseURL != "" {
		return h.config.BaseURL
	}
	return c.Scheme() + "://" + c.Request().Host
}

// decodeBody reads a JSON request body into v. Empty and malformed bodies are
// validation errors.
func decodeBody(c echo.Context, v any) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return domain.ValidationError{Reason: "could not read request body"}
	}
	if len(body) == 0 {
		return domain.ValidationError{Reason: "request body is required"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.ValidationError{Reason: "request body is not valid json"}
	}
	return nil
}

func (h *Handler) handleEntity(c echo.Context) error {
	entity := middleware.Entity(c)
	c.Response().Header().Set("Link", tent.ComposeLink(tent.ProfileURL(h.baseURL(c), entity.Name)))
	return presenter.OK(c, entity)
}

func (h *Handler) handleProfile(c echo.Context) error {
	ctx := c.Request().Context()
	entity := middleware.Entity(c)

	profiles, err := h.entity.Profiles(ctx, entity)
	if err != nil {
		return presenter.Error(c, err)
	}

	document := utils.NewOrderedMap[any]()
	for _, p := range profiles {
		document.Set(p.Schema, p.Content)
	}
	body, err := json.Marshal(document)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *Handler) handleFollow(c echo.Context) error {
	ctx := c.Request().Context()

	var details domain.FollowDetails
	if err := decodeBody(c, &details); err != nil {
		return presenter.Error(c, err)
	}

	follower, err := h.follow.StartFollowing(ctx, middleware.Entity(c), details)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, follower)
}

func (h *Handler) handleGetFollower(c echo.Context) error {
	follower, err := h.follow.GetFollower(c.Request().Context(), middleware.Entity(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, follower)
}

func (h *Handler) handleUpdateFollower(c echo.Context) error {
	ctx := c.Request().Context()

	var update domain.FollowerUpdate
	if err := decodeBody(c, &update); err != nil {
		return presenter.Error(c, err)
	}

	follower, err := h.follow.UpdateFollower(ctx, middleware.Entity(c), c.Param("id"), update)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, follower)
}

func (h *Handler) handleDeleteFollower(c echo.Context) error {
	err := h.follow.StopFollowing(c.Request().Context(), middleware.Entity(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Empty(c)
}

func (h *Handler) handleListPosts(c echo.Context) error {
	posts, err := h.post.List(c.Request().Context(), middleware.Entity(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	if len(posts) == 0 {
		return presenter.OK(c, echo.Map{})
	}
	return presenter.OK(c, echo.Map{"posts": posts})
}

func (h *Handler) handleCreatePost(c echo.Context) error {
	ctx := c.Request().Context()

	var input domain.PostInput
	if err := decodeBody(c, &input); err != nil {
		return presenter.Error(c, err)
	}

	post, err := h.post.Publish(ctx, middleware.Entity(c), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, post)
}

func (h *Handler) handleGetPost(c echo.Context) error {
	post, err := h.post.Get(c.Request().Context(), middleware.Entity(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, post)
}

func (h *Handler) handleUpdatePost(c echo.Context) error {
	ctx := c.Request().Context()

	var input domain.PostInput
	if err := decodeBody(c, &input); err != nil {
		return presenter.Error(c, err)
	}

	post, err := h.post.Update(ctx, middleware.Entity(c), c.Param("id"), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, post)
}

func (h *Handler) handleDeletePost(c echo.Context) error {
	err := h.post.Delete(c.Request().Context(), middleware.Entity(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Empty(c)
}

// handleNotificationProbe answers the GET other servers send before they
// accept this entity as a follower.
func (h *Handler) handleNotificationProbe(c echo.Context) error {
	return presenter.Empty(c)
}

func (h *Handler) handleNotification(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return presenter.BadRequestMessage(c, "could not read request body")
	}

	var payload any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload = string(body)
		}
	}

	h.notification.Receive(c.Request().Context(), middleware.Entity(c), payload)
	return presenter.Empty(c)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.realtime == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime is not enabled"})
	}
	entity := middleware.Entity(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan tent.Event)
	go func() {
		if err := h.realtime.Realtime(ctx, entity.Name, output); err != nil {
			h.logger.Warn("realtime subscription ended", zap.String("entity", entity.Name), zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug("websocket closed", zap.Error(err))
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				h.logger.Debug("unknown realtime request", zap.String("type", req.Type))
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				h.logger.Debug("failed to write realtime event", zap.Error(err))
				return nil
			}
		}
	}
}
