package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/studieren/match_back/cardstack"
	"github.com/studieren/match_back/feed"
	"github.com/studieren/match_back/gormtool"
	"github.com/studieren/match_back/metrics"
	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/store"
	"github.com/studieren/match_back/usecase"
	"go.uber.org/zap"
)

// Resetter 重新写入演示数据
type Resetter interface {
	ClearAndRepopulate(ctx context.Context) error
}

type Handler struct {
	Feeds    feed.Registry
	UseCases usecase.ProfileUseCases
	Seeder   Resetter
	Tool     *gormtool.CRUDTool
	Metrics  *metrics.Metrics
	Cards    cardstack.Options
	Logger   *zap.Logger
}

func NewRouter(h *Handler) *gin.Engine {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(h.Logger.Named("http")), cors.Default())
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
		r.GET("/metrics", h.Metrics.Handler())
	}
	if h.Tool != nil {
		r.GET("/stats", h.Tool.GetMetrics)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.GET("/profiles", h.getProfiles)
	r.DELETE("/profiles/:id", h.removeProfile)

	feeds := r.Group("/feeds/:type")
	{
		feeds.GET("", h.getFeedState)
		feeds.GET("/profiles", h.getProfilesByType)
		feeds.GET("/stack", h.getStack)
		feeds.GET("/selected", h.getSelected)
		feeds.GET("/watch", h.watchFeed)
		feeds.POST("/events", h.postEvent)
		feeds.POST("/swipe", h.postSwipe)
	}

	r.POST("/admin/reset", h.reset)
	return r
}

func ok(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gormtool.Response{Code: http.StatusOK, Message: msg, Data: data})
}

func fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		c.Error(err)
	}
	c.AbortWithStatusJSON(status, gormtool.Response{Code: status, Message: msg})
}

// writeError 把领域错误映射为 HTTP 状态码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidProfileType), errors.Is(err, feed.ErrUnknownEvent):
		fail(c, http.StatusBadRequest, "参数错误", err)
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "记录不存在", err)
	default:
		fail(c, http.StatusInternalServerError, "操作失败", err)
	}
}

func (h *Handler) provider(c *gin.Context) (feed.StateProvider, bool) {
	t, err := models.ParseProfileType(c.Param("type"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	p, err := h.Feeds.Get(t)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) getProfiles(c *gin.Context) {
	profiles, err := h.UseCases.GetProfiles.Invoke(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "查询成功", profiles)
}

func (h *Handler) removeProfile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "无效的ID", err)
		return
	}

	ctx := c.Request.Context()
	profiles, err := h.UseCases.GetProfiles.Invoke(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, p := range profiles {
		if p.ID != id {
			continue
		}
		if err := h.UseCases.RemoveProfile.Invoke(ctx, p); err != nil {
			writeError(c, err)
			return
		}
		ok(c, "删除成功", p)
		return
	}
	fail(c, http.StatusNotFound, "记录不存在", nil)
}

func (h *Handler) getFeedState(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}
	ok(c, "查询成功", p.State())
}

func (h *Handler) getProfilesByType(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}
	profiles, err := h.UseCases.GetProfilesByType.Invoke(c.Request.Context(), p.Type())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "查询成功", profiles)
}

func (h *Handler) getSelected(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}
	selected := p.State().SelectedProfile
	if selected == nil {
		fail(c, http.StatusNotFound, "未选择资料", nil)
		return
	}
	ok(c, "查询成功", selected)
}

func (h *Handler) watchFeed(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	states := p.Subscribe(ctx)

	c.Stream(func(w io.Writer) bool {
		select {
		case s, open := <-states:
			if !open {
				return false
			}
			c.SSEvent("state", s)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.Seeder.ClearAndRepopulate(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "重置成功", nil)
}
