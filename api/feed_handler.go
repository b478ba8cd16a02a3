package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studieren/match_back/cardstack"
	"github.com/studieren/match_back/feed"
	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/store"
)

var errNotInFeed = fmt.Errorf("not in feed: %w", store.ErrNotFound)

type eventRequest struct {
	Event     string `json:"event" binding:"required"`
	ProfileID int    `json:"profileId"`
}

type swipeRequest struct {
	ProfileID int     `json:"profileId"`
	Offset    float64 `json:"offset"`
	Velocity  float64 `json:"velocity"`
}

type swipeResponse struct {
	Profile   models.Profile      `json:"profile"`
	Direction cardstack.DragValue `json:"direction"`
	Rotation  float64             `json:"rotation"`
	Overlay   cardstack.Overlay   `json:"overlay"`
}

func (h *Handler) postEvent(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误", err)
		return
	}

	event, err := h.toEvent(p, req)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := p.OnEvent(c.Request.Context(), event); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "操作成功", p.State())
}

func (h *Handler) toEvent(p feed.StateProvider, req eventRequest) (feed.ProfileEvent, error) {
	switch req.Event {
	case "card_swiped":
		return feed.CardSwiped{}, nil
	case "clear_selection":
		return feed.ClearProfileSelection{}, nil
	case "select", "like", "dislike":
	default:
		return nil, fmt.Errorf("%w: %q", feed.ErrUnknownEvent, req.Event)
	}

	profile, err := findProfile(p, req.ProfileID)
	if err != nil {
		return nil, err
	}
	switch req.Event {
	case "select":
		return feed.SelectProfile{Profile: profile}, nil
	case "like":
		return feed.LikeProfile{Profile: profile}, nil
	default:
		return feed.DislikeProfile{Profile: profile}, nil
	}
}

func findProfile(p feed.StateProvider, id int) (models.Profile, error) {
	profile, found := p.Find(id)
	if !found {
		return models.Profile{}, fmt.Errorf("%s profile %d: %w", p.Type(), id, errNotInFeed)
	}
	return profile, nil
}

// postSwipe 根据松手时的位移与速度决定喜欢、不喜欢或回弹
func (h *Handler) postSwipe(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}

	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误", err)
		return
	}

	var profile models.Profile
	if req.ProfileID == 0 {
		state := p.State()
		stack := cardstack.Build(state.Profiles, state.CurrentCardIndex, h.Cards)
		if stack.Exhausted {
			fail(c, http.StatusNotFound, "没有更多资料", nil)
			return
		}
		profile = stack.Cards[0].Item
	} else {
		var err error
		if profile, err = findProfile(p, req.ProfileID); err != nil {
			writeError(c, err)
			return
		}
	}

	resp := swipeResponse{
		Profile:   profile,
		Direction: cardstack.Settle(req.Offset, req.Velocity, h.Cards),
		Rotation:  cardstack.Rotation(req.Offset),
		Overlay:   cardstack.OverlayFor(req.Offset),
	}

	ctx := c.Request.Context()
	var event feed.ProfileEvent
	switch resp.Direction {
	case cardstack.DragRight:
		event = feed.LikeProfile{Profile: profile}
	case cardstack.DragLeft:
		event = feed.DislikeProfile{Profile: profile}
	}
	if event != nil {
		if err := p.OnEvent(ctx, event); err != nil {
			writeError(c, err)
			return
		}
		if err := p.OnEvent(ctx, feed.CardSwiped{}); err != nil {
			writeError(c, err)
			return
		}
	}
	ok(c, "操作成功", resp)
}

func (h *Handler) getStack(c *gin.Context) {
	p, found := h.provider(c)
	if !found {
		return
	}

	state := p.State()
	opts := h.Cards
	top := state.CurrentCardIndex

	var err error
	if v := c.Query("top"); v != "" {
		if top, err = strconv.Atoi(v); err != nil || top < 0 {
			fail(c, http.StatusBadRequest, "无效的 top", err)
			return
		}
	}
	if v := c.Query("count"); v != "" {
		if opts.VisibleCount, err = strconv.Atoi(v); err != nil || opts.VisibleCount < 1 {
			fail(c, http.StatusBadRequest, "无效的 count", err)
			return
		}
	}
	if v := c.Query("infinite"); v != "" {
		if opts.InfiniteLoop, err = strconv.ParseBool(v); err != nil {
			fail(c, http.StatusBadRequest, "无效的 infinite", err)
			return
		}
	}
	if v := c.Query("stack_from"); v != "" {
		if opts.StackFrom, err = cardstack.ParseStackFrom(v); err != nil {
			fail(c, http.StatusBadRequest, "无效的 stack_from", err)
			return
		}
	}

	ok(c, "查询成功", cardstack.Build(state.Profiles, top, opts))
}
