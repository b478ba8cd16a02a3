package feed

import (
	"errors"

	"github.com/studieren/match_back/models"
)

var ErrUnknownEvent = errors.New("unknown profile event")

// ProfileEvent 页面发给状态持有者的用户操作
type ProfileEvent interface {
	profileEvent()
}

type SelectProfile struct{ Profile models.Profile }

type LikeProfile struct{ Profile models.Profile }

type DislikeProfile struct{ Profile models.Profile }

// CardSwiped 卡片滑出动画结束
type CardSwiped struct{}

type ClearProfileSelection struct{}

func (SelectProfile) profileEvent()         {}
func (LikeProfile) profileEvent()           {}
func (DislikeProfile) profileEvent()        {}
func (CardSwiped) profileEvent()            {}
func (ClearProfileSelection) profileEvent() {}

type ProfileState struct {
	Profiles         []models.Profile `json:"profiles"`
	IsLoading        bool             `json:"isLoading"`
	SelectedProfile  *models.Profile  `json:"selectedProfile"`
	CurrentCardIndex int              `json:"currentCardIndex"`
}

// clone 订阅者拿到的状态与内部状态互不影响
func (s ProfileState) clone() ProfileState {
	out := s
	out.Profiles = append([]models.Profile(nil), s.Profiles...)
	if s.SelectedProfile != nil {
		p := *s.SelectedProfile
		out.SelectedProfile = &p
	}
	return out
}
