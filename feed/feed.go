package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/usecase"
	"go.uber.org/zap"
)

// StateProvider 首页与每日推荐共用的状态接口，详情页只依赖它
type StateProvider interface {
	Type() models.ProfileType
	State() ProfileState
	Subscribe(ctx context.Context) <-chan ProfileState
	Navigation() <-chan models.Profile
	Find(profileID int) (models.Profile, bool)
	OnEvent(ctx context.Context, event ProfileEvent) error
}

// Recorder 滑动与剩余数量的指标
type Recorder interface {
	Swipe(t models.ProfileType, direction string)
	Remaining(t models.ProfileType, n int)
}

type nopRecorder struct{}

func (nopRecorder) Swipe(models.ProfileType, string) {}
func (nopRecorder) Remaining(models.ProfileType, int) {}

// Feed 某一页面（HOME 或 DAILY）的状态持有者
type Feed struct {
	typ      models.ProfileType
	uc       usecase.ProfileUseCases
	logger   *zap.Logger
	recorder Recorder
	// confirm 喜欢/不喜欢后等待列表更新的最长时间
	confirm time.Duration

	mu      sync.Mutex
	started bool
	state ProfileState
	next  int
	subs  map[int]chan ProfileState
	nav   chan models.Profile
}

var _ StateProvider = (*Feed)(nil)

type Option func(*Feed)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Feed) { f.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(f *Feed) { f.recorder = r }
}

func WithConfirmTimeout(d time.Duration) Option {
	return func(f *Feed) { f.confirm = d }
}

func New(t models.ProfileType, uc usecase.ProfileUseCases, opts ...Option) *Feed {
	f := &Feed{
		typ:      t,
		uc:       uc,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		confirm:  2 * time.Second,
		subs:     make(map[int]chan ProfileState),
		nav:      make(chan models.Profile, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Named("feed").With(zap.String("type", t.String()))
	return f
}

func NewHome(uc usecase.ProfileUseCases, opts ...Option) *Feed {
	return New(models.ProfileTypeHome, uc, opts...)
}

func NewDaily(uc usecase.ProfileUseCases, opts ...Option) *Feed {
	return New(models.ProfileTypeDaily, uc, opts...)
}

func (f *Feed) Type() models.ProfileType { return f.typ }

// Start 订阅该页面的资料列表，ctx 结束时停止
func (f *Feed) Start(ctx context.Context) error {
	f.update(func(s *ProfileState) { s.IsLoading = true })

	lists, err := f.uc.GetProfilesByType.Watch(ctx, f.typ)
	if err != nil {
		f.update(func(s *ProfileState) { s.IsLoading = false })
		return fmt.Errorf("watching %s profiles: %w", f.typ, err)
	}

	f.mu.Lock()
	f.started = true
	f.mu.Unlock()

	go func() {
		for profiles := range lists {
			f.update(func(s *ProfileState) {
				s.IsLoading = false
				s.Profiles = profiles
				if s.CurrentCardIndex > len(profiles) {
					s.CurrentCardIndex = len(profiles)
				}
			})
			f.recorder.Remaining(f.typ, len(profiles))
		}
		f.logger.Debug("profile stream closed")
	}()
	return nil
}

func (f *Feed) State() ProfileState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

// Subscribe 先收到当前状态，之后只保留最新一次
func (f *Feed) Subscribe(ctx context.Context) <-chan ProfileState {
	ch := make(chan ProfileState, 1)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	ch <- f.state.clone()
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()
	return ch
}

// Navigation 选中资料后发出一次跳转信号
func (f *Feed) Navigation() <-chan models.Profile { return f.nav }

func (f *Feed) Find(profileID int) (models.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.state.Profiles {
		if p.ID == profileID {
			return p, true
		}
	}
	return models.Profile{}, false
}

func (f *Feed) OnEvent(ctx context.Context, event ProfileEvent) error {
	switch e := event.(type) {
	case SelectProfile:
		p := e.Profile
		f.update(func(s *ProfileState) { s.SelectedProfile = &p })
		latest(f.nav, p)

	case LikeProfile:
		return f.swipe(ctx, e.Profile, "like", f.uc.LikeProfile.Invoke)

	case DislikeProfile:
		return f.swipe(ctx, e.Profile, "dislike", f.uc.DislikeProfile.Invoke)

	case CardSwiped:
		// 列表随删除而缩短，top 下标保持不变
		f.logger.Debug("card swiped")

	case ClearProfileSelection:
		f.update(func(s *ProfileState) { s.SelectedProfile = nil })

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
	return nil
}

// swipe 执行喜欢/不喜欢并从本页面移除，返回前状态中已不含该资料
func (f *Feed) swipe(ctx context.Context, p models.Profile, direction string, act func(context.Context, models.Profile) error) error {
	if err := act(ctx, p); err != nil {
		return fmt.Errorf("%s profile %d: %w", direction, p.ID, err)
	}
	if err := f.uc.RemoveProfileByType.Invoke(ctx, p, f.typ); err != nil {
		return fmt.Errorf("removing %sd profile %d: %w", direction, p.ID, err)
	}
	f.recorder.Swipe(f.typ, direction)
	return f.awaitRemoval(ctx, p.ID)
}

// awaitRemoval 等待订阅流送来不含该资料的列表。
// 订阅流按加载顺序送达，见到一次后不会再出现删除前的旧列表。
func (f *Feed) awaitRemoval(ctx context.Context, profileID int) error {
	f.mu.Lock()
	started := f.started
	f.mu.Unlock()
	if !started {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.confirm)
	defer cancel()
	for s := range f.Subscribe(ctx) {
		if !containsProfile(s.Profiles, profileID) {
			return nil
		}
	}
	return fmt.Errorf("waiting for %s list to drop profile %d: %w", f.typ, profileID, ctx.Err())
}

func containsProfile(profiles []models.Profile, id int) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (f *Feed) update(fn func(*ProfileState)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(&f.state)
	for _, ch := range f.subs {
		latest(ch, f.state.clone())
	}
}

// latest 通道满时替换掉未读的旧值
func latest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
