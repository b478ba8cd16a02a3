package repository

import (
	"context"

	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/store"
	"go.uber.org/zap"
)

// ProfileRepository 资料的读取、喜欢/不喜欢与移除
type ProfileRepository interface {
	GetProfiles(ctx context.Context) ([]models.Profile, error)
	WatchProfiles(ctx context.Context) (<-chan []models.Profile, error)
	GetProfilesByType(ctx context.Context, t models.ProfileType) ([]models.Profile, error)
	WatchProfilesByType(ctx context.Context, t models.ProfileType) (<-chan []models.Profile, error)
	LikeProfile(ctx context.Context, p models.Profile) error
	DislikeProfile(ctx context.Context, p models.Profile) error
	RemoveProfile(ctx context.Context, p models.Profile) error
	RemoveProfileByType(ctx context.Context, p models.Profile, t models.ProfileType) error
}

// ProfileDAO 与 store.ProfileDAO 的方法一致
type ProfileDAO interface {
	GetProfiles(ctx context.Context) ([]models.Profile, error)
	WatchProfiles(ctx context.Context) (<-chan []models.Profile, error)
	DeleteProfile(ctx context.Context, p models.Profile) error
}

type ProfileWithTypeDAO interface {
	GetProfilesByType(ctx context.Context, t models.ProfileType) ([]models.ProfileWithType, error)
	Watch(ctx context.Context, t models.ProfileType) (<-chan []models.ProfileWithType, error)
	DeleteProfileByIDAndType(ctx context.Context, profileID int, t models.ProfileType) error
}

var (
	_ ProfileDAO         = (*store.ProfileDAO)(nil)
	_ ProfileWithTypeDAO = (*store.ProfileWithTypeDAO)(nil)
	_ ProfileRepository  = (*ProfileRepo)(nil)
)

// ProfileRepo 基于本地存储的实现
type ProfileRepo struct {
	profiles ProfileDAO
	typed    ProfileWithTypeDAO
	logger   *zap.Logger
}

func NewProfileRepository(profiles ProfileDAO, typed ProfileWithTypeDAO, logger *zap.Logger) *ProfileRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileRepo{profiles: profiles, typed: typed, logger: logger.Named("repository")}
}

func (r *ProfileRepo) GetProfiles(ctx context.Context) ([]models.Profile, error) {
	return r.profiles.GetProfiles(ctx)
}

func (r *ProfileRepo) WatchProfiles(ctx context.Context) (<-chan []models.Profile, error) {
	return r.profiles.WatchProfiles(ctx)
}

func (r *ProfileRepo) GetProfilesByType(ctx context.Context, t models.ProfileType) ([]models.Profile, error) {
	rows, err := r.typed.GetProfilesByType(ctx, t)
	if err != nil {
		return nil, err
	}
	return toProfiles(rows), nil
}

func (r *ProfileRepo) WatchProfilesByType(ctx context.Context, t models.ProfileType) (<-chan []models.Profile, error) {
	rows, err := r.typed.Watch(ctx, t)
	if err != nil {
		return nil, err
	}

	out := make(chan []models.Profile, 1)
	go func() {
		defer close(out)
		for batch := range rows {
			select {
			case out <- toProfiles(batch):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// LikeProfile 暂无远端接口，只记录日志
func (r *ProfileRepo) LikeProfile(ctx context.Context, p models.Profile) error {
	r.logger.Info("Liked profile", zap.Int("profile_id", p.ID), zap.String("name", p.Name))
	return nil
}

// DislikeProfile 暂无远端接口，只记录日志
func (r *ProfileRepo) DislikeProfile(ctx context.Context, p models.Profile) error {
	r.logger.Info("Disliked profile", zap.Int("profile_id", p.ID), zap.String("name", p.Name))
	return nil
}

func (r *ProfileRepo) RemoveProfile(ctx context.Context, p models.Profile) error {
	return r.profiles.DeleteProfile(ctx, p)
}

func (r *ProfileRepo) RemoveProfileByType(ctx context.Context, p models.Profile, t models.ProfileType) error {
	return r.typed.DeleteProfileByIDAndType(ctx, p.ID, t)
}

func toProfiles(rows []models.ProfileWithType) []models.Profile {
	out := make([]models.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToProfile())
	}
	return out
}
