// Package usecase 每个用例只做一件事，直接转发给仓库
package usecase

import (
	"context"

	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/repository"
)

type GetProfiles struct {
	Repository repository.ProfileRepository
}

func (u GetProfiles) Invoke(ctx context.Context) ([]models.Profile, error) {
	return u.Repository.GetProfiles(ctx)
}

// Watch 订阅全部资料的变化
func (u GetProfiles) Watch(ctx context.Context) (<-chan []models.Profile, error) {
	return u.Repository.WatchProfiles(ctx)
}

type GetProfilesByType struct {
	Repository repository.ProfileRepository
}

func (u GetProfilesByType) Invoke(ctx context.Context, t models.ProfileType) ([]models.Profile, error) {
	return u.Repository.GetProfilesByType(ctx, t)
}

// Watch 订阅某一页面列表的变化
func (u GetProfilesByType) Watch(ctx context.Context, t models.ProfileType) (<-chan []models.Profile, error) {
	return u.Repository.WatchProfilesByType(ctx, t)
}

type LikeProfile struct {
	Repository repository.ProfileRepository
}

func (u LikeProfile) Invoke(ctx context.Context, p models.Profile) error {
	return u.Repository.LikeProfile(ctx, p)
}

type DislikeProfile struct {
	Repository repository.ProfileRepository
}

func (u DislikeProfile) Invoke(ctx context.Context, p models.Profile) error {
	return u.Repository.DislikeProfile(ctx, p)
}

type RemoveProfile struct {
	Repository repository.ProfileRepository
}

func (u RemoveProfile) Invoke(ctx context.Context, p models.Profile) error {
	return u.Repository.RemoveProfile(ctx, p)
}

type RemoveProfileByType struct {
	Repository repository.ProfileRepository
}

func (u RemoveProfileByType) Invoke(ctx context.Context, p models.Profile, t models.ProfileType) error {
	return u.Repository.RemoveProfileByType(ctx, p, t)
}

// ProfileUseCases 汇总所有资料相关用例，供上层统一使用
type ProfileUseCases struct {
	GetProfiles         GetProfiles
	GetProfilesByType   GetProfilesByType
	LikeProfile         LikeProfile
	DislikeProfile      DislikeProfile
	RemoveProfile       RemoveProfile
	RemoveProfileByType RemoveProfileByType
}

func New(repo repository.ProfileRepository) ProfileUseCases {
	return ProfileUseCases{
		GetProfiles:         GetProfiles{Repository: repo},
		GetProfilesByType:   GetProfilesByType{Repository: repo},
		LikeProfile:         LikeProfile{Repository: repo},
		DislikeProfile:      DislikeProfile{Repository: repo},
		RemoveProfile:       RemoveProfile{Repository: repo},
		RemoveProfileByType: RemoveProfileByType{Repository: repo},
	}
}
