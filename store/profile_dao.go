package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studieren/match_back/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileDAO 操作 profiles 表
type ProfileDAO struct {
	store *Store
}

// InsertProfiles 主键冲突时整行替换
func (d *ProfileDAO) InsertProfiles(ctx context.Context, profiles []models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	start := time.Now()
	err := d.store.Tool.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&profiles).Error
	d.store.Tool.LogOperation(ctx, "insert_profiles", &models.Profile{}, time.Since(start), err, map[string]interface{}{
		"count": len(profiles),
	})
	if err != nil {
		return fmt.Errorf("inserting profiles: %w", err)
	}
	d.store.Changed(ctx, true)
	return nil
}

func (d *ProfileDAO) GetProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := d.store.Tool.DB.WithContext(ctx).Order("id").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	return profiles, nil
}

func (d *ProfileDAO) GetProfile(ctx context.Context, id int) (models.Profile, error) {
	var p models.Profile
	err := d.store.Tool.DB.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Profile{}, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("querying profile %d: %w", id, err)
	}
	return p, nil
}

// DeleteProfile 按主键删除，记录不存在不算错误
func (d *ProfileDAO) DeleteProfile(ctx context.Context, p models.Profile) error {
	start := time.Now()
	result := d.store.Tool.DB.WithContext(ctx).Delete(&models.Profile{}, "id = ?", p.ID)
	d.store.Tool.LogOperation(ctx, "delete_profile", &models.Profile{}, time.Since(start), result.Error, map[string]interface{}{
		"profile_id": p.ID,
		"affected":   result.RowsAffected,
	})
	if result.Error != nil {
		return fmt.Errorf("deleting profile %d: %w", p.ID, result.Error)
	}
	if result.RowsAffected > 0 {
		d.store.Changed(ctx, true)
	}
	return nil
}

// WatchProfiles 先发送当前列表，之后每次变更发送最新列表
func (d *ProfileDAO) WatchProfiles(ctx context.Context) (<-chan []models.Profile, error) {
	return watch(ctx, d.store, topicProfiles, d.GetProfiles)
}

// watch 在 ctx 结束或 Store 关闭时关闭通道
func watch[T any](ctx context.Context, s *Store, topic string, load func(context.Context) (T, error)) (<-chan T, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	signal, cancel := s.notifier.subscribe(topic)
	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- first
	s.watchers.Add(1)
	go func() {
		defer s.watchers.Done()
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-signal:
				v, err := load(ctx)
				if err != nil {
					if ctx.Err() == nil && !s.closed() {
						s.logger.Sugar().Warnw("reloading watched list failed", "topic", topic, "error", err)
					}
					continue
				}
				sendLatest(out, v)
			}
		}
	}()
	return out, nil
}
