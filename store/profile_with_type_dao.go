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

// ProfileWithTypeDAO 操作 profile_with_type 表，HOME 与 DAILY 各自独立
type ProfileWithTypeDAO struct {
	store *Store
}

func (d *ProfileWithTypeDAO) InsertProfiles(ctx context.Context, profiles []models.ProfileWithType) error {
	if len(profiles) == 0 {
		return nil
	}
	start := time.Now()
	err := d.store.Tool.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&profiles).Error
	d.store.Tool.LogOperation(ctx, "insert_profiles_with_type", &models.ProfileWithType{}, time.Since(start), err, map[string]interface{}{
		"count": len(profiles),
	})
	if err != nil {
		return fmt.Errorf("inserting typed profiles: %w", err)
	}
	d.store.Changed(ctx, false, typesOf(profiles)...)
	return nil
}

// GetProfilesByType 按插入顺序返回，配置了 Redis 时先读缓存
func (d *ProfileWithTypeDAO) GetProfilesByType(ctx context.Context, t models.ProfileType) ([]models.ProfileWithType, error) {
	var profiles []models.ProfileWithType
	if d.store.Tool.GetFromCache(ctx, d.store.typeCacheKey(t), &profiles) {
		return profiles, nil
	}

	// 代数须在查询前读取
	gen := d.store.cacheGen(t)
	if err := d.store.Tool.DB.WithContext(ctx).Where("type = ?", t).Order("id").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("querying %s profiles: %w", t, err)
	}
	d.store.fillCache(ctx, t, gen, profiles)
	return profiles, nil
}

func (d *ProfileWithTypeDAO) GetProfileByIDAndType(ctx context.Context, profileID int, t models.ProfileType) (models.ProfileWithType, error) {
	var p models.ProfileWithType
	err := d.store.Tool.DB.WithContext(ctx).
		Where("profile_id = ? AND type = ?", profileID, t).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProfileWithType{}, fmt.Errorf("%s profile %d: %w", t, profileID, ErrNotFound)
	}
	if err != nil {
		return models.ProfileWithType{}, fmt.Errorf("querying %s profile %d: %w", t, profileID, err)
	}
	return p, nil
}

func (d *ProfileWithTypeDAO) DeleteProfileByIDAndType(ctx context.Context, profileID int, t models.ProfileType) error {
	start := time.Now()
	result := d.store.Tool.DB.WithContext(ctx).
		Where("profile_id = ? AND type = ?", profileID, t).
		Delete(&models.ProfileWithType{})
	d.store.Tool.LogOperation(ctx, "delete_by_id_and_type", &models.ProfileWithType{}, time.Since(start), result.Error, map[string]interface{}{
		"profile_id": profileID,
		"type":       t,
		"affected":   result.RowsAffected,
	})
	if result.Error != nil {
		return fmt.Errorf("deleting %s profile %d: %w", t, profileID, result.Error)
	}
	if result.RowsAffected > 0 {
		d.store.Changed(ctx, false, t)
	}
	return nil
}

func (d *ProfileWithTypeDAO) GetProfileCountByType(ctx context.Context, t models.ProfileType) (int64, error) {
	var n int64
	if err := d.store.Tool.DB.WithContext(ctx).Model(&models.ProfileWithType{}).Where("type = ?", t).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting %s profiles: %w", t, err)
	}
	return n, nil
}

func (d *ProfileWithTypeDAO) DeleteAllByType(ctx context.Context, t models.ProfileType) error {
	start := time.Now()
	result := d.store.Tool.DB.WithContext(ctx).Where("type = ?", t).Delete(&models.ProfileWithType{})
	d.store.Tool.LogOperation(ctx, "delete_all_by_type", &models.ProfileWithType{}, time.Since(start), result.Error, map[string]interface{}{
		"type":     t,
		"affected": result.RowsAffected,
	})
	if result.Error != nil {
		return fmt.Errorf("deleting all %s profiles: %w", t, result.Error)
	}
	d.store.Changed(ctx, false, t)
	return nil
}

// Watch 先发送当前列表，之后该类型每次变更发送最新列表
func (d *ProfileWithTypeDAO) Watch(ctx context.Context, t models.ProfileType) (<-chan []models.ProfileWithType, error) {
	return watch(ctx, d.store, typeTopic(t), func(ctx context.Context) ([]models.ProfileWithType, error) {
		return d.GetProfilesByType(ctx, t)
	})
}

func typesOf(profiles []models.ProfileWithType) []models.ProfileType {
	seen := make(map[models.ProfileType]bool, len(models.AllProfileTypes))
	var out []models.ProfileType
	for _, p := range profiles {
		if !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	return out
}
