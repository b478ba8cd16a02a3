package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder 每次启动清空并重新写入演示数据
type Seeder struct {
	store    *store.Store
	logger   *zap.Logger
	profiles []models.Profile
	onReseed func()
}

func New(s *store.Store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: s, logger: logger.Named("seed"), profiles: DemoProfiles()}
}

// WithProfiles 替换默认的演示数据
func (s *Seeder) WithProfiles(profiles []models.Profile) *Seeder {
	s.profiles = profiles
	return s
}

// OnReseed 每次 ClearAndRepopulate 成功后调用 fn
func (s *Seeder) OnReseed(fn func()) *Seeder {
	s.onReseed = fn
	return s
}

// Startup 新库在后台写入并等待完成；已有数据的库清空后重写
func (s *Seeder) Startup(ctx context.Context) error {
	populated, err := s.Populated(ctx)
	if err != nil {
		return err
	}
	if !populated {
		return <-s.Prepopulate(ctx)
	}
	return s.ClearAndRepopulate(ctx)
}

// ClearAndRepopulate 在同一事务内清空两张表并重新写入，同步执行
func (s *Seeder) ClearAndRepopulate(ctx context.Context) error {
	start := time.Now()
	err := s.store.Tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProfileWithType{}).Error; err != nil {
			return fmt.Errorf("clearing profile_with_type: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Profile{}).Error; err != nil {
			return fmt.Errorf("clearing profiles: %w", err)
		}
		return s.insert(tx)
	})
	if err != nil {
		s.logger.Error("reseed failed", zap.Error(err))
		return err
	}

	s.store.Changed(ctx, true, models.AllProfileTypes...)
	if s.onReseed != nil {
		s.onReseed()
	}
	s.logger.Info("demo data reseeded",
		zap.Int("profiles", len(s.profiles)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Prepopulate 首次建库时在后台写入，不清空已有数据
func (s *Seeder) Prepopulate(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := s.store.Tool.WithTransaction(ctx, s.insert)
		if err == nil {
			s.store.Changed(ctx, true, models.AllProfileTypes...)
			s.logger.Info("demo data prepopulated", zap.Int("profiles", len(s.profiles)))
		} else {
			s.logger.Error("prepopulate failed", zap.Error(err))
		}
		done <- err
	}()
	return done
}

// Populated 判断 profiles 表是否已有数据
func (s *Seeder) Populated(ctx context.Context) (bool, error) {
	var n int64
	if err := s.store.Tool.DB.WithContext(ctx).Model(&models.Profile{}).Count(&n).Error; err != nil {
		return false, fmt.Errorf("counting profiles: %w", err)
	}
	return n > 0, nil
}

// insert 每个资料写入 profiles，再按 HOME、DAILY 各写一份
func (s *Seeder) insert(tx *gorm.DB) error {
	if len(s.profiles) == 0 {
		return nil
	}
	if err := tx.Create(&s.profiles).Error; err != nil {
		return fmt.Errorf("inserting profiles: %w", err)
	}

	typed := make([]models.ProfileWithType, 0, len(s.profiles)*len(models.AllProfileTypes))
	for _, p := range s.profiles {
		for _, t := range models.AllProfileTypes {
			typed = append(typed, models.FromProfile(p, t))
		}
	}
	if err := tx.Create(&typed).Error; err != nil {
		return fmt.Errorf("inserting typed profiles: %w", err)
	}
	return nil
}
