package feed

import (
	"context"
	"fmt"

	"github.com/studieren/match_back/models"
)

// Registry 按页面类型查找状态持有者
type Registry map[models.ProfileType]StateProvider

func NewRegistry(providers ...StateProvider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Type()] = p
	}
	return r
}

func (r Registry) Get(t models.ProfileType) (StateProvider, error) {
	p, ok := r[t]
	if !ok {
		return nil, fmt.Errorf("%w: no feed for %s", models.ErrInvalidProfileType, t)
	}
	return p, nil
}

// StartAll 启动所有实现了 Start 的持有者
func (r Registry) StartAll(ctx context.Context) error {
	for _, t := range models.AllProfileTypes {
		p, ok := r[t]
		if !ok {
			continue
		}
		if s, ok := p.(interface{ Start(context.Context) error }); ok {
			if err := s.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
