package services

import (
	"context"

	"github.com/retailcore/pos-gateway/pkg/pg"
	"github.com/retailcore/pos-gateway/pkg/redis"
)

type HealthStatus struct {
	Store bool `json:"store"`
	Redis bool `json:"redis"`
}

func (h HealthStatus) Healthy() bool {
	return h.Store && h.Redis
}

type HealthService struct {
	db      *pg.DB
	adapter redis.RedisAdapter
}

func NewHealthService(db *pg.DB, adapter redis.RedisAdapter) *HealthService {
	return &HealthService{db: db, adapter: adapter}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Store: true, Redis: true}

	if s.db != nil {
		var one int
		if err := s.db.Read(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
			status.Store = false
		}
	}

	if s.adapter != nil {
		if err := s.adapter.Client().Ping(ctx).Err(); err != nil {
			status.Redis = false
		}
	}

	return status
}
