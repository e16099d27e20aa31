package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Gopher0727/StarterPacks/internal/cache"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

// Stats 是全库统计快照
type Stats struct {
	TotalPacks  int64     `json:"total_packs"`
	TotalUsers  int64     `json:"total_users"`
	AvgPackSize int64     `json:"avg_pack_size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// computeTimeout 限制一次共享统计计算的总时长，与任何单个请求的生命周期无关
const computeTimeout = 30 * time.Second

type StatsService struct {
	packs  repositories.PackRepository
	users  repositories.UserRepository
	cache  *cache.Cache
	ttl    time.Duration
	strict bool
	log    *logger.Logger

	group singleflight.Group
	now   func() time.Time
}

func NewStatsService(packs repositories.PackRepository, users repositories.UserRepository, c *cache.Cache, ttl time.Duration, strict bool, log *logger.Logger) *StatsService {
	return &StatsService{
		packs:  packs,
		users:  users,
		cache:  c,
		ttl:    ttl,
		strict: strict,
		log:    log.Named("stats"),
		now:    time.Now,
	}
}

// GetStats 返回全库统计。并发调用共享同一次计算，计算不随任一调用方的
// ctx 取消；每个调用方只按自己的 ctx 放弃等待。ttl 为正时优先读 Redis 缓存。
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	key := cache.StatsKey(s.strict)
	if s.ttl > 0 {
		var cached Stats
		hit, err := s.cache.Get(ctx, cache.Stats, key, &cached)
		if err != nil {
			s.log.WarnContext(ctx, "stats cache read failed", zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		return s.compute(cctx)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	stats := res.Val.(*Stats)

	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.log.WarnContext(ctx, "stats cache write failed", zap.Error(err))
	}
	// 共享结果，返回副本避免调用方互相影响
	out := *stats
	return &out, nil
}

func (s *StatsService) compute(ctx context.Context) (*Stats, error) {
	var (
		summary *repositories.PackSummary
		users   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.packs.Summary(gctx, s.strict)
		if err != nil {
			return fmt.Errorf("pack summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.users.CountActive(gctx, s.strict)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Stats{
		TotalPacks:  summary.Count,
		TotalUsers:  users,
		AvgPackSize: roundAverage(summary.Count, summary.AvgSize),
		UpdatedAt:   s.now().UTC(),
	}, nil
}

// roundAverage 四舍五入平均值，没有可统计的 pack 时为 0
func roundAverage(count int64, avg float64) int64 {
	if count == 0 || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return int64(math.Round(avg))
}
