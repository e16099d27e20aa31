package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gopher0727/StarterPacks/internal/cache"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

type PackService struct {
	packs     repositories.PackRepository
	joiner    *Joiner
	cache     *cache.Cache
	labelsTTL time.Duration
	maxIDs    int
	log       *logger.Logger
}

func NewPackService(packs repositories.PackRepository, joiner *Joiner, c *cache.Cache, labelsTTL time.Duration, maxIDs int, log *logger.Logger) *PackService {
	return &PackService{
		packs:     packs,
		joiner:    joiner,
		cache:     c,
		labelsTTL: labelsTTL,
		maxIDs:    maxIDs,
		log:       log.Named("packs"),
	}
}

// GetPack 返回 pack 详情（创建者 + 成员）
// 已删除的 pack 只有在 includeDeleted 时返回，否则按不存在处理
func (s *PackService) GetPack(ctx context.Context, rkey string, includeDeleted bool) (*PackDetail, error) {
	pack, err := s.packs.GetByRkey(ctx, rkey)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pack %s: %w", rkey, err)
	}
	if pack.Deleted && !includeDeleted {
		return nil, ErrPackNotFound
	}
	return s.joiner.PackDetail(ctx, pack), nil
}

// ParseIDs 解析逗号分隔的 id 列表，去掉空白与重复项
func ParseIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return distinct(parts)
}

// Labels 返回 rkey 对应的徽章标签。已删除的 pack 也包含在内，按删除前快照展示；
// 不存在的 rkey 不出现在结果中
func (s *PackService) Labels(ctx context.Context, rkeys []string) (map[string]PackLabel, error) {
	rkeys = distinct(rkeys)
	if len(rkeys) == 0 {
		return nil, ErrMissingIDs
	}
	if len(rkeys) > s.maxIDs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(rkeys), s.maxIDs)
	}

	key := cache.LabelsKey(rkeys)
	if s.labelsTTL > 0 {
		var cached map[string]PackLabel
		hit, err := s.cache.Get(ctx, cache.Labels, key, &cached)
		if err != nil {
			s.log.WarnContext(ctx, "labels cache read failed", zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	packs, err := s.packs.FindByRkeys(ctx, rkeys, true)
	if err != nil {
		return nil, fmt.Errorf("load pack labels: %w", err)
	}
	labels := make(map[string]PackLabel, len(packs))
	for i := range packs {
		d := packs[i].Display()
		labels[packs[i].Rkey] = PackLabel{Name: d.Name, Creator: d.Creator}
	}

	if err := s.cache.Set(ctx, key, labels, s.labelsTTL); err != nil {
		s.log.WarnContext(ctx, "labels cache write failed", zap.Error(err))
	}
	return labels, nil
}
