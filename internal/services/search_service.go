package services

import (
	"context"
	"fmt"

	"github.com/Gopher0727/StarterPacks/internal/query"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
)

type SearchService struct {
	packs  repositories.PackRepository
	users  repositories.UserRepository
	joiner *Joiner
	opts   query.Options
}

func NewSearchService(packs repositories.PackRepository, users repositories.UserRepository, joiner *Joiner, opts query.Options) *SearchService {
	return &SearchService{packs: packs, users: users, joiner: joiner, opts: opts}
}

// SearchRequest 对应 /api/search 的查询参数
type SearchRequest struct {
	Query     string `form:"q"`
	Type      string `form:"type"`
	Page      int    `form:"-"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// Search 校验请求，按 type 返回 Page[PackResult] 或 Page[UserResult]
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (any, error) {
	entity, err := query.ParseEntity(req.Type)
	if err != nil {
		return nil, err
	}
	spec, err := query.Build(entity, req.Query, req.SortBy, req.SortOrder, req.Page, s.opts)
	if err != nil {
		return nil, err
	}
	if entity == query.EntityUsers {
		return s.SearchUsers(ctx, spec)
	}
	return s.SearchPacks(ctx, spec)
}

// SearchPacks 执行 pack 搜索：同一 filter 计数与分页，然后批量关联创建者
func (s *SearchService) SearchPacks(ctx context.Context, spec *query.Spec) (*Page[PackResult], error) {
	packs, total, err := s.packs.Search(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("search packs: %w", err)
	}
	page := Assemble(s.joiner.Packs(ctx, packs), total, spec.Page, spec.PageSize)
	return &page, nil
}

// SearchUsers 执行用户搜索，并批量关联 member_packs / created_packs
func (s *SearchService) SearchUsers(ctx context.Context, spec *query.Spec) (*Page[UserResult], error) {
	users, total, err := s.users.Search(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	page := Assemble(s.joiner.Users(ctx, users, false), total, spec.Page, spec.PageSize)
	return &page, nil
}
