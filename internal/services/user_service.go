package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
)

type UserService struct {
	users  repositories.UserRepository
	joiner *Joiner
	opts   query.Options
}

func NewUserService(users repositories.UserRepository, joiner *Joiner, opts query.Options) *UserService {
	return &UserService{users: users, joiner: joiner, opts: opts}
}

// GetUser 返回用户详情及其 member_packs / created_packs
// 已删除的用户按不存在处理（与搜索保持一致：no_remaining_packs 在开启兼容时仍可见）；
// includeDeleted 只影响关联的 pack
func (s *UserService) GetUser(ctx context.Context, did string, includeDeleted bool) (*UserResult, error) {
	user, err := s.users.GetByDID(ctx, did)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", did, err)
	}
	if user.Deleted && !(s.opts.KeepNoRemainingPacks && user.DeletionReason == models.DeletionReasonNoRemainingPacks) {
		return nil, ErrUserNotFound
	}
	results := s.joiner.Users(ctx, []models.User{*user}, includeDeleted)
	return &results[0], nil
}
