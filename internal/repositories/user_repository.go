package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/Gopher0727/StarterPacks/internal/metrics"
	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
)

// userSummaryProjection 只取关联展示需要的字段
var userSummaryProjection = bson.M{
	query.FieldDID:            1,
	query.FieldHandle:         1,
	query.FieldDisplayName:    1,
	query.FieldFollowersCount: 1,
	query.FieldDeleted:        1,
	"last_known_state":        1,
}

type MongoUserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoUserRepository(db *mongo.Database, collection string, timeout time.Duration) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(collection), timeout: timeout}
}

// Search 使用同一个 filter 并发执行 count 与分页查询；
// 按 pack_ids_count 或 followers_count 排序时走聚合管道先计算派生字段
func (r *MongoUserRepository) Search(ctx context.Context, spec *query.Spec) (users []models.User, total int64, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("users.search", start, err, nil) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := SearchFilter(spec)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		var (
			cur *mongo.Cursor
			err error
		)
		if spec.NeedsDerivedFields() {
			cur, err = r.coll.Aggregate(gctx, UserSearchPipeline(spec, filter))
		} else {
			opts := options.Find().
				SetSort(SortDoc(spec)).
				SetSkip(spec.Skip).
				SetLimit(spec.Limit)
			cur, err = r.coll.Find(gctx, filter, opts)
		}
		if err != nil {
			return fmt.Errorf("find users: %w", err)
		}
		if err := cur.All(gctx, &users); err != nil {
			return fmt.Errorf("decode users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetByDID 根据 did 获取用户（包含已删除的）
func (r *MongoUserRepository) GetByDID(ctx context.Context, did string) (user *models.User, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("users.get", start, err, ErrNotFound) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{query.FieldDID: did}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", did, err)
	}
	return &u, nil
}

// FindByDIDs 批量获取用户摘要，一次 $in 查询
func (r *MongoUserRepository) FindByDIDs(ctx context.Context, dids []string) (users []models.User, err error) {
	if len(dids) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { metrics.ObserveStoreOp("users.by_dids", start, err, nil) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetProjection(userSummaryProjection)
	cur, err := r.coll.Find(ctx, bson.M{query.FieldDID: bson.M{"$in": dids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// CountActive 统计未删除的用户数
func (r *MongoUserRepository) CountActive(ctx context.Context, strict bool) (n int64, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("users.count_active", start, err, nil) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err = r.coll.CountDocuments(ctx, ActiveUsersFilter(strict))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
