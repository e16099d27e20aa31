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

type MongoPackRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoPackRepository(db *mongo.Database, collection string, timeout time.Duration) *MongoPackRepository {
	return &MongoPackRepository{coll: db.Collection(collection), timeout: timeout}
}

// Search 使用同一个 filter 并发执行 count 与分页查询
func (r *MongoPackRepository) Search(ctx context.Context, spec *query.Spec) (packs []models.Pack, total int64, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("packs.search", start, err, nil) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := SearchFilter(spec)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count packs: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		opts := options.Find().
			SetSort(SortDoc(spec)).
			SetSkip(spec.Skip).
			SetLimit(spec.Limit)
		cur, err := r.coll.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find packs: %w", err)
		}
		if err := cur.All(gctx, &packs); err != nil {
			return fmt.Errorf("decode packs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return packs, total, nil
}

// GetByRkey 根据 rkey 获取 pack（包含已删除的）
func (r *MongoPackRepository) GetByRkey(ctx context.Context, rkey string) (pack *models.Pack, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("packs.get", start, err, ErrNotFound) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p models.Pack
	if err := r.coll.FindOne(ctx, bson.M{query.FieldRkey: rkey}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find pack %s: %w", rkey, err)
	}
	return &p, nil
}

// FindByRkeys 批量获取 pack，一次 $in 查询
func (r *MongoPackRepository) FindByRkeys(ctx context.Context, rkeys []string, includeDeleted bool) (packs []models.Pack, err error) {
	if len(rkeys) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { metrics.ObserveStoreOp("packs.by_rkeys", start, err, nil) }(time.Now())

	return r.findMany(ctx, byKeysFilter(query.FieldRkey, rkeys, includeDeleted))
}

// FindByCreators 批量获取 creator_did 属于 dids 的 pack
func (r *MongoPackRepository) FindByCreators(ctx context.Context, dids []string, includeDeleted bool) (packs []models.Pack, err error) {
	if len(dids) == 0 {
		return nil, nil
	}
	defer func(start time.Time) { metrics.ObserveStoreOp("packs.by_creators", start, err, nil) }(time.Now())

	return r.findMany(ctx, byKeysFilter(query.FieldCreatorDID, dids, includeDeleted))
}

func (r *MongoPackRepository) findMany(ctx context.Context, filter bson.M) ([]models.Pack, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: query.FieldName, Value: 1}, {Key: query.FieldRkey, Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find packs: %w", err)
	}
	var packs []models.Pack
	if err := cur.All(ctx, &packs); err != nil {
		return nil, fmt.Errorf("decode packs: %w", err)
	}
	return packs, nil
}

// Summary 统计活跃 pack 数量与平均成员数
func (r *MongoPackRepository) Summary(ctx context.Context, strict bool) (summary *PackSummary, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOp("packs.summary", start, err, nil) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, PackSummaryPipeline(strict))
	if err != nil {
		return nil, fmt.Errorf("aggregate pack summary: %w", err)
	}
	var rows []PackSummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode pack summary: %w", err)
	}
	if len(rows) == 0 {
		return &PackSummary{}, nil
	}
	return &rows[0], nil
}
