package repositories

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/query"
)

// SearchFilter is the single filter a search page and its count share.
func SearchFilter(spec *query.Spec) bson.M {
	or := make(bson.A, 0, len(spec.Fields))
	for _, field := range spec.Fields {
		or = append(or, bson.M{field: bson.M{"$regex": spec.Pattern, "$options": "i"}})
	}

	clauses := bson.A{bson.M{"$or": or}}
	if spec.ExcludeDeleted {
		clauses = append(clauses, notDeletedFilter(spec.KeepDeletionReasons))
	}
	return bson.M{"$and": clauses}
}

// notDeletedFilter matches documents whose deleted flag is absent or false,
// plus those deleted for one of the kept reasons.
func notDeletedFilter(keepReasons []string) bson.M {
	live := bson.M{query.FieldDeleted: bson.M{"$ne": true}}
	if len(keepReasons) == 0 {
		return live
	}
	return bson.M{"$or": bson.A{
		live,
		bson.M{query.FieldDeletionReason: bson.M{"$in": keepReasons}},
	}}
}

// SortDoc renders a Spec's compound sort as a bson.D.
func SortDoc(spec *query.Spec) bson.D {
	sort := make(bson.D, 0, len(spec.Sort))
	for _, f := range spec.Sort {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}

// arraySize is the size of an array field, 0 when missing or not an array.
func arraySize(field string) bson.M {
	return bson.M{"$size": bson.M{"$cond": bson.A{
		bson.M{"$isArray": "$" + field},
		"$" + field,
		bson.A{},
	}}}
}

// UserSearchPipeline computes pack_ids_count before sorting on it.
func UserSearchPipeline(spec *query.Spec, filter bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.M{
			query.FieldPackIDsCount:   arraySize(query.FieldPackIDs),
			query.FieldFollowersCount: bson.M{"$ifNull": bson.A{"$" + query.FieldFollowersCount, 0}},
		}}},
		{{Key: "$sort", Value: SortDoc(spec)}},
		{{Key: "$skip", Value: spec.Skip}},
		{{Key: "$limit", Value: spec.Limit}},
	}
}

// ActivePacksFilter selects the packs counted by stats.
func ActivePacksFilter(strict bool) bson.M {
	filter := bson.M{query.FieldDeleted: bson.M{"$ne": true}}
	if strict {
		filter["status"] = models.PackStatusCompleted
	}
	return filter
}

// ActiveUsersFilter selects the users counted by stats.
func ActiveUsersFilter(strict bool) bson.M {
	filter := bson.M{query.FieldDeleted: bson.M{"$ne": true}}
	if strict {
		filter[query.FieldHandle] = bson.M{"$type": "string", "$ne": ""}
	}
	return filter
}

// PackSummaryPipeline counts active packs and averages len(users) in one pass.
func PackSummaryPipeline(strict bool) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ActivePacksFilter(strict)}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"count":    bson.M{"$sum": 1},
			"avg_size": bson.M{"$avg": arraySize("users")},
		}}},
	}
}

// byKeysFilter matches field ∈ keys, optionally skipping deleted documents.
func byKeysFilter(field string, keys []string, includeDeleted bool) bson.M {
	filter := bson.M{field: bson.M{"$in": keys}}
	if !includeDeleted {
		filter[query.FieldDeleted] = bson.M{"$ne": true}
	}
	return filter
}
