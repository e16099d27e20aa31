package services

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gopher0727/StarterPacks/internal/metrics"
	"github.com/Gopher0727/StarterPacks/internal/models"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

// Joiner attaches related documents to a page of primary results. Every
// relation is fetched with one batched lookup per page, never per item.
// A failed lookup is logged and treated as "no relation found".
type Joiner struct {
	packs repositories.PackRepository
	users repositories.UserRepository
	log   *logger.Logger
}

func NewJoiner(packs repositories.PackRepository, users repositories.UserRepository, log *logger.Logger) *Joiner {
	return &Joiner{packs: packs, users: users, log: log.Named("joiner")}
}

// distinct returns the non-empty values of keys in first-seen order.
func distinct(keys ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range keys {
		for _, k := range list {
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// usersByDID loads users in one batch and indexes them by did.
func (j *Joiner) usersByDID(ctx context.Context, relation string, dids []string) map[string]*models.User {
	out := make(map[string]*models.User, len(dids))
	if len(dids) == 0 {
		return out
	}
	metrics.ObserveJoin(relation, len(dids))
	users, err := j.users.FindByDIDs(ctx, dids)
	if err != nil {
		j.log.WarnContext(ctx, "relationship lookup failed",
			zap.String("relation", relation), zap.Int("ids", len(dids)), zap.Error(err))
		return out
	}
	for i := range users {
		out[users[i].DID] = &users[i]
	}
	return out
}

// Packs attaches creator_details to each pack of a search page.
func (j *Joiner) Packs(ctx context.Context, packs []models.Pack) []PackResult {
	creatorDIDs := make([]string, len(packs))
	for i := range packs {
		creatorDIDs[i] = packs[i].CreatorDID
	}
	creators := j.usersByDID(ctx, "creators", distinct(creatorDIDs))

	out := make([]PackResult, len(packs))
	for i := range packs {
		out[i] = PackResult{PackView: newPackView(packs[i])}
		if u, ok := creators[packs[i].CreatorDID]; ok {
			s := newUserSummary(u)
			out[i].CreatorDetails = &s
		}
	}
	return out
}

// PackDetail resolves the creator and the ordered member list of one pack.
// Members keep the order of pack.users; duplicates and dangling dids are
// dropped.
func (j *Joiner) PackDetail(ctx context.Context, pack *models.Pack) *PackDetail {
	var creators, members map[string]*models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		creators = j.usersByDID(gctx, "creators", distinct([]string{pack.CreatorDID}))
		return nil
	})
	g.Go(func() error {
		members = j.usersByDID(gctx, "members", distinct(pack.Users))
		return nil
	})
	_ = g.Wait()

	order := distinct(pack.Users)
	resolved := resolvedMembers(order, members)

	detail := &PackDetail{
		PackResult: PackResult{PackView: newPackView(*pack)},
		Members:    make([]UserSummary, 0, resolved.Count()),
	}
	for i, ok := resolved.NextSet(0); ok; i, ok = resolved.NextSet(i + 1) {
		detail.Members = append(detail.Members, newUserSummary(members[order[i]]))
	}
	if u, ok := creators[pack.CreatorDID]; ok {
		s := newUserSummary(u)
		detail.CreatorDetails = &s
	}
	if dangling := uint(len(order)) - resolved.Count(); dangling > 0 {
		j.log.DebugContext(ctx, "pack has dangling members",
			zap.String("rkey", pack.Rkey), zap.Uint("dangling", dangling))
	}
	return detail
}

// resolvedMembers marks the positions of order that have a loaded user. The
// set drives both the ordered member walk and the dangling count.
func resolvedMembers(order []string, found map[string]*models.User) *bitset.BitSet {
	b := bitset.New(uint(len(order)))
	for i, did := range order {
		if _, ok := found[did]; ok {
			b.Set(uint(i))
		}
	}
	return b
}

// Users attaches member_packs and created_packs to a page of users. Both
// lookups run concurrently; deleted packs are skipped unless includeDeleted.
func (j *Joiner) Users(ctx context.Context, users []models.User, includeDeleted bool) []UserResult {
	packIDs := make([][]string, len(users))
	dids := make([]string, len(users))
	for i := range users {
		packIDs[i] = users[i].PackIDs
		dids[i] = users[i].DID
	}
	rkeys := distinct(packIDs...)
	dids = distinct(dids)

	var (
		byRkey    map[string]*models.Pack
		byCreator map[string][]models.Pack
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byRkey = j.packsByRkey(gctx, rkeys, includeDeleted)
		return nil
	})
	g.Go(func() error {
		byCreator = j.packsByCreator(gctx, dids, includeDeleted)
		return nil
	})
	_ = g.Wait()

	out := make([]UserResult, len(users))
	for i := range users {
		u := &users[i]
		member := make([]PackView, 0, len(u.PackIDs))
		for _, rkey := range distinct(u.PackIDs) {
			if p, ok := byRkey[rkey]; ok {
				member = append(member, newPackView(*p))
			}
		}
		created := make([]PackView, 0, len(byCreator[u.DID]))
		for _, p := range byCreator[u.DID] {
			created = append(created, newPackView(p))
		}
		out[i] = UserResult{UserView: newUserView(*u), MemberPacks: member, CreatedPacks: created}
	}
	return out
}

func (j *Joiner) packsByRkey(ctx context.Context, rkeys []string, includeDeleted bool) map[string]*models.Pack {
	out := make(map[string]*models.Pack, len(rkeys))
	if len(rkeys) == 0 {
		return out
	}
	metrics.ObserveJoin("member_packs", len(rkeys))
	packs, err := j.packs.FindByRkeys(ctx, rkeys, includeDeleted)
	if err != nil {
		j.log.WarnContext(ctx, "relationship lookup failed",
			zap.String("relation", "member_packs"), zap.Int("ids", len(rkeys)), zap.Error(err))
		return out
	}
	for i := range packs {
		out[packs[i].Rkey] = &packs[i]
	}
	return out
}

func (j *Joiner) packsByCreator(ctx context.Context, dids []string, includeDeleted bool) map[string][]models.Pack {
	out := make(map[string][]models.Pack, len(dids))
	if len(dids) == 0 {
		return out
	}
	metrics.ObserveJoin("created_packs", len(dids))
	packs, err := j.packs.FindByCreators(ctx, dids, includeDeleted)
	if err != nil {
		j.log.WarnContext(ctx, "relationship lookup failed",
			zap.String("relation", "created_packs"), zap.Int("ids", len(dids)), zap.Error(err))
		return out
	}
	for _, p := range packs {
		out[p.CreatorDID] = append(out[p.CreatorDID], p)
	}
	return out
}
