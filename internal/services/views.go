package services

import "github.com/Gopher0727/StarterPacks/internal/models"

// UserSummary is the compact user shape embedded in other responses
// (creator_details, members).
type UserSummary struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"display_name,omitempty"`
	FollowersCount int64  `json:"followers_count"`
	Deleted        bool   `json:"deleted,omitempty"`
}

func newUserSummary(u *models.User) UserSummary {
	d := u.Display()
	return UserSummary{
		DID:            u.DID,
		Handle:         d.Handle,
		DisplayName:    d.DisplayName,
		FollowersCount: u.FollowersCount,
		Deleted:        u.Deleted,
	}
}

// PackView is a pack with its display fields resolved.
type PackView struct {
	models.Pack
	MemberCount int64 `json:"member_count"`
}

func newPackView(p models.Pack) PackView {
	d := p.Display()
	p.Name, p.Creator = d.Name, d.Creator
	p.LastKnownState = nil
	return PackView{Pack: p, MemberCount: p.MemberCount()}
}

// PackResult is a search result: the pack plus its creator, or null.
type PackResult struct {
	PackView
	CreatorDetails *UserSummary `json:"creator_details"`
}

// PackDetail is the single pack response with its resolved members.
type PackDetail struct {
	PackResult
	Members []UserSummary `json:"members"`
}

// UserView is a user with display fields resolved.
type UserView struct {
	models.User
	PackCount int `json:"pack_count"`
}

func newUserView(u models.User) UserView {
	d := u.Display()
	u.Handle, u.DisplayName = d.Handle, d.DisplayName
	u.LastKnownState = nil
	return UserView{User: u, PackCount: len(u.PackIDs)}
}

// UserResult is a user with the packs it belongs to and the packs it made.
// The outer created_packs shadows the raw rkey list of the document.
type UserResult struct {
	UserView
	MemberPacks  []PackView `json:"member_packs"`
	CreatedPacks []PackView `json:"created_packs"`
}

// PackLabel is the minimal shape used to render pack badges.
type PackLabel struct {
	Name    string `json:"name"`
	Creator string `json:"creator"`
}
