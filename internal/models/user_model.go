package models

// DeletionReasonNoRemainingPacks 由采集进程写在最后一个 pack 消失的用户上，
// 搜索默认仍展示这类用户
const DeletionReasonNoRemainingPacks = "no_remaining_packs"

// User 是 users 集合中的账号文档。
type User struct {
	DID            string     `bson:"did" json:"did"`
	Handle         string     `bson:"handle" json:"handle"`
	DisplayName    string     `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Description    string     `bson:"description,omitempty" json:"description,omitempty"`
	FollowersCount int64      `bson:"followers_count" json:"followers_count"`
	FollowsCount   int64      `bson:"follows_count" json:"follows_count"`
	PackIDs        StringList `bson:"pack_ids" json:"pack_ids"`
	CreatedPacks   StringList `bson:"created_packs" json:"created_packs"`

	Deleted        bool      `bson:"deleted" json:"deleted"`
	DeletedAt      Timestamp `bson:"deleted_at" json:"deleted_at"`
	DeletionReason string    `bson:"deletion_reason,omitempty" json:"deletion_reason,omitempty"`
	LastUpdated    Timestamp `bson:"last_updated" json:"last_updated"`

	LastKnownState *UserState `bson:"last_known_state,omitempty" json:"last_known_state,omitempty"`
}

// UserState 删除前保存的身份字段快照。
type UserState struct {
	Handle      *string `bson:"handle,omitempty" json:"handle,omitempty"`
	DisplayName *string `bson:"display_name,omitempty" json:"display_name,omitempty"`
}
