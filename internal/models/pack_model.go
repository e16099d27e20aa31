package models

// Pack 是一个 starter pack 文档（starter_packs 集合）。
// 文档由外部的采集进程写入，这里只读。
type Pack struct {
	Rkey        string     `bson:"rkey" json:"rkey"`
	Name        string     `bson:"name" json:"name"`
	Creator     string     `bson:"creator" json:"creator"`
	CreatorDID  string     `bson:"creator_did" json:"creator_did"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Users       StringList `bson:"users" json:"users"`
	UserCount   int64      `bson:"user_count" json:"user_count"`
	WeeklyJoins int64      `bson:"weekly_joins" json:"weekly_joins"`
	TotalJoins  int64      `bson:"total_joins" json:"total_joins"`

	CreatedAt   Timestamp `bson:"created_at" json:"created_at"`
	UpdatedAt   Timestamp `bson:"updated_at" json:"updated_at"`
	LastUpdated Timestamp `bson:"last_updated" json:"last_updated"`

	Deleted        bool      `bson:"deleted" json:"deleted"`
	DeletedAt      Timestamp `bson:"deleted_at" json:"deleted_at"`
	DeletionReason string    `bson:"deletion_reason,omitempty" json:"deletion_reason,omitempty"`

	Status          string    `bson:"status,omitempty" json:"status,omitempty"`
	StatusUpdatedAt Timestamp `bson:"status_updated_at" json:"status_updated_at"`
	StatusReason    string    `bson:"status_reason,omitempty" json:"status_reason,omitempty"`

	LastKnownState *PackState `bson:"last_known_state,omitempty" json:"last_known_state,omitempty"`
}

// PackState 删除前保存的展示字段快照。字段缺失用 nil 表示。
type PackState struct {
	Name    *string `bson:"name,omitempty" json:"name,omitempty"`
	Creator *string `bson:"creator,omitempty" json:"creator,omitempty"`
}

// MemberCount 优先使用成员列表的实际长度，未加载列表时回退到缓存的 user_count
func (p *Pack) MemberCount() int64 {
	if len(p.Users) > 0 {
		return int64(len(p.Users))
	}
	return p.UserCount
}

// PackStatusCompleted 表示已完成采集的 pack
const PackStatusCompleted = "completed"
