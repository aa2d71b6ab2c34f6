// file: models/team_member.go
package models

import "time"

type TeamMemberRole string

const (
	TeamRoleLeader TeamMemberRole = "leader"
	TeamRoleMember TeamMemberRole = "member"
)

// TeamMember 一个用户最多加入一个队伍
type TeamMember struct {
	ID       uint32         `gorm:"primarykey"`
	TeamID   uint32         `gorm:"not null;index"`
	UserID   uint32         `gorm:"uniqueIndex;not null"`
	Role     TeamMemberRole `gorm:"size:16;default:'member'"`
	JoinedAt time.Time
}

func (TeamMember) TableName() string {
	return "dalictf_team_members"
}
