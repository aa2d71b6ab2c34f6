// file: models/flag.go
package models

const (
	FlagTypeStatic = "static"
	FlagTypeRegex  = "regex"

	// FlagDataCaseInsensitive 写入 Flag.Data 表示忽略大小写
	FlagDataCaseInsensitive = "case_insensitive"
)

// Flag 对应 dalictf_flag 表，一道题可以有多个 Flag，任意一个匹配即为正确
type Flag struct {
	ID          uint32 `gorm:"primarykey" json:"id"`
	ChallengeID uint32 `gorm:"index;not null" json:"challenge_id"`
	Type        string `gorm:"size:32;not null;default:'static'" json:"type"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Data        string `gorm:"size:64" json:"data"`
}

func (Flag) TableName() string {
	return "dalictf_flag"
}
