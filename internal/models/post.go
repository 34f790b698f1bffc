package models

import (
	"time"
)

// PostOrder is the ordering key shared by every post listing.
const PostOrder = "posts.created_at DESC, posts.id DESC"

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id"` // Nullable, posts may live outside any group
	Group     *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group"`
	Image     string    `gorm:"size:255" json:"image"` // storage key, empty when absent

	// 非数据库字段，列表页填充
	CommentCount int `gorm:"-" json:"comment_count"`
}

// String returns the first 15 characters of the text, as admin listings do.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > 15 {
		return string(runes[:15])
	}
	return p.Text
}
