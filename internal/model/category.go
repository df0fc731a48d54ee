package model

import "time"

// TaskCategory groups tasks. Names are unique across all users.
type TaskCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	UserID    uint      `json:"user" gorm:"not null;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CategoryPatch is a partial category update.
type CategoryPatch struct {
	Name *string
}

// Apply copies the present fields onto c.
func (p CategoryPatch) Apply(c *TaskCategory) {
	if p.Name != nil {
		c.Name = *p.Name
	}
}
