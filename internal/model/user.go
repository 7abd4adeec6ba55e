package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 对应 users 表。角色在创建时确定，之后没有修改入口。
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// IsAdmin 判断用户是否为管理员。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserProfile 是 /identity 返回的用户公开信息，也是 Redis 中缓存的结构。
type UserProfile struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Profile 返回用户的公开信息。
func (u *User) Profile() *UserProfile {
	return &UserProfile{Name: u.Name, Role: u.Role, Email: u.Email}
}
