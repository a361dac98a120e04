// Package models contains data structures for the job board's domain models.
package models

// User is a registered account. Users are never updated or deleted by the application.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Jobs         []Job  `gorm:"foreignKey:UserID" json:"jobs,omitempty"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "user"
}
