package models

import "time"

// DateLayout is the display format for Job.DatePosted.
const DateLayout = "2006-01-02"

// Job represents a job listing posted by a user.
type Job struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	DatePosted  time.Time `gorm:"not null;index" json:"date_posted"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Author      User      `gorm:"foreignKey:UserID" json:"author"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "job"
}

// FormattedDate renders DatePosted as YYYY-MM-DD.
func (j *Job) FormattedDate() string {
	return j.DatePosted.UTC().Format(DateLayout)
}

// IsOwnedBy reports whether the user authored the job.
func (j *Job) IsOwnedBy(u *User) bool {
	return u != nil && j.UserID == u.ID
}
