package storage

import "time"

// SessionModel is the GORM model for the sessions table. Rows are
// append-only: a finished row is never updated again.
type SessionModel struct {
	Abnormal     bool       `gorm:"not null;default:false"`
	CreatedAt    time.Time  `gorm:"not null;index:idx_created_at"`
	FinishedAt   *time.Time `gorm:"default:null"`
	ID           string     `gorm:"primaryKey"`
	JarName      string     `gorm:"not null;default:''"`
	JarSHA256    string     `gorm:"not null;default:''"`
	Patch        string     `gorm:"not null;default:''"`
	PostCmdError string     `gorm:"not null;default:''"`
	Revision     string     `gorm:"not null;default:''"`
	State        string     `gorm:"not null;index:idx_state;check:state IN ('running','finished')"`
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string { return "sessions" }
