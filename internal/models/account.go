package models

import "gorm.io/gorm"

// StudyAccount is a registered member with a cumulative study-time
// ledger in whole minutes. GoogleID is a pointer so guest accounts
// store NULL; the unique index only constrains linked accounts.
type StudyAccount struct {
	gorm.Model
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	ProfileImage   string `json:"profile_image,omitempty"`
	TotalStudyTime int64  `gorm:"default:0" json:"total_study_time"`
}
