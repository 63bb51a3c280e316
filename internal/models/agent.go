package models

import "time"

// Agent is a human operator account. Present in the schema for assignment
// and future panel authentication; the dispatch path never reads it.
type Agent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
	FullName     string `gorm:"size:255"`
	Active       bool   `gorm:"default:true"`
	CreatedAt    time.Time
}
