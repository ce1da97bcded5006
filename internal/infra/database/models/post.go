package models

import (
	"time"
)

type Post struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	EntityID string    `json:"entityID" gorm:"type:text;index;not null"`
	Entity   Entity    `json:"-" gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	Schema   string    `json:"schema" gorm:"type:text;not null"`
	Content  string    `json:"content" gorm:"type:jsonb"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
