package models

import (
	"time"
)

type Entity struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Name        string    `json:"name" gorm:"type:text;uniqueIndex;not null"`
	IdentityURL string    `json:"entity" gorm:"type:text;not null"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate       time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Profile struct {
	EntityID string    `json:"entityID" gorm:"primaryKey;type:text"`
	Entity   Entity    `json:"-" gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	Schema   string    `json:"schema" gorm:"primaryKey;type:text"`
	Content  string    `json:"content" gorm:"type:jsonb"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate    time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
