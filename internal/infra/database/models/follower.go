package models

import (
	"time"
)

type Follower struct {
	ID               string          `json:"id" gorm:"primaryKey;type:text"`
	EntityID         string          `json:"entityID" gorm:"type:text;index;not null"`
	Entity           Entity          `json:"-" gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	Identifier       string          `json:"identifier" gorm:"type:text;not null"`
	Permissions      map[string]bool `json:"permissions" gorm:"type:jsonb;serializer:json"`
	Licenses         []string        `json:"licenses" gorm:"type:jsonb;serializer:json"`
	Types            []string        `json:"types" gorm:"type:jsonb;serializer:json"`
	NotificationPath string          `json:"notificationPath" gorm:"type:text"`
	CDate            time.Time       `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate            time.Time       `json:"mdate" gorm:"autoUpdateTime"`
}
