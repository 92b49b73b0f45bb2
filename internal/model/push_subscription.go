package model

import "time"

// PushSubscription holds a browser push subscription registered by a
// resident. Alerts for commands on UnitNumber are delivered to it.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	UserID     int64     `gorm:"not null;index"`
	UnitNumber string    `gorm:"size:32;not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}
