package domain

import "time"

type NotificationType string

const (
	NotificationDelay      NotificationType = "delay"
	NotificationOutOfStock NotificationType = "out_of_stock"
	NotificationExpiration NotificationType = "expiration"
)

type DelayNotification struct {
	ProductName  string
	LeadTimeDays int
}

type OutOfStockNotification struct {
	ProductName string
}

type ExpirationNotification struct {
	ProductName string
	ExpiredAt   time.Time
}
