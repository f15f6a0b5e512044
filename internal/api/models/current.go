package models

import (
	"github.com/breatheroute/airdash/internal/airquality"
	"github.com/breatheroute/airdash/internal/notify"
)

// CurrentConditions is the response of GET /v1/current.
type CurrentConditions struct {
	Location    string    `json:"location"`
	AQIValue    int       `json:"aqiValue"`
	AQICategory string    `json:"aqiCategory"`
	Advisory    string    `json:"advisory"`
	NO2         float64   `json:"no2"`
	O3          float64   `json:"o3"`
	TrendNO2    string    `json:"trendNo2"`
	TrendO3     string    `json:"trendO3"`
	Timestamp   Timestamp `json:"timestamp"`
	Stale       bool      `json:"stale"`
}

// NewCurrentConditions maps a reading onto its wire form.
func NewCurrentConditions(c airquality.Current, stale bool) CurrentConditions {
	return CurrentConditions{
		Location:    c.Location,
		AQIValue:    c.AQIValue,
		AQICategory: string(c.AQICategory),
		Advisory:    c.AQICategory.Advisory(),
		NO2:         c.NO2,
		O3:          c.O3,
		TrendNO2:    string(c.TrendNO2),
		TrendO3:     string(c.TrendO3),
		Timestamp:   Timestamp(c.Timestamp),
		Stale:       stale,
	}
}

// Notification is one user-visible notification.
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"createdAt"`
}

// NotificationList is the response of GET /v1/notifications.
type NotificationList struct {
	Items []Notification `json:"items"`
}

// NewNotificationList maps notifications onto their wire form.
func NewNotificationList(ns []notify.Notification) NotificationList {
	items := make([]Notification, 0, len(ns))
	for _, n := range ns {
		items = append(items, Notification{
			ID:        n.ID,
			Level:     string(n.Level),
			Source:    n.Source,
			Message:   n.Message,
			CreatedAt: Timestamp(n.CreatedAt),
		})
	}
	return NotificationList{Items: items}
}
