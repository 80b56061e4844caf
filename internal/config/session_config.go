package config

import "time"

type SessionConfig interface {
	GetSessionMaxAge() time.Duration
	GetRefreshMaxAge() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionMaxAge() time.Duration {
	return 7 * time.Hour
}

func (Session) GetRefreshMaxAge() time.Duration {
	return 30 * 24 * time.Hour // 30 days
}
