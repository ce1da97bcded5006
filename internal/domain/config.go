package domain

import "time"

type Config struct {
	BaseURL         string
	RequestTimeout  time.Duration
	FanoutWorkers   int
	FollowCanonical bool
}
