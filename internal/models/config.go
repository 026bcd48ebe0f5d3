package models

import "time"

// FetchConfig contains runtime options for loading job pages.
type FetchConfig struct {
	Timeout    time.Duration
	UserAgents []string
}
