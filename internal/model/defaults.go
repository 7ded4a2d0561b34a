package model

import "time"

// Shared defaults used by the shipper, the collector and the dashboard.
const (
	DefaultBindHost        = "127.0.0.1"
	DefaultCollectorPort   = 4000
	DefaultAPIPort         = 3000
	DefaultMessageInterval = 10
	DefaultFlushInterval   = 5 * time.Second
	DefaultUpdateInterval  = 2 * time.Second
	DefaultRecentEntries   = 100
)
