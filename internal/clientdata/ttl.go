package clientdata

import "time"

// TTL constants added to time.Now() when storing to calculate expires_at.
const (
	// Closed trading days never change; the TTL only bounds disk growth
	TTLPriceHistory = 24 * time.Hour
)
