// File: utils/constants.go
package utils

// PriceCachePrefix is the prefix used for Redis catalog price cache keys.
const PriceCachePrefix = "price:"

// ExpiryIndexKey is the Redis sorted set holding one entry per live hold,
// scored by unix expiry time.
const ExpiryIndexKey = "cart:expiry"

// SessionHeader carries the client-generated session UUID on every cart call.
const SessionHeader = "X-Session-ID"
