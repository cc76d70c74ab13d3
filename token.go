package plannerd

import "time"

// expiryMargin is applied twice: once when computing the stored expiry from
// the provider's expires_in, and once again when judging freshness. A token
// therefore stops counting as fresh roughly a minute before the provider's
// literal expiry instant.
const expiryMargin = 30 * time.Second

// ExpiryFromTTL converts an expires_in value in seconds into an absolute
// expiry, shaved by the safety margin.
func ExpiryFromTTL(now time.Time, expiresIn int64) time.Time {
	ttl := time.Duration(expiresIn)*time.Second - expiryMargin
	if ttl < 0 {
		ttl = 0
	}
	return now.Add(ttl)
}

// TokenFresh reports whether an access token expiring at expiresAt is still
// usable at now. A nil expiry is never fresh.
func TokenFresh(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return expiresAt.Sub(now) > expiryMargin
}
