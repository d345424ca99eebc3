package cache

import "fmt"

// ValidationResultKey caches the accepted state of a license. A single key
// per license keeps admin invalidation to one Delete.
func ValidationResultKey(licenseKey string) string {
	return fmt.Sprintf("license:result:%s", licenseKey)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
