package data

import (
	"strings"

	"go.vocdoni.io/ballot/ipfs"
	"go.vocdoni.io/ballot/types"
)

// ToHTTPURL rewrites an IPFS locator to the default public gateway.
func ToHTTPURL(locator string) string {
	return ToGatewayURL(locator, types.DefaultIPFSGateway)
}

// ToGatewayURL rewrites ipfs://<cid>[/path], /ipfs/<cid>[/path] and bare CIDs to
// <gateway><cid>[/path]. HTTP(S) URLs, already rewritten ones included, and any
// other input are returned unchanged, so the rewrite is idempotent.
func ToGatewayURL(locator, gateway string) string {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return locator
	case strings.HasPrefix(locator, ipfs.ProtocolPrefix):
		return gateway + strings.TrimPrefix(locator, ipfs.ProtocolPrefix)
	case strings.HasPrefix(locator, ipfs.PathPrefix):
		return gateway + strings.TrimPrefix(locator, ipfs.PathPrefix)
	case ipfs.IsCID(locator):
		return gateway + locator
	}
	return locator
}
