// ABOUTME: Ownership-based permission check for owned resources
// ABOUTME: Safe methods pass; mutation requires the authenticated owner

package auth

import "net/http"

// OwnerOrReadOnly decides whether a request may proceed against a
// resource owned by ownerID. Safe methods are always allowed. Mutating
// methods require an authenticated requester equal to the owner; an
// empty requesterID (anonymous caller) is always denied mutation.
func OwnerOrReadOnly(method, requesterID, ownerID string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}

	if requesterID == "" {
		return false
	}
	return requesterID == ownerID
}
