package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"arena_server/services"
)

// bearerToken extracts the access token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireAdmin resolves the caller through the directory and verifies they
// hold an admin role or sit on the configured allow-list. Directory outages
// deny administrative access rather than failing open.
func RequireAdmin(r *http.Request, directory *services.DirectoryService) (*services.DirectoryIdentity, error) {
	identity, err := directory.ResolveRoles(r.Context(), bearerToken(r))
	if err != nil {
		return nil, err
	}
	if !directory.IsAdmin(identity) {
		return nil, fmt.Errorf("%w: administrative role required", services.ErrForbidden)
	}
	return identity, nil
}
