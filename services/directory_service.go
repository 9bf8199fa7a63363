package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DirectoryIdentity is what the external directory resolves an access
// token to. Role names are opaque strings.
type DirectoryIdentity struct {
	PlayerID    string   `json:"playerId"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

// DirectoryService resolves access tokens against the external identity
// directory and answers authorization questions from configuration: the
// admin role set and the admin player allow-list are plain data loaded at
// startup, never hardcoded identifiers.
type DirectoryService struct {
	BaseURL      string
	AdminRoles   map[string]struct{}
	AdminPlayers map[string]struct{}
	HTTPClient   *http.Client
}

// NewDirectoryService builds the service from comma-separated role and
// player allow-lists.
func NewDirectoryService(baseURL, adminRoles, adminPlayers string) *DirectoryService {
	return &DirectoryService{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AdminRoles:   splitSet(adminRoles),
		AdminPlayers: splitSet(adminPlayers),
		HTTPClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func splitSet(csv string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// ResolveRoles asks the directory who the token belongs to. Directory
// failures are ErrUpstreamUnavailable; callers decide whether that is
// fatal (authorization) or not (display names).
func (ds *DirectoryService) ResolveRoles(ctx context.Context, accessToken string) (*DirectoryIdentity, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrForbidden)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ds.BaseURL+"/api/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := ds.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: directory rejected the token", ErrForbidden)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: directory returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var identity DirectoryIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: malformed directory response: %v", ErrUpstreamUnavailable, err)
	}
	return &identity, nil
}

// IsAdmin reports whether the identity may run administrative operations:
// either one of its roles is in the configured admin role set, or its
// player id is on the configured allow-list.
func (ds *DirectoryService) IsAdmin(identity *DirectoryIdentity) bool {
	if identity == nil {
		return false
	}
	if _, ok := ds.AdminPlayers[identity.PlayerID]; ok {
		return true
	}
	for _, role := range identity.Roles {
		if _, ok := ds.AdminRoles[role]; ok {
			return true
		}
	}
	return false
}
