package upload

import (
	"context"
	"fmt"
	"net/http"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// StaticTokenCredentials supplies a fixed bearer token on every coordinator
// request. The token is resolved once per batch and never refreshed
// mid-batch; callers rotate tokens by constructing a new provider.
type StaticTokenCredentials struct {
	token string
}

var _ uploadtypes.CredentialProvider = (*StaticTokenCredentials)(nil)

// NewStaticTokenCredentials creates a provider carrying the given bearer
// token.
func NewStaticTokenCredentials(token string) *StaticTokenCredentials {
	return &StaticTokenCredentials{token: token}
}

// AuthHeaders returns the Authorization header for coordinator requests. An
// empty token is a resolution failure, not an unauthenticated request.
func (s *StaticTokenCredentials) AuthHeaders(_ context.Context) (http.Header, error) {
	if s.token == "" {
		return nil, fmt.Errorf("bearer token is empty")
	}

	return http.Header{"Authorization": []string{"Bearer " + s.token}}, nil
}

// APIKeyCredentials supplies a fixed key via the X-API-Key header, for
// coordinators that authenticate API keys outside the Authorization header.
type APIKeyCredentials struct {
	key string
}

var _ uploadtypes.CredentialProvider = (*APIKeyCredentials)(nil)

// NewAPIKeyCredentials creates a provider carrying the given API key.
func NewAPIKeyCredentials(key string) *APIKeyCredentials {
	return &APIKeyCredentials{key: key}
}

// AuthHeaders returns the X-API-Key header for coordinator requests.
func (a *APIKeyCredentials) AuthHeaders(_ context.Context) (http.Header, error) {
	if a.key == "" {
		return nil, fmt.Errorf("api key is empty")
	}

	return http.Header{"X-API-Key": []string{a.key}}, nil
}
