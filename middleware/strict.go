package middleware

import (
	"net/http"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/access"
	"github.com/MrEthical07/goAuthClient/session"
)

// EngineSource reads the subject from an engine holding a single session,
// as in a backend-for-frontend serving one local user.
type EngineSource struct {
	Engine *goAuthClient.Engine
}

func (s EngineSource) Subject(*http.Request) access.Subject {
	return s.Engine.Subject()
}

// RequireEngineRoles guards a route with the engine's session and policy.
func RequireEngineRoles(engine *goAuthClient.Engine, roles ...session.Role) func(http.Handler) http.Handler {
	if engine == nil {
		return RequireRoles(nil, access.Policy{}, roles...)
	}
	return RequireRoles(EngineSource{Engine: engine}, engine.Policy(), roles...)
}

// EnginePublicOnly guards a signed-out-only route with the engine's session.
func EnginePublicOnly(engine *goAuthClient.Engine) func(http.Handler) http.Handler {
	if engine == nil {
		return PublicOnly(nil, access.Policy{})
	}
	return PublicOnly(EngineSource{Engine: engine}, engine.Policy())
}
