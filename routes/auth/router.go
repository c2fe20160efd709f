package auth

import (
	"net/http"

	"guildpass/api"
	"guildpass/oauth"
	"guildpass/routes/auth/endpoints/get_authorize"
	"guildpass/routes/auth/endpoints/get_callback"

	"github.com/go-chi/chi/v5"
)

const tagName = "OAuth"

type Router struct {
	Flow *oauth.Flow

	// Applied to /callback only, usually the per IP ratelimit
	Middleware []func(http.Handler) http.Handler
}

func (b Router) Tag() (string, string) {
	return tagName, "These API endpoints are the OAuth2 authorization code flow users go through to approve joins"
}

func (b Router) Routes(r *chi.Mux) {
	api.Route{
		Pattern: "/callback",
		OpId:    "get_callback",
		Method:  api.GET,
		Handler: get_callback.Endpoint{Flow: b.Flow}.Route,
	}.Route(r.With(b.Middleware...))

	api.Route{
		Pattern: "/authorize",
		OpId:    "get_authorize",
		Method:  api.GET,
		Handler: get_authorize.Endpoint{Flow: b.Flow}.Route,
	}.Route(r)
}
