package get_authorize

import (
	"net/http"

	"guildpass/api"
	"guildpass/oauth"
)

// Endpoint redirects to Discord's consent screen, handy for sharing outside Discord
type Endpoint struct {
	Flow *oauth.Flow
}

func (e Endpoint) Route(d api.RouteData, r *http.Request) api.HttpResponse {
	return api.HttpResponse{
		Redirect: e.Flow.AuthorizeURL(),
	}
}
