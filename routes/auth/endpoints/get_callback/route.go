package get_callback

import (
	"net/http"

	"guildpass/api"
	"guildpass/constants"
	"guildpass/locales"
	"guildpass/oauth"
)

type Endpoint struct {
	Flow *oauth.Flow
}

// Route always answers 200 with a human readable line, the browser is the only client
func (e Endpoint) Route(d api.RouteData, r *http.Request) api.HttpResponse {
	p := locales.FromAcceptLanguage(r.Header.Get("Accept-Language"))

	res := e.Flow.Callback(d.Context, r.URL.Query().Get("code"))

	switch res.Outcome {
	case oauth.OutcomeApproved:
		return api.Text(p.Sprintf(constants.MsgApproved, constants.DispatchCommandName))
	case oauth.OutcomeMissingCode:
		return api.Text(p.Sprintf(constants.MsgMissingCode))
	case oauth.OutcomeCodeReused:
		return api.Text(p.Sprintf(constants.MsgCodeReused))
	case oauth.OutcomeTokenExchangeFailed:
		return api.Text(p.Sprintf(constants.MsgTokenFailed, res.Detail))
	case oauth.OutcomeNoAccessToken:
		return api.Text(p.Sprintf(constants.MsgNoAccessToken))
	case oauth.OutcomeUserFetchFailed:
		return api.Text(p.Sprintf(constants.MsgUserFetchFailed, res.Detail))
	}

	return api.Text(p.Sprintf(constants.MsgStoreFailed))
}
