// Package oauth implements the authorization code callback: code -> token ->
// users/@me -> store.
package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"guildpass/config"
	"guildpass/store"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type Outcome int

const (
	OutcomeApproved Outcome = iota
	OutcomeMissingCode
	OutcomeCodeReused
	OutcomeTokenExchangeFailed
	OutcomeNoAccessToken
	OutcomeUserFetchFailed
	OutcomeStoreFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeMissingCode:
		return "missing_code"
	case OutcomeCodeReused:
		return "code_reused"
	case OutcomeTokenExchangeFailed:
		return "token_exchange_failed"
	case OutcomeNoAccessToken:
		return "no_access_token"
	case OutcomeUserFetchFailed:
		return "user_fetch_failed"
	case OutcomeStoreFailed:
		return "store_failed"
	}

	return "unknown"
}

// Result of a single callback. Detail carries the raw upstream body (or the
// transport error) for the two upstream failure outcomes.
type Result struct {
	Outcome Outcome
	UserID  string
	Detail  string
}

// UserFetcher resolves the owner of a bearer token
type UserFetcher interface {
	CurrentUser(ctx context.Context, accessToken string) (*discordgo.User, error)
}

// CodeCache remembers codes that were already presented. Claim returns false if
// the code was seen before.
type CodeCache interface {
	Claim(ctx context.Context, code string) (bool, error)
}

type Flow struct {
	OAuth *oauth2.Config
	Users UserFetcher
	Store store.Store

	// Optional, nil disables replay protection
	Codes CodeCache

	// Used for the token exchange, nil means http.DefaultClient
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewOAuth2Config builds the client config for Discord's authorization code grant.
// Credentials are sent in the form body like Discord documents.
func NewOAuth2Config(auth config.DiscordAuth, o config.OAuth) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		RedirectURL:  auth.RedirectURI,
		Scopes:       o.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   o.AuthorizeURL,
			TokenURL:  o.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizeURL is the link users open to grant identify and guilds.join
func (f *Flow) AuthorizeURL() string {
	return f.OAuth.AuthCodeURL("")
}

func (f *Flow) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *Flow) Callback(ctx context.Context, code string) Result {
	if code == "" {
		return Result{Outcome: OutcomeMissingCode}
	}

	if f.Codes != nil {
		fresh, err := f.Codes.Claim(ctx, code)

		if err != nil {
			// the guard is best effort, Discord rejects reused codes anyway
			f.logger().Warn("Code cache unavailable", zap.Error(err))
		} else if !fresh {
			return Result{Outcome: OutcomeCodeReused}
		}
	}

	if f.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.HTTPClient)
	}

	tok, err := f.OAuth.Exchange(ctx, code, oauth2.SetAuthURLParam("scope", strings.Join(f.OAuth.Scopes, " ")))

	if err != nil {
		var rerr *oauth2.RetrieveError
		var uerr *url.Error

		switch {
		case errors.As(err, &rerr):
			f.logger().Info("Token exchange rejected", zap.Int("status", statusOf(rerr.Response)), zap.ByteString("body", rerr.Body))
			return Result{Outcome: OutcomeTokenExchangeFailed, Detail: string(rerr.Body)}
		case errors.As(err, &uerr):
			f.logger().Warn("Token endpoint unreachable", zap.Error(err))
			return Result{Outcome: OutcomeTokenExchangeFailed, Detail: uerr.Error()}
		default:
			f.logger().Info("Token response without access token", zap.Error(err))
			return Result{Outcome: OutcomeNoAccessToken}
		}
	}

	if tok.AccessToken == "" {
		return Result{Outcome: OutcomeNoAccessToken}
	}

	user, err := f.Users.CurrentUser(ctx, tok.AccessToken)

	if err != nil {
		var rest *discordgo.RESTError

		if errors.As(err, &rest) {
			f.logger().Info("users/@me rejected", zap.Int("status", statusOf(rest.Response)), zap.ByteString("body", rest.ResponseBody))
			return Result{Outcome: OutcomeUserFetchFailed, Detail: string(rest.ResponseBody)}
		}

		f.logger().Warn("users/@me failed", zap.Error(err))
		return Result{Outcome: OutcomeUserFetchFailed, Detail: err.Error()}
	}

	if user == nil || user.ID == "" {
		return Result{Outcome: OutcomeUserFetchFailed, Detail: "user id missing from response"}
	}

	if err := f.Store.Upsert(ctx, user.ID, tok.AccessToken); err != nil {
		f.logger().Error("Failed to store access token", zap.String("userId", user.ID), zap.Error(err))
		return Result{Outcome: OutcomeStoreFailed, UserID: user.ID}
	}

	f.logger().Info("User authorized", zap.String("userId", user.ID))

	return Result{Outcome: OutcomeApproved, UserID: user.ID}
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
