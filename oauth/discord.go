package oauth

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// DiscordUsers fetches users/@me with the user's bearer token through a
// throwaway discordgo session
type DiscordUsers struct {
	// Optional, shared with the bot session so proxies and timeouts apply
	Client *http.Client
}

func (d DiscordUsers) CurrentUser(ctx context.Context, accessToken string) (*discordgo.User, error) {
	s, err := discordgo.New("Bearer " + accessToken)

	if err != nil {
		return nil, err
	}

	if d.Client != nil {
		s.Client = d.Client
	}

	// one request per callback, a throttled or failing Discord is reported as is
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false

	return s.User("@me", discordgo.WithContext(ctx), discordgo.WithRestRetries(0), discordgo.WithRetryOnRatelimit(false))
}
