// Package dispatch adds every authorized user to a guild
package dispatch

import (
	"context"
	"errors"
	"net/http"

	"guildpass/store"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrNoUsers = errors.New("dispatch: no authorized users")

// Adder is the guild member add call of *discordgo.Session
type Adder interface {
	GuildMemberAdd(guildID, userID string, data *discordgo.GuildMemberAddParams, options ...discordgo.RequestOption) error
}

type Failure struct {
	UserID string
	// HTTP status of the rejection, 0 for transport errors
	Status  int
	Message string
}

type Result struct {
	Attempted int
	Success   int
	Failed    int
	Failures  []Failure
}

type Dispatcher struct {
	Adder Adder
	Store store.Store

	// Optional pacing between adds
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewLimiter returns a limiter allowing perMinute adds a minute, or nil when
// perMinute is 0
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
}

// Run performs one add per stored user, in store order and one at a time.
// A rejected or throttled user never stops the run and is never retried. Cancelling ctx marks the remaining users
// as failed.
func (d *Dispatcher) Run(ctx context.Context, guildID string) (Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	users, err := d.Store.All(ctx)

	if err != nil {
		return Result{}, err
	}

	if len(users) == 0 {
		return Result{}, ErrNoUsers
	}

	res := Result{}

	for _, u := range users {
		res.Attempted++

		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				res.fail(u.UserID, 0, err.Error())
				continue
			}
		}

		// exactly one request per user: no 502 retries, no sleeping on 429
		err := d.Adder.GuildMemberAdd(guildID, u.UserID, &discordgo.GuildMemberAddParams{
			AccessToken: u.AccessToken,
		}, discordgo.WithContext(ctx), discordgo.WithRestRetries(0), discordgo.WithRetryOnRatelimit(false))

		if err == nil {
			res.Success++
			continue
		}

		var rest *discordgo.RESTError
		var rl *discordgo.RateLimitError

		switch {
		case errors.As(err, &rest) && rest.Response != nil:
			res.fail(u.UserID, rest.Response.StatusCode, string(rest.ResponseBody))
		case errors.As(err, &rl):
			res.fail(u.UserID, http.StatusTooManyRequests, err.Error())
		default:
			res.fail(u.UserID, 0, err.Error())
		}

		logger.Info("Guild member add failed", zap.String("guildId", guildID), zap.String("userId", u.UserID), zap.Error(err))
	}

	logger.Info("Dispatch finished", zap.String("guildId", guildID), zap.Int("attempted", res.Attempted), zap.Int("success", res.Success), zap.Int("failed", res.Failed))

	return res, nil
}

func (r *Result) fail(userID string, status int, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{UserID: userID, Status: status, Message: msg})
}
