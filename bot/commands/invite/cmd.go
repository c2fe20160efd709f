// Defines the invite commands: the approval button and the dispatch run
package invite

import (
	"context"
	"errors"
	"time"

	"guildpass/bot/botapi"
	"guildpass/constants"
	"guildpass/dispatch"

	"github.com/bwmarrin/discordgo"
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// Linker builds the OAuth2 consent link, *oauth.Flow
type Linker interface {
	AuthorizeURL() string
}

// Runner adds every stored user to a guild, *dispatch.Dispatcher
type Runner interface {
	Run(ctx context.Context, guildID string) (dispatch.Result, error)
}

type Options struct {
	Links      Linker
	Dispatcher Runner

	// Guilds the dispatch command may run in, empty or nil allows every guild
	AllowedGuilds mapset.Set[string]

	// Upper bound of one dispatch run
	Timeout time.Duration
}

func Register(r *botapi.Registry, o Options) {
	r.AddCommand(botapi.Command{
		Name:        constants.InviteCommandName,
		Description: constants.DescInviteCommand,
		Callback: func(ctx *botapi.Context) {
			err := ctx.ReplyWithLink(
				ctx.Printer.Sprintf(constants.MsgInvitePrompt),
				ctx.Printer.Sprintf(constants.MsgInviteButton),
				o.Links.AuthorizeURL(),
			)

			if err != nil {
				ctx.Logger.Error("Failed to send invite button", zap.Error(err))
			}
		},
	})

	r.AddCommand(botapi.Command{
		Name:                     constants.DispatchCommandName,
		Description:              constants.DescDispatchCommand,
		DefaultMemberPermissions: discordgo.PermissionManageServer,
		GuildOnly:                true,
		Callback: func(ctx *botapi.Context) {
			guildID := ctx.Interaction.GuildID

			if o.AllowedGuilds != nil && o.AllowedGuilds.Cardinality() > 0 && !o.AllowedGuilds.Contains(guildID) {
				if err := ctx.Reply(ctx.Printer.Sprintf(constants.MsgGuildNotAllowed), true); err != nil {
					ctx.Logger.Error("Failed to reply", zap.Error(err))
				}
				return
			}

			// one add per user can easily outlive the 3 second response window
			if err := ctx.Defer(false); err != nil {
				ctx.Logger.Error("Failed to defer interaction", zap.Error(err))
				return
			}

			timeout := o.Timeout
			if timeout <= 0 {
				timeout = 10 * time.Minute
			}

			runCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			res, err := o.Dispatcher.Run(runCtx, guildID)

			var msg string
			switch {
			case errors.Is(err, dispatch.ErrNoUsers):
				msg = ctx.Printer.Sprintf(constants.MsgNoUsers)
			case err != nil:
				ctx.Logger.Error("Dispatch failed", zap.Error(err))
				msg = ctx.Printer.Sprintf(constants.MsgDispatchFailed)
			default:
				msg = ctx.Printer.Sprintf(constants.MsgDispatchResult, res.Success, res.Failed)
			}

			if err := ctx.EditReply(msg); err != nil {
				ctx.Logger.Error("Failed to edit reply", zap.Error(err))
			}
		},
	})
}
