// The internal slash command handler of the guildpass bot
package botapi

import (
	"fmt"

	"guildpass/constants"
	"guildpass/locales"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/text/message"
)

// Responder is the part of *discordgo.Session commands answer through
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Commander is the part of *discordgo.Session used to publish commands
type Commander interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

type Context struct {
	// Filled in on every command execution
	Command     Command
	Interaction *discordgo.Interaction
	Session     Responder
	Printer     *message.Printer
	Logger      *zap.Logger
}

// UserID returns the invoking user, Member is only set inside guilds
func (ctx *Context) UserID() string {
	if ctx.Interaction.Member != nil && ctx.Interaction.Member.User != nil {
		return ctx.Interaction.Member.User.ID
	}

	if ctx.Interaction.User != nil {
		return ctx.Interaction.User.ID
	}

	return ""
}

func (ctx *Context) Reply(text string, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return ctx.Session.InteractionRespond(ctx.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   flags,
		},
	})
}

// ReplyWithLink replies with text and a single link button
func (ctx *Context) ReplyWithLink(text, label, url string) error {
	return ctx.Session.InteractionRespond(ctx.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label: label,
							Style: discordgo.LinkButton,
							URL:   url,
						},
					},
				},
			},
		},
	})
}

// Defer acknowledges the interaction. The answer must follow through EditReply
// within 15 minutes.
func (ctx *Context) Defer(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return ctx.Session.InteractionRespond(ctx.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

func (ctx *Context) EditReply(text string) error {
	_, err := ctx.Session.InteractionResponseEdit(ctx.Interaction, &discordgo.WebhookEdit{
		Content: &text,
	})
	return err
}

type Command struct {
	Name        string
	Description string
	// Permissions a member needs by default, 0 means everyone
	DefaultMemberPermissions int64
	// Hides the command in DMs and rejects DM invocations
	GuildOnly bool
	Callback  func(*Context)
}

type Registry struct {
	cmds   map[string]Command
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		cmds:   make(map[string]Command),
		logger: logger,
	}
}

func (r *Registry) AddCommand(cmd Command) {
	if cmd.Name == "" {
		panic("Command name cannot be empty")
	}

	if cmd.Description == "" {
		panic("Command description cannot be empty")
	}

	if cmd.Callback == nil {
		panic("Command callback cannot be nil")
	}

	if _, ok := r.cmds[cmd.Name]; ok {
		panic("Command already registered: " + cmd.Name)
	}

	r.cmds[cmd.Name] = cmd
}

// ApplicationCommands returns the commands in the shape Discord expects, sorted by name
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}

	slices.Sort(names)

	cmdList := make([]*discordgo.ApplicationCommand, 0, len(names))

	for _, name := range names {
		cmd := r.cmds[name]

		ac := &discordgo.ApplicationCommand{
			Type:                     discordgo.ChatApplicationCommand,
			Name:                     cmd.Name,
			Description:              cmd.Description,
			DescriptionLocalizations: locales.Localizations(cmd.Description),
		}

		if cmd.DefaultMemberPermissions != 0 {
			perms := cmd.DefaultMemberPermissions
			ac.DefaultMemberPermissions = &perms
		}

		if cmd.GuildOnly {
			dm := false
			ac.DMPermission = &dm
		}

		cmdList = append(cmdList, ac)
	}

	return cmdList
}

// RegisterWithAPI overwrites the application's commands, globally when guildID is empty
func (r *Registry) RegisterWithAPI(s Commander, appID, guildID string) error {
	cmds, err := s.ApplicationCommandBulkOverwrite(appID, guildID, r.ApplicationCommands())

	if err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}

	r.logger.Info("Registered application commands", zap.String("guildId", guildID), zap.Int("count", len(cmds)))

	return nil
}

// Execute runs the command named by the interaction and reports whether one was found.
// Panics in callbacks are recovered.
func (r *Registry) Execute(s Responder, i *discordgo.Interaction) bool {
	if i.Type != discordgo.InteractionApplicationCommand {
		return false
	}

	cmd, ok := r.cmds[i.ApplicationCommandData().Name]

	if !ok {
		return false
	}

	ctx := &Context{
		Command:     cmd,
		Interaction: i,
		Session:     s,
		Printer:     locales.FromDiscord(i.Locale),
		Logger:      r.logger.With(zap.String("command", cmd.Name), zap.String("guildId", i.GuildID)),
	}

	if cmd.GuildOnly && i.GuildID == "" {
		if err := ctx.Reply(ctx.Printer.Sprintf(constants.MsgGuildOnly), true); err != nil {
			ctx.Logger.Error("Failed to reply", zap.Error(err))
		}
		return true
	}

	defer func() {
		if rec := recover(); rec != nil {
			ctx.Logger.Error("Panic in command callback", zap.Any("panic", rec))
			sentry.CurrentHub().Recover(rec)
		}
	}()

	ctx.Logger.Info("Running command", zap.String("userId", ctx.UserID()))

	cmd.Callback(ctx)

	return true
}

func (r *Registry) Start(sess *discordgo.Session) {
	// Create a discordgo event listener for the interactionCreate event
	sess.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		go r.Execute(s, i.Interaction)
	})
}
