package invite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"guildpass/bot/botapi"
	"guildpass/constants"
	"guildpass/dispatch"
	"guildpass/store"

	"github.com/bwmarrin/discordgo"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSession struct {
	responses []*discordgo.InteractionResponse
	edits     []string
}

func (f *fakeSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, *edit.Content)
	return &discordgo.Message{}, nil
}

type staticLink string

func (s staticLink) AuthorizeURL() string { return string(s) }

type runnerFunc func(ctx context.Context, guildID string) (dispatch.Result, error)

func (f runnerFunc) Run(ctx context.Context, guildID string) (dispatch.Result, error) {
	return f(ctx, guildID)
}

// rejectAdder refuses the users in reject
type rejectAdder map[string]bool

func (r rejectAdder) GuildMemberAdd(guildID, userID string, data *discordgo.GuildMemberAddParams, options ...discordgo.RequestOption) error {
	if r[userID] {
		return errors.New("rejected")
	}
	return nil
}

func interaction(name, guildID string, locale discordgo.Locale) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Locale:  locale,
		Member:  &discordgo.Member{User: &discordgo.User{ID: "42"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func newRegistry(t *testing.T, o Options) *botapi.Registry {
	t.Helper()

	if o.Links == nil {
		o.Links = staticLink("https://discord.com/oauth2/authorize?client_id=1")
	}

	r := botapi.NewRegistry(zaptest.NewLogger(t))
	Register(r, o)
	return r
}

func TestInviteButton(t *testing.T) {
	r := newRegistry(t, Options{})

	sess := &fakeSession{}
	require.True(t, r.Execute(sess, interaction(constants.InviteCommandName, "", "")))

	require.Len(t, sess.responses, 1)
	data := sess.responses[0].Data
	assert.Equal(t, "아래 버튼 눌러 서버 참여를 승인하세요.", data.Content)

	button := data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, "나 대신 서버에 참여하기", button.Label)
	assert.Equal(t, "https://discord.com/oauth2/authorize?client_id=1", button.URL)
}

func TestInviteButtonEnglish(t *testing.T) {
	r := newRegistry(t, Options{})

	sess := &fakeSession{}
	require.True(t, r.Execute(sess, interaction(constants.InviteCommandName, "1", discordgo.EnglishGB)))

	button := sess.responses[0].Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, "Join the server on my behalf", button.Label)
}

func TestDispatchReportsTally(t *testing.T) {
	ctx := context.Background()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), zaptest.NewLogger(t))
	require.NoError(t, fs.Upsert(ctx, "1", "a"))
	require.NoError(t, fs.Upsert(ctx, "2", "b"))
	require.NoError(t, fs.Upsert(ctx, "3", "c"))

	d := &dispatch.Dispatcher{Adder: rejectAdder{"2": true}, Store: fs}
	r := newRegistry(t, Options{Dispatcher: d, Timeout: time.Minute})

	sess := &fakeSession{}
	require.True(t, r.Execute(sess, interaction(constants.DispatchCommandName, "777", "")))

	require.Len(t, sess.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, sess.responses[0].Type)
	assert.Equal(t, []string{"✅ 2명 초대 완료, 실패 1명"}, sess.edits)
}

func TestDispatchNoUsers(t *testing.T) {
	d := &dispatch.Dispatcher{
		Adder: rejectAdder{},
		Store: store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), zaptest.NewLogger(t)),
	}
	r := newRegistry(t, Options{Dispatcher: d})

	sess := &fakeSession{}
	r.Execute(sess, interaction(constants.DispatchCommandName, "777", ""))

	assert.Equal(t, []string{"승인한 사용자가 없습니다."}, sess.edits)
}

func TestDispatchError(t *testing.T) {
	r := newRegistry(t, Options{Dispatcher: runnerFunc(func(ctx context.Context, guildID string) (dispatch.Result, error) {
		return dispatch.Result{}, errors.New("store offline")
	})})

	sess := &fakeSession{}
	r.Execute(sess, interaction(constants.DispatchCommandName, "777", discordgo.EnglishUS))

	assert.Equal(t, []string{"❌ Could not run the invites."}, sess.edits)
}

func TestDispatchAllowedGuilds(t *testing.T) {
	var ran []string
	runner := runnerFunc(func(ctx context.Context, guildID string) (dispatch.Result, error) {
		ran = append(ran, guildID)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return dispatch.Result{Attempted: 1, Success: 1}, nil
	})

	r := newRegistry(t, Options{Dispatcher: runner, AllowedGuilds: mapset.NewSet("777")})

	sess := &fakeSession{}
	r.Execute(sess, interaction(constants.DispatchCommandName, "888", ""))
	r.Execute(sess, interaction(constants.DispatchCommandName, "777", ""))

	assert.Equal(t, []string{"777"}, ran)

	require.Len(t, sess.responses, 2)
	assert.Equal(t, "이 서버에서는 사용할 수 없는 명령어입니다.", sess.responses[0].Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, sess.responses[0].Data.Flags)
	assert.Equal(t, []string{"✅ 1명 초대 완료, 실패 0명"}, sess.edits)
}

func TestDispatchIsGuildOnly(t *testing.T) {
	ran := false
	r := newRegistry(t, Options{Dispatcher: runnerFunc(func(ctx context.Context, guildID string) (dispatch.Result, error) {
		ran = true
		return dispatch.Result{}, nil
	})})

	sess := &fakeSession{}
	i := interaction(constants.DispatchCommandName, "", "")
	i.Member = nil
	i.User = &discordgo.User{ID: "42"}
	r.Execute(sess, i)

	assert.False(t, ran)

	cmds := r.ApplicationCommands()
	require.Len(t, cmds, 2)
	for _, c := range cmds {
		if c.Name == constants.DispatchCommandName {
			assert.Equal(t, int64(discordgo.PermissionManageServer), *c.DefaultMemberPermissions)
		}
	}
}
