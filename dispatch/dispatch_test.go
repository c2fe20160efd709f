package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"guildpass/store"
	"guildpass/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

type call struct {
	guildID, userID, token string
}

// fakeAdder accepts everyone except the users listed in reject
type fakeAdder struct {
	mu     sync.Mutex
	calls  []call
	reject map[string]bool
}

func (f *fakeAdder) GuildMemberAdd(guildID, userID string, data *discordgo.GuildMemberAddParams, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{guildID, userID, data.AccessToken})

	if f.reject[userID] {
		return errors.New("rejected")
	}

	return nil
}

func newStore(t *testing.T, n int) store.Store {
	t.Helper()

	fs := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), zaptest.NewLogger(t))
	for i := 0; i < n; i++ {
		require.NoError(t, fs.Upsert(context.Background(), fmt.Sprint(100+i), fmt.Sprint("tok-", i)))
	}

	return fs
}

func TestRunEmptyStore(t *testing.T) {
	adder := &fakeAdder{}
	d := &Dispatcher{Adder: adder, Store: newStore(t, 0), Logger: zaptest.NewLogger(t)}

	res, err := d.Run(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNoUsers)
	assert.Zero(t, res.Attempted)
	assert.Empty(t, adder.calls)
}

func TestRunEmptyObjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	adder := &fakeAdder{}
	d := &Dispatcher{Adder: adder, Store: store.NewFileStore(path, zaptest.NewLogger(t))}

	_, err := d.Run(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNoUsers)
	assert.Empty(t, adder.calls)
}

func TestRunCountsEveryUser(t *testing.T) {
	adder := &fakeAdder{reject: map[string]bool{"101": true, "103": true}}
	d := &Dispatcher{Adder: adder, Store: newStore(t, 5), Logger: zaptest.NewLogger(t)}

	res, err := d.Run(context.Background(), "777")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Attempted)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, adder.calls, 5)

	// store order, one call per user, each with its own token
	for i, c := range adder.calls {
		assert.Equal(t, "777", c.guildID)
		assert.Equal(t, fmt.Sprint(100+i), c.userID)
		assert.Equal(t, fmt.Sprint("tok-", i), c.token)
	}

	assert.Equal(t, "101", res.Failures[0].UserID)
	assert.Equal(t, "103", res.Failures[1].UserID)
}

func TestRunAgainstDiscord(t *testing.T) {
	status := map[string]int{
		"100": http.StatusCreated,   // added
		"101": http.StatusNoContent, // already a member
		"102": http.StatusForbidden, // token revoked
		"103": http.StatusOK,
	}

	var mu sync.Mutex
	var bodies []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		userID := parts[len(parts)-1]

		if r.Method != http.MethodPut || !strings.HasPrefix(r.URL.Path, "/api/v9/guilds/777/members/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if r.Header.Get("Authorization") != "Bot bot-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()

		code := status[userID]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)

		switch code {
		case http.StatusNoContent:
		case http.StatusForbidden:
			w.Write([]byte(`{"message":"Missing Permissions","code":50013}`))
		default:
			w.Write([]byte(`{"user":{"id":"` + userID + `"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	session, err := discordgo.New("Bot bot-token")
	require.NoError(t, err)

	session.Client, err = utils.NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	d := &Dispatcher{Adder: session, Store: newStore(t, 4), Logger: zaptest.NewLogger(t)}

	res, err := d.Run(context.Background(), "777")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 1, res.Failed)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "102", res.Failures[0].UserID)
	assert.Equal(t, http.StatusForbidden, res.Failures[0].Status)
	assert.Contains(t, res.Failures[0].Message, "Missing Permissions")

	require.Len(t, bodies, 4)
	assert.JSONEq(t, `{"access_token":"tok-0"}`, bodies[0])
}

func TestRunNeverRetries(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		userID := parts[len(parts)-1]

		mu.Lock()
		calls[userID]++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch userID {
		case "100":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream down"}`))
		case "101":
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.01,"global":false}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)

	// session defaults retry 502s and sleep on 429s
	session, err := discordgo.New("Bot bot-token")
	require.NoError(t, err)
	require.Greater(t, session.MaxRestRetries, 0)
	require.True(t, session.ShouldRetryOnRateLimit)

	session.Client, err = utils.NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	d := &Dispatcher{Adder: session, Store: newStore(t, 3), Logger: zaptest.NewLogger(t)}

	res, err := d.Run(context.Background(), "777")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, map[string]int{"100": 1, "101": 1, "102": 1}, calls)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "100", res.Failures[0].UserID)
	assert.Equal(t, "101", res.Failures[1].UserID)
	assert.Equal(t, http.StatusTooManyRequests, res.Failures[1].Status)
}

func TestRunCancelledMarksRemainingFailed(t *testing.T) {
	adder := &fakeAdder{}
	d := &Dispatcher{
		Adder:   adder,
		Store:   newStore(t, 3),
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := d.Run(ctx, "1")
	require.NoError(t, err)

	// the burst of one lets the first add through, the rest cannot wait an hour
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, adder.calls, 1)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))

	l := NewLimiter(120)
	require.NotNil(t, l)
	assert.Equal(t, rate.Limit(2), l.Limit())
}
