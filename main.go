package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guildpass/api"
	"guildpass/constants"
	"guildpass/ratelimit"
	"guildpass/routes/auth"
	"guildpass/state"
	"guildpass/zapchi"

	"github.com/bwmarrin/discordgo"
	"github.com/cloudflare/tableflip"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func newRouter() *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(
		middleware.Recoverer,
		middleware.RealIP,
		middleware.CleanPath,
		zapchi.Logger(state.Logger, "api"),
		middleware.Timeout(state.Config.Server.RouteTimeout()),
	)

	limiter := ratelimit.New(state.Redis, callbackBucket(state.Config.Server), state.Logger.Named("ratelimit"))

	routers := []api.APIRouter{
		// Use same order as routes folder
		auth.Router{
			Flow:       state.Flow,
			Middleware: []func(http.Handler) http.Handler{limiter.Middleware},
		},
	}

	for _, router := range routers {
		name, _ := router.Tag()
		if name == "" {
			panic("Router tag name cannot be empty")
		}

		router.Routes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(constants.NotFoundPage))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(constants.MethodNotAllowed))
	})

	return r
}

func startBot() {
	state.Registry.Start(state.Discord)

	state.Discord.AddHandler(func(s *discordgo.Session, ready *discordgo.Ready) {
		state.Logger.Info("Bot ready", zap.String("user", ready.User.Username), zap.Int("guilds", len(ready.Guilds)))

		err := state.Registry.RegisterWithAPI(s, ready.User.ID, state.Config.DiscordAuth.CommandGuild)

		if err != nil {
			state.Logger.Error("Failed to sync commands", zap.Error(err))
		}
	})

	if err := state.Discord.Open(); err != nil {
		state.Logger.Fatal("Failed to open discord gateway", zap.Error(err))
	}
}

func main() {
	state.Setup()
	defer state.Close()

	upg, err := tableflip.New(tableflip.Options{
		PIDFile: os.Getenv("PIDFILE"),
	})

	if err != nil {
		state.Logger.Fatal("Failed to create upgrader", zap.Error(err))
	}

	defer upg.Stop()

	// SIGHUP starts a new process which takes over the listener
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP)
		for range sig {
			state.Logger.Info("Upgrading")
			if err := upg.Upgrade(); err != nil {
				state.Logger.Error("Upgrade failed", zap.Error(err))
			}
		}
	}()

	startBot()

	ln, err := upg.Listen("tcp", state.Config.Server.Addr())

	if err != nil {
		state.Logger.Fatal("Failed to listen", zap.Error(err), zap.String("addr", state.Config.Server.Addr()))
	}

	srv := &http.Server{
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		state.Logger.Info("Callback server listening", zap.String("addr", state.Config.Server.Addr()))

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			state.Logger.Error("Callback server stopped", zap.Error(err))
		}
	}()

	if err := upg.Ready(); err != nil {
		state.Logger.Fatal("Failed to signal readiness", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case <-upg.Exit():
	}

	state.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		state.Logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
