package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-bot/config"
	v1 "weather-bot/internal/controllers/http/v1"
	"weather-bot/internal/repositories"
	"weather-bot/internal/services/cache"
	"weather-bot/internal/services/render"
	"weather-bot/internal/services/weather"
	"weather-bot/pkg/httpserver"
	"weather-bot/pkg/observe"
)

// @title Weather Bot API
// @version 1.0.0
// @description Answers "what is the weather at location L" with a rendered weather card and a caption.
// @description Locations are place names or "lat, lon" pairs; results are cached for ten minutes.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Weather
// @tag.description Weather card operations
// @tag.name Bot
// @tag.description Chat front-end adapter
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	sentryHook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name, cnf.IsDevelopment(), cnf.Log.SentryDSN)
	writers := []io.Writer{os.Stdout}
	// the hook decodes JSON entries
	if cnf.Log.SentryDSN != "" && cnf.Log.Format == observe.FormatJSON {
		writers = append(writers, sentryHook)
	}
	l := observe.NewZapLogger(cnf.App.Name, cnf.App.Env, cnf.Log.Level, cnf.Log.Format, writers...)
	sentryHook.SetLogger(l)

	repo, err := repositories.InitWeatherRepository(cnf.Weather, l)
	if err != nil {
		l.Fatal("cannot init weather repository", map[string]any{"err": err.Error()})
	}

	resources, err := repositories.InitResourceRepository(cnf.Assets, l)
	if err != nil {
		l.Fatal("cannot init resource repository", map[string]any{"err": err.Error()})
	}

	renderer := render.NewRenderer(ctx, resources, cnf.Assets.Font, l)
	weatherCache := cache.NewWeatherCache(cache.SystemClock{}, l)
	service := weather.NewWeatherService(repo, weatherCache, renderer, l)

	app := httpserver.InitFiberServer(cnf.App.Name, httpserver.Timeouts{
		Read:  cnf.Server.ReadTimeout,
		Write: cnf.Server.WriteTimeout,
		Idle:  cnf.Server.IdleTimeout,
	})

	v1.NewRouter(
		app,
		service,
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err.Error()})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":     cnf.Server.Port,
		"provider": repo.Name(),
		"assets":   cnf.Assets.Source,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		sentryHook.Flush()
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
