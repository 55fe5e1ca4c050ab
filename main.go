package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mudler/xlog"

	"github.com/yornfifty/intentkit-chat/core/render"
	"github.com/yornfifty/intentkit-chat/core/sessions"
	"github.com/yornfifty/intentkit-chat/core/state"
	"github.com/yornfifty/intentkit-chat/pkg/client"
	"github.com/yornfifty/intentkit-chat/webui"
)

var serverURL = os.Getenv("INTENTKIT_SERVER_URL")
var apiKey = os.Getenv("INTENTKIT_API_KEY")
var stateDir = os.Getenv("INTENTKIT_STATE_DIR")
var userID = os.Getenv("INTENTKIT_USER_ID")
var listenAddr = os.Getenv("INTENTKIT_LISTEN_ADDR")
var timeout = os.Getenv("INTENTKIT_TIMEOUT")

func init() {
	// Package-level reads happen before a .env file is loaded; refresh
	// anything still unset.
	_ = godotenv.Load()
	for _, v := range []struct {
		dst *string
		key string
	}{
		{&serverURL, "INTENTKIT_SERVER_URL"},
		{&apiKey, "INTENTKIT_API_KEY"},
		{&stateDir, "INTENTKIT_STATE_DIR"},
		{&userID, "INTENTKIT_USER_ID"},
		{&listenAddr, "INTENTKIT_LISTEN_ADDR"},
		{&timeout, "INTENTKIT_TIMEOUT"},
	} {
		if *v.dst == "" {
			*v.dst = os.Getenv(v.key)
		}
	}

	if serverURL == "" {
		panic("INTENTKIT_SERVER_URL not set")
	}
	if stateDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		stateDir = filepath.Join(cwd, "state")
	}
	if userID == "" {
		userID = uuid.New().String()
	}
	if listenAddr == "" {
		listenAddr = ":3000"
	}
	if timeout == "" {
		timeout = "2m"
	}
}

func main() {
	dur, err := time.ParseDuration(timeout)
	if err != nil {
		panic(err)
	}

	transport := client.New(serverURL, apiKey, dur)
	store := sessions.NewStore(filepath.Join(stateDir, "chat_sessions.json"))
	pipeline := render.NewPipeline(render.NewAutoplayCoordinator())
	controller := state.NewController(transport, store, pipeline, userID)

	app := webui.NewApp(controller, webui.WithListenAddr(listenAddr))
	pipeline.Play = app.PlayAudio

	xlog.Info("Starting IntentKit chat", "server", serverURL, "state", stateDir)
	if err := app.Run(context.Background()); err != nil {
		xlog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
