// Package main is a terminal walkthrough of the conversation wizard engine.
//
// It runs against miniredis (no external Redis required), registers a demo
// profile, translates a topic, backs up wizard state, and — when provider
// credentials are present in the environment — launches a real conversation.
//
// Run:
//
//	go run ./cmd/parley-wizard
//
// Provider access is optional and read from the environment (or a .env file):
//
//	PARLEY_CONVERSATION_BASE_URL / PARLEY_CONVERSATION_API_KEY
//	PARLEY_TRANSLATION_BASE_URL  / PARLEY_TRANSLATION_API_KEY
//	PARLEY_TOKEN_SECRET
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	parley "github.com/corvid-labs/parley"
	"github.com/corvid-labs/parley/convo"
	"github.com/corvid-labs/parley/session"
	"github.com/corvid-labs/parley/translate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "parley-wizard:", err)
		os.Exit(1)
	}
}

func run() error {
	mr, err := miniredis.Run()
	if err != nil {
		return err
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)

	cfg := parley.ConfigFromEnv()
	if len(cfg.Token.Secret) == 0 {
		cfg.Token.Secret = []byte("demo-secret-do-not-deploy")
	}

	sink := parley.NewChannelSink(8)
	go func() {
		for ev := range sink.C {
			fmt.Printf(">> session event: %s (remaining %s)\n",
				ev.Kind, session.FormatRemaining(ev.Remaining))
		}
	}()

	engine, err := parley.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		WithEventSink(sink).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()

	auth, err := engine.Signup(ctx, "Demo Host", "host@example.com", "opensesame", "cli")
	if err != nil {
		return err
	}
	fmt.Printf("signed up %s, session expires %s\n",
		auth.Profile.Email, auth.Session.ExpiresAt.Format(time.Kitchen))

	result, err := engine.TranslateText(ctx, translate.Request{
		Text:           "Tell me about the history of jazz",
		SourceLanguage: "en",
		TargetLanguage: "en",
	})
	if err != nil {
		return err
	}
	fmt.Printf("topic: %s\n", result.TranslatedText)

	if err := engine.BackupWorkInProgress(ctx, session.Snapshot{
		Topic:    result.TranslatedText,
		Language: "en",
		Step:     2,
	}); err != nil {
		return err
	}

	minutes, err := engine.MinutesRemaining(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("conversation minutes remaining: %d\n", minutes)

	if cfg.Conversation.BaseURL != "" && cfg.Conversation.APIKey != "" {
		conversation, err := engine.CreateConversation(ctx, convo.Request{
			ReplicaID: os.Getenv("PARLEY_REPLICA_ID"),
			Name:      "wizard demo",
			Greeting:  "Hello there!",
			Context:   result.TranslatedText,
		})
		if err != nil {
			return err
		}
		fmt.Printf("conversation ready: %s\n", conversation.URL)
		defer func() { _ = engine.EndConversation(ctx, conversation.ConversationID) }()
	} else {
		fmt.Println("no provider credentials set; skipping conversation launch")
	}

	if err := engine.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}
