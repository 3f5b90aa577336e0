package main

import (
	"log"

	"github.com/nilotpaul/go-fitsync/api"
	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/util"
	"github.com/pressly/goose/v3"
)

func main() {
	// Loads all Env vars from .env file.
	env := config.MustLoadEnv()

	// Initializes and connects to DB.
	db := config.MustInitDB(env.DBURL)
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing the database connection: %s", err)
		}
	}()

	// Run auto migrations in production.
	if util.IsProduction() {
		if err := goose.Up(db, "./migrations"); err != nil {
			log.Fatalf("failed to apply database migrations: %v", err)
		}
	}

	// The credential store is the sole holder of provider tokens; the
	// browser only ever sees an opaque session cookie.
	creds := store.NewPostgresCredentialStore(db)
	states := store.NewStateStore(setting.AuthStateTTL)

	// Initializes the provider registry where all the
	// linked-account providers are registered.
	r := store.InitStore(*env, creds)

	s := api.NewAPIServer(env.Port, *env, r, creds, states)

	// All routes, handlers & middlewares are registered
	// in func Start().
	log.Fatal(s.Start())
}
