package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/store"
	redisstore "go.pilab.hu/authbridge/store/redis"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset the persisted session pair",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted (token, user) pair",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, err := sessionStore()
		if err != nil {
			return err
		}
		pair, err := sessions.LoadPair(cmd.Context())
		switch {
		case errors.Is(err, authbridge.ErrNoSession):
			fmt.Println("no persisted session")
			return nil
		case errors.Is(err, authbridge.ErrPairIncomplete):
			fmt.Println("persisted pair is incomplete (treated as absent)")
			return nil
		case err != nil:
			return err
		}

		userJSON, err := json.MarshalIndent(pair.User, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("token: %s\nuser: %s\n", pair.Token, userJSON)
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear both persisted session keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessions, err := sessionStore()
		if err != nil {
			return err
		}
		if err := sessions.ClearPair(cmd.Context()); err != nil {
			return err
		}
		appLogger.Info().Msg("persisted session cleared")
		return nil
	},
}

func sessionStore() (*store.SessionStore, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR must be set: the in-memory store is not reachable out of band")
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	return store.NewSessionStore(redisstore.NewKV(client, cfg.RedisPrefix)), nil
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}
