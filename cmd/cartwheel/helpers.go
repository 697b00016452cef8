package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/cartwheel-app/cartwheel/internal/common"
	"github.com/cartwheel-app/cartwheel/internal/config"
	"github.com/cartwheel-app/cartwheel/internal/llm"
	"github.com/cartwheel-app/cartwheel/internal/storage"
)

// initStorage initializes the storage layer with proper path expansion and
// runs pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open the database at %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, common.NewUserError("could not update the database schema", err)
	}

	return store, nil
}

// initGenerator builds the LLM client from configuration. Returns nil (no
// error) when no generator is configured; callers fall back to heuristics.
func initGenerator() (llm.Client, error) {
	apiKey := viper.GetString("generator.api_key")
	if apiKey == "" {
		return nil, nil
	}

	client, err := llm.NewResilientClient(llm.Config{
		Provider:          viper.GetString("generator.provider"),
		APIKey:            apiKey,
		Model:             viper.GetString("generator.model"),
		Temperature:       viper.GetFloat64("generator.temperature"),
		MaxTokens:         viper.GetInt("generator.max_tokens"),
		RequestsPerMinute: viper.GetInt("generator.requests_per_minute"),
	})
	if err != nil {
		return nil, common.NewUserError("the generator configuration is invalid; check the generator section of your config", err)
	}
	return client, nil
}
