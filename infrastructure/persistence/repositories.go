package persistence

import (
	"context"
	"fmt"

	"social-relay/domain/repository"
	"social-relay/infrastructure/configuration"
	"social-relay/infrastructure/logger"

	"gorm.io/gorm"
)

// NewPostHistory opens the configured vendor, ensures the schema and returns the repository
// with a close func. An empty vendor yields the no-op repository.
func NewPostHistory(ctx context.Context, cfg configuration.Database) (repository.IPostHistory, func() error, error) {
	noClose := func() error { return nil }
	switch cfg.Vendor {
	case "":
		return NewNoopPostHistory(), noClose, nil
	case "postgres":
		db, err := NewPostgreSQLDB(cfg.Psql)
		if err != nil {
			return nil, noClose, fmt.Errorf("connect postgres: %w", err)
		}
		if err := EnsurePostHistorySchema(db); err != nil {
			_ = db.Close()
			return nil, noClose, err
		}
		return NewPostHistoryRepository(db), db.Close, nil
	case "mssql":
		db, err := NewMSSQLDB(cfg.Mssql)
		if err != nil {
			return nil, noClose, fmt.Errorf("connect mssql: %w", err)
		}
		if err := EnsurePostHistorySchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, noClose, err
		}
		return NewPostHistoryRepositoryMSSQL(db), db.Close, nil
	case "mysql":
		db, err := NewMySQLGorm(cfg.MySql)
		if err != nil {
			return nil, noClose, fmt.Errorf("connect mysql: %w", err)
		}
		return openGormPostHistory(db)
	case "mongo":
		client, err := NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, noClose, fmt.Errorf("connect mongo: %w", err)
		}
		name := cfg.Mongo.Name
		if name == "" {
			name = "social_relay"
		}
		if err := EnsurePostHistoryIndexMongo(ctx, client, name); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to ensure post_history index")
		}
		return NewPostHistoryRepositoryMongo(client, name), func() error { return client.Disconnect(context.Background()) }, nil
	default:
		return nil, noClose, fmt.Errorf("unsupported database vendor %q", cfg.Vendor)
	}
}

// openGormPostHistory migrates the schema on db. The pool is closed again if that fails.
func openGormPostHistory(db *gorm.DB) (repository.IPostHistory, func() error, error) {
	noClose := func() error { return nil }
	sqlDB, err := db.DB()
	if err != nil {
		return nil, noClose, fmt.Errorf("mysql connection pool: %w", err)
	}
	if err := EnsurePostHistorySchemaGorm(db); err != nil {
		_ = sqlDB.Close()
		return nil, noClose, err
	}
	return NewPostHistoryRepositoryGorm(db), sqlDB.Close, nil
}
