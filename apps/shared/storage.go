package shared

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	rediscache "github.com/trezcool/habitrank/storage/cache/redis"
	"github.com/trezcool/habitrank/storage/database"
	inmemdb "github.com/trezcool/habitrank/storage/database/inmem"
	boiledrepos "github.com/trezcool/habitrank/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/habitrank/storage/database/sqlx"
)

const StorageMemory = "memory"

type Repositories struct {
	Activities  activity.Repository
	Roster      roster.Repository
	Records     tracking.Repository
	Reflections reflection.Repository

	// DB is nil with the memory storage.
	DB *sql.DB
}

func (r Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// OpenStorage opens the configured storage. Postgres databases are created & migrated when needed.
func OpenStorage(ctx context.Context, conf *core.Config) (Repositories, error) {
	if conf.Storage == StorageMemory {
		db := inmemdb.Open()
		return Repositories{
			Activities:  inmemdb.NewActivityRepository(db),
			Roster:      inmemdb.NewRosterRepository(db),
			Records:     inmemdb.NewTrackingRepository(db),
			Reflections: inmemdb.NewReflectionRepository(db),
		}, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Repositories{}, errors.Wrap(err, "creating database")
	}
	db, err := database.OpenX(conf)
	if err != nil {
		return Repositories{}, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return Repositories{}, errors.Wrap(err, "migrating database")
	}
	return Repositories{
		Activities:  sqlxrepos.NewActivityRepository(db),
		Roster:      sqlxrepos.NewRosterRepository(db),
		Records:     sqlxrepos.NewTrackingRepository(db),
		Reflections: boiledrepos.NewReflectionRepository(db),
		DB:          db.DB,
	}, nil
}

// OpenCache connects the leaderboard cache to redis when an address is configured.
// The returned client is nil otherwise.
func OpenCache(ctx context.Context, conf *core.Config) (leaderboard.Cache, *redis.Client, error) {
	if conf.Redis.Address == "" {
		return leaderboard.NopCache{}, nil, nil
	}
	client, err := rediscache.Open(ctx, conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening redis")
	}
	return rediscache.NewLeaderboardCache(client), client, nil
}
