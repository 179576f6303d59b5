package inmemdb

import (
	"fmt"
	"sync"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
)

type (
	// DB is a process-local store for DEV & TEST. Every table has its own lock.
	DB struct {
		activity   *activityTable
		roster     *rosterTable
		tracking   *trackingTable
		reflection *reflectionTable
	}

	activityTable struct {
		sync.RWMutex
		table   map[string]activity.Activity
		aliases map[string]activity.Alias // by FromID
	}

	rosterTable struct {
		sync.RWMutex
		clubs   map[string]roster.Club
		teams   map[string]roster.Team
		players map[string]roster.Player
	}

	recordKey struct {
		playerID string
		date     calendar.Date
	}

	trackingTable struct {
		sync.RWMutex
		table map[recordKey]tracking.DailyRecord
	}

	reflectionKey struct {
		playerID string
		week     calendar.WeekID
	}

	reflectionTable struct {
		sync.RWMutex
		table map[reflectionKey]reflection.Reflection
	}
)

func Open() *DB {
	return &DB{
		activity: &activityTable{
			table:   make(map[string]activity.Activity),
			aliases: make(map[string]activity.Alias),
		},
		roster: &rosterTable{
			clubs:   make(map[string]roster.Club),
			teams:   make(map[string]roster.Team),
			players: make(map[string]roster.Player),
		},
		tracking:   &trackingTable{table: make(map[recordKey]tracking.DailyRecord)},
		reflection: &reflectionTable{table: make(map[reflectionKey]reflection.Reflection)},
	}
}

func copyStrings(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}

func errExists(format string, args ...interface{}) error {
	return core.NewConflictError(fmt.Sprintf(format, args...))
}
