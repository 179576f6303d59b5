package tracking

import (
	"sort"
	"time"

	"github.com/trezcool/habitrank/core/calendar"
)

// DailyRecord is one player's completions for one date, keyed by (PlayerID, Date).
// CompletedActivityIDs is a set: sorted without duplicates.
type DailyRecord struct {
	PlayerID             string        `json:"player_id"`
	Date                 calendar.Date `json:"date"`
	CompletedActivityIDs []string      `json:"completed_activity_ids"`
	Version              int           `json:"version"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// NormalizeIDs returns ids sorted with duplicates and blanks removed.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r DailyRecord) Has(id string) bool {
	i := sort.SearchStrings(r.CompletedActivityIDs, id)
	return i < len(r.CompletedActivityIDs) && r.CompletedActivityIDs[i] == id
}

// with returns a copy of r where id's completion is set to completed,
// and whether that changed anything. Stored ids for which same reports true stand for id:
// they make it complete and are all removed on un-check.
func (r DailyRecord) with(id string, completed bool, same func(string) bool) (DailyRecord, bool) {
	found := false
	ids := make([]string, 0, len(r.CompletedActivityIDs)+1)
	for _, cid := range r.CompletedActivityIDs {
		if cid == id || (same != nil && same(cid)) {
			found = true
			continue
		}
		ids = append(ids, cid)
	}
	if found == completed {
		return r, false
	}
	if completed {
		ids = append(ids, id)
	}
	r.CompletedActivityIDs = NormalizeIDs(ids)
	return r, true
}
