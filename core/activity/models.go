package activity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

// Scopes
const (
	ScopeClub = "club"
	ScopeTeam = "team"
)

// Frequency kinds
const (
	FrequencyDaily  = "daily"
	FrequencyTimes  = "times"
	FrequencyWeekly = "weekly"
)

const (
	DefaultPointValue = 1
	maxAliasHops      = 8
)

var Scopes = []string{ScopeClub, ScopeTeam}

// Frequency is how many days per week an activity must be completed.
// Text forms: `daily`, `weekly`, `Nx/week` (1 <= N <= 7).
type Frequency struct {
	Kind  string
	Times int
}

func Daily() Frequency  { return Frequency{Kind: FrequencyDaily} }
func Weekly() Frequency { return Frequency{Kind: FrequencyWeekly} }

func TimesPerWeek(n int) Frequency { return Frequency{Kind: FrequencyTimes, Times: n} }

func ParseFrequency(s string) (Frequency, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	switch str {
	case FrequencyDaily:
		return Daily(), nil
	case FrequencyWeekly:
		return Weekly(), nil
	}
	str = strings.Replace(str, "×", "x", 1)
	if strings.HasSuffix(str, "x/week") {
		n, err := strconv.Atoi(strings.TrimSuffix(str, "x/week"))
		if err == nil && n >= 1 && n <= 7 {
			return TimesPerWeek(n), nil
		}
	}
	return Frequency{}, fmt.Errorf("invalid frequency %q", s)
}

// Required returns the number of days per week needed to meet the frequency.
func (f Frequency) Required() int {
	switch f.Kind {
	case FrequencyDaily:
		return 7
	case FrequencyTimes:
		return f.Times
	case FrequencyWeekly:
		return 1
	default:
		return 0
	}
}

func (f Frequency) IsZero() bool { return f == Frequency{} }

func (f Frequency) String() string {
	if f.Kind == FrequencyTimes {
		return fmt.Sprintf("%dx/week", f.Times)
	}
	return f.Kind
}

func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*f = Frequency{}
		return nil
	}
	parsed, err := ParseFrequency(string(data))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Revision holds the scoring terms of an activity from EffectiveWeek onwards.
type Revision struct {
	EffectiveWeek calendar.WeekID `json:"effective_week"`
	Frequency     Frequency       `json:"frequency"`
	PointValue    int             `json:"point_value"`
}

type Terms struct {
	Frequency  Frequency
	PointValue int
}

type Activity struct {
	ID            string         `json:"id"`
	ClubID        string         `json:"club_id"`
	TeamID        string         `json:"team_id,omitempty"`
	Scope         string         `json:"scope"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Frequency     Frequency      `json:"frequency"`
	PointValue    int            `json:"point_value"`
	Revisions     []Revision     `json:"revisions,omitempty"`
	IsActive      bool           `json:"is_active"`
	ActiveFrom    calendar.Date  `json:"active_from"`
	DeactivatedOn *calendar.Date `json:"deactivated_on,omitempty"`
	DisplayOrder  int            `json:"display_order"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ActiveOn reports whether the activity counts on d.
// The deactivation date itself is excluded.
func (a Activity) ActiveOn(d calendar.Date) bool {
	if d.Before(a.ActiveFrom) {
		return false
	}
	return a.DeactivatedOn == nil || d.Before(*a.DeactivatedOn)
}

// ActiveDuring reports whether the activity counts on any day of w.
func (a Activity) ActiveDuring(w calendar.WeekID) bool {
	for _, d := range w.Days() {
		if a.ActiveOn(d) {
			return true
		}
	}
	return false
}

// TermsFor returns the frequency & points in effect for w.
// Weeks earlier than the first revision use the first revision.
func (a Activity) TermsFor(w calendar.WeekID) Terms {
	if len(a.Revisions) == 0 {
		return Terms{Frequency: a.Frequency, PointValue: a.PointValue}
	}
	rev := a.Revisions[0]
	for _, r := range a.Revisions[1:] {
		if w.Before(r.EffectiveWeek) {
			break
		}
		rev = r
	}
	return Terms{Frequency: rev.Frequency, PointValue: rev.PointValue}
}

// MaxPointValue is the highest point value any week of the activity is scored with.
func (a Activity) MaxPointValue() int {
	points := a.PointValue
	for _, r := range a.Revisions {
		if r.PointValue > points {
			points = r.PointValue
		}
	}
	return points
}

// revise replaces every revision effective from w onwards with the given terms.
func (a *Activity) revise(w calendar.WeekID, terms Terms) {
	if len(a.Revisions) == 0 && !a.Frequency.IsZero() && !a.ActiveFrom.IsZero() {
		// keep the original terms for the weeks before w
		if first := calendar.WeekOf(a.ActiveFrom); first.Before(w) {
			a.Revisions = []Revision{{EffectiveWeek: first, Frequency: a.Frequency, PointValue: a.PointValue}}
		}
	}
	kept := make([]Revision, 0, len(a.Revisions)+1)
	for _, r := range a.Revisions {
		if r.EffectiveWeek.Before(w) {
			kept = append(kept, r)
		}
	}
	a.Revisions = append(kept, Revision{EffectiveWeek: w, Frequency: terms.Frequency, PointValue: terms.PointValue})
	a.Frequency = terms.Frequency
	a.PointValue = terms.PointValue
}

// Context is the tenancy a player lives in.
type Context struct {
	ClubID string `json:"club_id"`
	TeamID string `json:"team_id"`
}

// Contains reports whether a applies within c: club activities of the club and team activities of the team.
func (c Context) Contains(a Activity) bool {
	if c.ClubID == "" || a.ClubID != c.ClubID {
		return false
	}
	switch a.Scope {
	case ScopeClub:
		return true
	case ScopeTeam:
		return c.TeamID != "" && a.TeamID == c.TeamID
	default:
		return false
	}
}

// Alias redirects references to a retired activity id.
type Alias struct {
	ClubID    string    `json:"club_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Sort orders activities by display order, then id.
func Sort(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if activities[i].DisplayOrder != activities[j].DisplayOrder {
			return activities[i].DisplayOrder < activities[j].DisplayOrder
		}
		return activities[i].ID < activities[j].ID
	})
}

// Set is the catalog of one Context indexed for scoring.
type Set struct {
	ctx        Context
	activities []Activity
	byID       map[string]Activity
	aliases    map[string]string
}

// NewSet keeps the activities that belong to ctx, whatever their activation state.
func NewSet(ctx Context, activities []Activity, aliases []Alias) *Set {
	s := &Set{
		ctx:        ctx,
		activities: make([]Activity, 0, len(activities)),
		byID:       make(map[string]Activity, len(activities)),
		aliases:    make(map[string]string, len(aliases)),
	}
	for _, a := range activities {
		if !ctx.Contains(a) {
			continue
		}
		if _, dup := s.byID[a.ID]; dup {
			continue
		}
		s.byID[a.ID] = a
		s.activities = append(s.activities, a)
	}
	Sort(s.activities)
	for _, al := range aliases {
		if al.ClubID == ctx.ClubID && al.FromID != al.ToID {
			s.aliases[al.FromID] = al.ToID
		}
	}
	return s
}

func (s *Set) Context() Context { return s.ctx }

// Activities returns every activity of the set in display order.
func (s *Set) Activities() []Activity {
	out := make([]Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// ActiveDuring returns the activities counting on at least one day of w.
func (s *Set) ActiveDuring(w calendar.WeekID) []Activity {
	out := make([]Activity, 0, len(s.activities))
	for _, a := range s.activities {
		if a.ActiveDuring(w) {
			out = append(out, a)
		}
	}
	return out
}

// chain returns id followed by its alias targets, stopping on cycles.
func (s *Set) chain(id string) []string {
	ids := []string{id}
	seen := map[string]bool{id: true}
	cur := id
	for hop := 0; hop < maxAliasHops; hop++ {
		next, ok := s.aliases[cur]
		if !ok || seen[next] {
			break
		}
		ids = append(ids, next)
		seen[next] = true
		cur = next
	}
	return ids
}

// Resolve returns the activity id refers to once aliases are followed.
// false means a stale reference.
func (s *Set) Resolve(id string) (Activity, bool) {
	ids := s.chain(id)
	for i := len(ids) - 1; i >= 0; i-- {
		if a, ok := s.byID[ids[i]]; ok {
			return a, true
		}
	}
	return Activity{}, false
}

// Applicable returns the first activity along id's alias chain that counts on d.
func (s *Set) Applicable(id string, d calendar.Date) (Activity, bool) {
	for _, cid := range s.chain(id) {
		if a, ok := s.byID[cid]; ok && a.ActiveOn(d) {
			return a, true
		}
	}
	return Activity{}, false
}

// NewActivity contains information needed to create a new Activity.
type NewActivity struct {
	ClubID       string        `json:"club_id" validate:"required"`
	TeamID       string        `json:"team_id"`
	Scope        string        `json:"scope" validate:"required,scope"`
	Name         string        `json:"name" validate:"required,notblank,max=100"`
	Description  string        `json:"description" validate:"max=500"`
	Frequency    string        `json:"frequency" validate:"required,frequency"`
	PointValue   int           `json:"point_value" validate:"omitempty,min=1,max=100"`
	ActiveFrom   calendar.Date `json:"active_from"`
	DisplayOrder int           `json:"display_order"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Description = core.CleanString(na.Description)
	na.Scope = core.CleanString(na.Scope, true /* lower */)
	na.Frequency = core.CleanString(na.Frequency, true /* lower */)
	if na.PointValue == 0 {
		na.PointValue = DefaultPointValue
	}
	return validate.Struct(na)
}

// UpdateActivity defines what information may be provided to modify an existing Activity.
// Frequency and PointValue changes apply from EffectiveWeek (the current week when empty).
type UpdateActivity struct {
	Name          string          `json:"name" validate:"max=100"`
	Description   *string         `json:"description" validate:"omitempty,max=500"`
	DisplayOrder  *int            `json:"display_order"`
	Frequency     string          `json:"frequency" validate:"omitempty,frequency"`
	PointValue    int             `json:"point_value" validate:"omitempty,min=1,max=100"`
	EffectiveWeek calendar.WeekID `json:"effective_week"`
}

func (ua *UpdateActivity) Validate(orig Activity, validate *validator.Validate) error {
	name := core.CleanString(ua.Name)
	if name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	if ua.Description != nil {
		desc := core.CleanString(*ua.Description)
		ua.Description = &desc
	}
	ua.Frequency = core.CleanString(ua.Frequency, true /* lower */)
	return validate.Struct(ua)
}

// changesTerms reports whether ua alters the scoring terms of orig.
func (ua UpdateActivity) changesTerms(orig Activity) (Terms, bool) {
	terms := Terms{Frequency: orig.Frequency, PointValue: orig.PointValue}
	if ua.Frequency != "" {
		if f, err := ParseFrequency(ua.Frequency); err == nil {
			terms.Frequency = f
		}
	}
	if ua.PointValue > 0 {
		terms.PointValue = ua.PointValue
	}
	return terms, terms.Frequency != orig.Frequency || terms.PointValue != orig.PointValue
}

type QueryFilter struct {
	ClubID string
	TeamID string
}
