package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/habitrank/apps/api/echo"
	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/activity"
	"github.com/trezcool/habitrank/core/calendar"
	"github.com/trezcool/habitrank/core/checkin"
	"github.com/trezcool/habitrank/core/leaderboard"
	"github.com/trezcool/habitrank/core/reflection"
	"github.com/trezcool/habitrank/core/roster"
	"github.com/trezcool/habitrank/core/tracking"
	testutil "github.com/trezcool/habitrank/tests"
)

var (
	week  = calendar.WeekID{Year: 2024, Week: 5}
	today = testutil.Day(week, 2) // Wednesday

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

var (
	ana      = core.Actor{ID: "u-ana", Role: core.RolePlayer, ClubID: "club-1", TeamID: "team-1", PlayerID: "ana"}
	coach    = core.Actor{ID: "u-coach", Role: core.RoleCoach, ClubID: "club-1", TeamID: "team-1"}
	admin    = core.Actor{ID: "u-admin", Role: core.RoleAdmin, ClubID: "club-1"}
	outsider = core.Actor{ID: "u-out", Role: core.RoleAdmin, ClubID: "club-2"}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type fixture struct {
	app   *Server
	conf  *core.Config
	repos testutil.Repos
}

func setup(t *testing.T) fixture {
	return setupWithCache(t, leaderboard.NopCache{})
}

func setupWithCache(t *testing.T, cache leaderboard.Cache) fixture {
	repos := testutil.NewRepos()
	conf := testutil.NewConfig()

	testutil.CreateClub(t, repos.Roster, "club-1", "Falcons")
	testutil.CreateClub(t, repos.Roster, "club-2", "Hawks")
	testutil.CreateTeam(t, repos.Roster, "team-1", "club-1", "U12")
	testutil.CreateTeam(t, repos.Roster, "team-2", "club-1", "U14")
	testutil.CreateTeam(t, repos.Roster, "team-x", "club-2", "U12")
	testutil.CreatePlayer(t, repos.Roster, "ana", "club-1", "team-1", "Ana", true)
	testutil.CreatePlayer(t, repos.Roster, "ben", "club-1", "team-1", "Ben", true)
	testutil.CreatePlayer(t, repos.Roster, "zed", "club-2", "team-x", "Zed", true)

	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("sleep", "club-1", "", "Sleep"))
	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("hydration", "club-1", "", "Hydration"))
	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("drill", "club-1", "team-2", "Drill"))
	testutil.CreateActivity(t, repos.Activities, testutil.NewActivity("hawk-run", "club-2", "", "Run"))

	validate, translator := core.NewValidator()
	activity.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)

	activitySvc := activity.NewService(repos.Activities)
	rosterSvc := roster.NewService(repos.Roster)
	trackingSvc := tracking.NewService(repos.Records, conf, nil)
	leaderboardSvc := leaderboard.NewService(
		rosterSvc,
		leaderboard.NewSource(trackingSvc, activitySvc),
		cache,
		conf,
		nil,
		nil,
	)
	checkinSvc := checkin.NewService(rosterSvc, activitySvc, trackingSvc, leaderboardSvc, conf, nil, nil)

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		ActivitySvc:    activitySvc,
		RosterSvc:      rosterSvc,
		CheckinSvc:     checkinSvc,
		LeaderboardSvc: leaderboardSvc,
		ReflectionSvc:  reflection.NewService(repos.Reflections),
		Validate:       validate,
		Translator:     translator,
		Now:            func() time.Time { return today.Time().Add(12 * time.Hour) },
	})
	return fixture{app: app, conf: conf, repos: repos}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (f fixture) do(t *testing.T, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	f.app.ServeHTTP(rec, req)
	return rec
}

func (f fixture) getToken(t *testing.T, actor core.Actor) string {
	token, err := GenerateToken(NewClaims(actor, f.conf.AppName, time.Hour), f.conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f fixture, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
