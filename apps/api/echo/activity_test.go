package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
	emailsvc "github.com/trezcool/shughuli/services/email"
	dummyledger "github.com/trezcool/shughuli/services/ledger/dummy"
	logsvc "github.com/trezcool/shughuli/services/logger"
	dummydb "github.com/trezcool/shughuli/storage/database/dummy"
	testutil "github.com/trezcool/shughuli/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true
	os.Exit(m.Run())
}

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

func newTestServer(t *testing.T) (Server, *dummydb.ActivityRepository, *dummyledger.Ledger) {
	_, repo := testutil.OpenDB(t)
	ledger := dummyledger.NewLedger()
	svc := activity.NewService(
		repo,
		ledger,
		emailsvc.NewConsoleServiceMock(),
		logsvc.NewStdLogger(log.New(os.Stderr, "TEST : ", log.LstdFlags)),
	)
	app := NewServer(&Options{
		DisableReqLogs: true,
		ActivitySvc:    svc,
		Logger:         logsvc.NewStdLogger(log.New(os.Stderr, "TEST : ", log.LstdFlags)),
	})
	return app, repo, ledger
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, organizer, admin bool) string {
	claims := GetOperatorClaims(core.Operator{ID: "op1", Name: "Op", Email: "op@test.test"}, organizer, admin)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	var j1, j2 interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &j1); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if err := json.Unmarshal(tt.wantData, &j2); err != nil {
		t.Fatalf("unmarshalling wantData: %v", err)
	}
	b1, _ := json.Marshal(j1)
	b2, _ := json.Marshal(j2)
	if !bytes.Equal(b1, b2) {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func Test_activityApi_query(t *testing.T) {
	app, repo, _ := newTestServer(t)
	token := getToken(t, false, false)

	act := testutil.CreateActivity(t, repo, "Chess Open", 100, time.Now().Add(time.Hour))

	tests := []httpTest{
		{name: "Auth required", path: "/v1/activities", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/activities", token: token, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// detail carries the derived status and announce gate
	req, rec := newAuthRequest(http.MethodGet, "/v1/activities/"+act.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	var res ActivityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshalling body: %v", err)
	}
	if res.Status != activity.StatusOngoing {
		t.Errorf("status = %s, want %s", res.Status, activity.StatusOngoing)
	}
	if !res.CanAnnounce {
		t.Error("can_announce = false, want true")
	}
}

func Test_activityApi_announce(t *testing.T) {
	app, repo, _ := newTestServer(t)
	orgToken := getToken(t, true, false)
	plainToken := getToken(t, false, false)

	act := testutil.CreateActivity(t, repo, "Hackathon", 100, time.Now().Add(time.Hour))
	noPoints := testutil.CreateActivity(t, repo, "Charity Run", 0, time.Now().Add(time.Hour))
	regA := testutil.CreateRegistration(t, repo, act.ID, "", "ada@test.test", "Ada")
	regB := testutil.CreateRegistration(t, repo, act.ID, "", "bob@test.test", "Bob")
	regN := testutil.CreateRegistration(t, repo, noPoints.ID, "", "cat@test.test", "Cat")
	other := testutil.CreateActivity(t, repo, "Marathon", 200, time.Now().Add(time.Hour))
	regO := testutil.CreateRegistration(t, repo, other.ID, "", "dan@test.test", "Dan")

	body := func(assignments ...activity.RewardAssignment) []byte {
		return marchallObj(t, activity.AnnounceActivity{Assignments: assignments})
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Organizer required", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			token: plainToken, body: body(activity.RewardAssignment{Award: activity.AwardWinner, RegistrationID: regA.ID}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown activity", method: http.MethodPost, path: "/v1/activities/6e7e2f03-6a45-4e77-b4f1-a7d3ae7e6a55/announce",
			token: orgToken, body: body(activity.RewardAssignment{Award: activity.AwardWinner, RegistrationID: regA.ID}),
			wantCode: http.StatusNotFound,
		},
		{
			name: "Empty winner set rejected", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			token: orgToken, body: body(),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown award rejected", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			token: orgToken, body: body(activity.RewardAssignment{Award: "galactic_champion", RegistrationID: regA.ID}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Foreign registration rejected", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			token: orgToken, body: body(activity.RewardAssignment{Award: activity.AwardWinner, RegistrationID: regO.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"registration_id": "registration " + regO.ID + " is not registered for this activity"}),
		},
		{
			name: "No points configured", method: http.MethodPost, path: "/v1/activities/" + noPoints.ID + "/announce",
			token: orgToken, body: body(activity.RewardAssignment{Award: activity.AwardWinner, RegistrationID: regN.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "activity has no reward points configured"}),
		},
		{
			name: "Announce", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/announce",
			token: orgToken, body: body(
				activity.RewardAssignment{Award: activity.AwardWinner, RegistrationID: regA.ID},
				activity.RewardAssignment{Award: activity.AwardRunnerUp1, RegistrationID: regB.ID},
			),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name == "Announce" {
				var res AnnounceResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("unmarshalling body: %v", err)
				}
				if len(res.Winners) != 2 {
					t.Errorf("len(winners) = %d, want 2", len(res.Winners))
				}
				if res.Status != activity.StatusPending {
					t.Errorf("status = %s, want %s", res.Status, activity.StatusPending)
				}
			}
		})
	}
}

func Test_activityApi_distribute(t *testing.T) {
	app, repo, ledger := newTestServer(t)
	orgToken := getToken(t, true, false)

	act := testutil.CreateActivity(t, repo, "Marathon", 200, time.Now().Add(time.Hour))
	reg := testutil.CreateRegistration(t, repo, act.ID, "", "ada@test.test", "Ada")

	announceBody := marchallObj(t, activity.AnnounceActivity{
		Assignments: []activity.RewardAssignment{{Award: activity.AwardWinner, RegistrationID: reg.ID}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/activities/"+act.ID+"/announce", orgToken, announceBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("announce code = %d, want 200", rec.Code)
	}

	wantFirst := activity.DistributionOutcome{ActivityID: act.ID, Status: activity.OutcomeCredited, Points: 200, Winners: 1}
	wantSecond := activity.DistributionOutcome{ActivityID: act.ID, Status: activity.OutcomeAlreadyDistributed, Points: 200, Winners: 1}

	tests := []httpTest{
		{
			name: "Organizer required", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/distribute",
			token: getToken(t, false, false), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Distribute", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/distribute",
			token: orgToken, wantCode: http.StatusOK, wantData: marchallObj(t, wantFirst),
		},
		{
			name: "Distribute again", method: http.MethodPost, path: "/v1/activities/" + act.ID + "/distribute",
			token: orgToken, wantCode: http.StatusOK, wantData: marchallObj(t, wantSecond),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	if got := ledger.Credits[act.ID]; got != 1 {
		t.Errorf("ledger credits = %d, want 1", got)
	}
}

func Test_activityApi_exportWinners(t *testing.T) {
	app, repo, _ := newTestServer(t)
	orgToken := getToken(t, true, false)

	act := testutil.CreateActivity(t, repo, "Chess Open", 100, time.Now().Add(time.Hour))
	reg := testutil.CreateRegistration(t, repo, act.ID, "The Gophers", "team@test.test", "Ada", "Bob")

	announceBody := marchallObj(t, activity.AnnounceActivity{
		Assignments: []activity.RewardAssignment{{Award: activity.AwardWinner, RegistrationID: reg.ID}},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/activities/"+act.ID+"/announce", orgToken, announceBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("announce code = %d, want 200", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/activities/"+act.ID+"/winners.csv", orgToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "chess-open-winners.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "rank,name,prize,award,team,members", lines[0])
		assert.Contains(t, lines[1], "The Gophers")
		assert.Contains(t, lines[1], "Ada; Bob")
	}
}

func Test_activityApi_queryAwards(t *testing.T) {
	app, _, _ := newTestServer(t)

	tt := httpTest{
		name: "Get awards", path: "/v1/awards", token: getToken(t, false, false),
		wantCode: http.StatusOK, wantData: marchallObj(t, activity.Awards),
	}
	req, rec := newAuthRequest(tt.method, tt.path, tt.token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
