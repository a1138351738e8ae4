package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
)

type teamBody struct {
	Team struct {
		ID             string   `json:"team_id"`
		Name           string   `json:"name"`
		InvitationCode string   `json:"invitation_code"`
		Points         int      `json:"points"`
		Leaders        []string `json:"leaders"`
		Members        []string `json:"members"`
	} `json:"team"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setup(t *testing.T) *TestServer {
	t.Helper()

	ts, err := NewTestServer()
	if err != nil {
		t.Fatalf("Failed to create test server: %v", err)
	}
	t.Cleanup(ts.Close)

	if err := ts.LoadFixtures(); err != nil {
		t.Fatalf("Failed to load fixtures: %v", err)
	}
	return ts
}

func TestHealthIsPublic(t *testing.T) {
	ts := setup(t)

	resp := doGet(t, ts, "/health", "")
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := setup(t)

	resp := doGet(t, ts, "/teams/me", "")
	defer resp.Body.Close()
	expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

	resp = doGet(t, ts, "/teams/me", "not-a-jwt")
	defer resp.Body.Close()
	expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

	resp = doGet(t, ts, "/users/me", ts.Token("00000000-0000-4000-8000-0000000000ff"))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := setup(t)

	resp := doPost(t, ts, "/users", ts.Token(AliceID), `{"username": "dave", "email": "dave@example.com"}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = doPost(t, ts, "/users", ts.Token(AdminID), `{"username": "dave", "email": "dave@example.com"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)
}

func TestTeamLifecycle(t *testing.T) {
	ts := setup(t)

	resp := doPost(t, ts, "/teams", ts.Token(AliceID), `{"name": "Rockets", "slogan": "up"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	var created teamBody
	decode(t, resp, &created)
	if created.Team.Name != "Rockets" {
		t.Fatalf("wrong team: %s", created.Team.Name)
	}
	if len(created.Team.Leaders) != 1 || created.Team.Leaders[0] != AliceID {
		t.Fatalf("expected alice to lead, got %v", created.Team.Leaders)
	}

	resp = doPost(t, ts, "/teams", ts.Token(BobID), `{"name": "rockets"}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusConflict, "CONFLICT")

	resp = doPost(t, ts, "/teams/join", ts.Token(BobID), fmt.Sprintf(`{"invitation_code": %q}`, created.Team.InvitationCode))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	path := "/teams/" + created.Team.ID
	resp = doPost(t, ts, path+"/members", ts.Token(BobID), `{"email_or_username": "carol"}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = doPost(t, ts, path+"/members", ts.Token(AliceID), `{"email_or_username": "CAROL@example.com"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var full teamBody
	decode(t, resp, &full)
	if len(full.Team.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(full.Team.Members))
	}

	resp = doPost(t, ts, path+"/leaders/"+BobID, ts.Token(AliceID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doDelete(t, ts, path+"/members/"+BobID, ts.Token(AliceID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var trimmed teamBody
	decode(t, resp, &trimmed)
	if len(trimmed.Team.Leaders) != 1 || trimmed.Team.Leaders[0] != AliceID {
		t.Fatalf("removed member still leads: %v", trimmed.Team.Leaders)
	}

	resp = doGet(t, ts, "/teams/me", ts.Token(BobID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = doDelete(t, ts, path, ts.Token(AliceID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNoContent)

	resp = doGet(t, ts, path, ts.Token(AliceID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestInvalidInputs(t *testing.T) {
	ts := setup(t)

	resp := doGet(t, ts, "/teams/not-a-uuid", ts.Token(AliceID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = doPost(t, ts, "/teams", ts.Token(AliceID), `{"name": "x", "unknown": true}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = doPost(t, ts, "/teams", ts.Token(AliceID), `{"name": ""}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = doGet(t, ts, "/leaderboard/users?limit=0", ts.Token(AliceID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")
}

func TestTeamProjectScoring(t *testing.T) {
	ts := setup(t)

	resp := doPost(t, ts, "/teams", ts.Token(AliceID), `{"name": "Rockets"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)
	var team teamBody
	decode(t, resp, &team)

	resp = doPost(t, ts, "/teams/join", ts.Token(BobID), fmt.Sprintf(`{"invitation_code": %q}`, team.Team.InvitationCode))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doPost(t, ts, "/projects", ts.Token(AdminID), `{
    "title": "Relay",
    "type": "team",
    "status": "active",
    "start_date": "2026-01-01T00:00:00Z",
    "end_date": "2099-01-01T00:00:00Z",
    "rewards": {
        "first_place_points": 100,
        "second_place_points": 75,
        "third_place_points": 50,
        "other_participants_points": 25
    }
}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	var project struct {
		Project struct {
			ID string `json:"project_id"`
		} `json:"project"`
	}
	decode(t, resp, &project)
	projectPath := "/projects/" + project.Project.ID

	resp = doPost(t, ts, projectPath+"/register", ts.Token(BobID), "")
	defer resp.Body.Close()
	expectError(t, resp, http.StatusForbidden, "FORBIDDEN")

	resp = doPost(t, ts, projectPath+"/register", ts.Token(AliceID), "")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doPost(t, ts, projectPath+"/submissions", ts.Token(BobID), `{"github_link": "https://github.com/rockets/relay"}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	var sub struct {
		Submission struct {
			ID              string  `json:"submission_id"`
			SubmittedByTeam *string `json:"submitted_by_team"`
		} `json:"submission"`
	}
	decode(t, resp, &sub)
	if sub.Submission.SubmittedByTeam == nil || *sub.Submission.SubmittedByTeam != team.Team.ID {
		t.Fatalf("expected team submission, got %v", sub.Submission.SubmittedByTeam)
	}
	subPath := "/submissions/" + sub.Submission.ID

	resp = doPost(t, ts, subPath+"/rank", ts.Token(AdminID), `{"ranking": 1}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = doPost(t, ts, subPath+"/review", ts.Token(AdminID), `{"status": "approved", "score": 90}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	resp = doPost(t, ts, subPath+"/rank", ts.Token(AdminID), `{"ranking": 1}`)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var distribution struct {
		PointsAwarded int `json:"points_awarded"`
		Entries       []struct {
			RecipientID string `json:"recipient_id"`
			Amount      int    `json:"amount"`
		} `json:"distribution"`
	}
	decode(t, resp, &distribution)
	if distribution.PointsAwarded != 100 {
		t.Fatalf("expected 100 points, got %d", distribution.PointsAwarded)
	}
	if len(distribution.Entries) != 3 {
		t.Fatalf("expected team plus two member bonuses, got %d entries", len(distribution.Entries))
	}

	resp = doPost(t, ts, subPath+"/rank", ts.Token(AdminID), `{"ranking": 2}`)
	defer resp.Body.Close()
	expectError(t, resp, http.StatusConflict, "CONFLICT")

	resp = doGet(t, ts, "/leaderboard/users?limit=5", ts.Token(CarolID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var board struct {
		Entries []struct {
			ID     string `json:"id"`
			Points int    `json:"points"`
		} `json:"entries"`
	}
	decode(t, resp, &board)
	if len(board.Entries) != 3 {
		t.Fatalf("expected 3 non-admin users, got %d", len(board.Entries))
	}
	if board.Entries[0].Points != 50 || board.Entries[1].Points != 50 {
		t.Fatalf("expected two 50 point bonuses on top, got %+v", board.Entries)
	}

	resp = doGet(t, ts, "/points/teams/"+team.Team.ID, ts.Token(CarolID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var ledger struct {
		Transactions []struct {
			Amount int    `json:"amount"`
			Kind   string `json:"kind"`
		} `json:"transactions"`
	}
	decode(t, resp, &ledger)
	if len(ledger.Transactions) != 1 || ledger.Transactions[0].Amount != 100 {
		t.Fatalf("unexpected team ledger: %+v", ledger.Transactions)
	}
}

func TestManualPoints(t *testing.T) {
	ts := setup(t)

	resp := doPost(t, ts, "/points", ts.Token(AdminID), fmt.Sprintf(`{"user_id": %q, "delta": -5}`, AliceID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusConflict, "CONFLICT")

	resp = doPost(t, ts, "/points", ts.Token(AdminID), fmt.Sprintf(`{"user_id": %q, "team_id": %q, "delta": 5}`, AliceID, AliceID))
	defer resp.Body.Close()
	expectError(t, resp, http.StatusBadRequest, "BAD_REQUEST")

	resp = doPost(t, ts, "/points", ts.Token(AdminID), fmt.Sprintf(`{"user_id": %q, "delta": 12}`, AliceID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)

	resp = doGet(t, ts, "/users/me", ts.Token(AliceID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var me struct {
		User struct {
			Points int `json:"points"`
		} `json:"user"`
	}
	decode(t, resp, &me)
	if me.User.Points != 12 {
		t.Fatalf("expected 12 points, got %d", me.User.Points)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, string(body))
	}
}

func expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()

	expectStatus(t, resp, status)

	var data errorBody
	decode(t, resp, &data)
	if data.Error.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, data.Error.Code, data.Error.Message)
	}
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func do(t *testing.T, ts *TestServer, method, path, token, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func doPost(t *testing.T, ts *TestServer, path, token, body string) *http.Response {
	return do(t, ts, http.MethodPost, path, token, body)
}

func doGet(t *testing.T, ts *TestServer, path, token string) *http.Response {
	return do(t, ts, http.MethodGet, path, token, "")
}

func doDelete(t *testing.T, ts *TestServer, path, token string) *http.Response {
	return do(t, ts, http.MethodDelete, path, token, "")
}
