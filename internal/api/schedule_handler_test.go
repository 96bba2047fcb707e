package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/domain/ebbinghaus"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/memory"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/platform/timezone"
	"github.com/DaniilZebzeev/Ebinhauzer-bot/internal/service/schedule"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	resolver, err := timezone.NewResolver("UTC", nil)
	require.NoError(t, err)

	svc := schedule.NewService(
		nil,
		memory.NewUserStore(),
		memory.NewMaterialStore(),
		memory.NewScheduleEntryStore(),
		memory.NewRepetitionResultStore(),
		memory.NewUserStatsStore(),
		ebbinghaus.NewService(resolver),
		nil,
	)

	server := httptest.NewServer(NewScheduleHandler(svc, nil).Routes())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func registerTestUser(t *testing.T, server *httptest.Server) *domain.User {
	t.Helper()
	resp := postJSON(t, server.URL+"/users", RegisterUserRequest{
		Username: "learner",
		Timezone: "UTC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user domain.User
	decodeBody(t, resp, &user)
	return &user
}

func TestRegisterUserRequiresTimezone(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/users", RegisterUserRequest{Username: "learner"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMaterialAndComplete(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	user := registerTestUser(t, server)

	resp := postJSON(
		t,
		server.URL+"/users/"+user.ID.String()+"/materials",
		CreateMaterialRequest{Content: "supply and demand"},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateMaterialResponse
	decodeBody(t, resp, &created)
	require.Len(t, created.Entries, 3)

	entry := created.Entries[2] // the evening entry
	resp = postJSON(
		t,
		server.URL+"/users/"+user.ID.String()+"/entries/"+entry.ID.String()+"/complete",
		nil,
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transition EntryTransitionResponse
	decodeBody(t, resp, &transition)
	assert.Equal(t, 3, transition.NextEntry.Stage)
	assert.Equal(t, domain.KindDay1, transition.NextEntry.Kind)

	// Second completion is a conflict.
	resp = postJSON(
		t,
		server.URL+"/users/"+user.ID.String()+"/entries/"+entry.ID.String()+"/complete",
		nil,
	)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCompleteForeignEntryIsForbidden(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	owner := registerTestUser(t, server)
	intruder := registerTestUser(t, server)

	resp := postJSON(
		t,
		server.URL+"/users/"+owner.ID.String()+"/materials",
		CreateMaterialRequest{Content: "private"},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created CreateMaterialResponse
	decodeBody(t, resp, &created)

	resp = postJSON(
		t,
		server.URL+"/users/"+intruder.ID.String()+"/entries/"+created.Entries[0].ID.String()+"/complete",
		nil,
	)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetDueReturnsEmptyList(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	user := registerTestUser(t, server)

	resp, err := http.Get(server.URL + "/users/" + user.ID.String() + "/due")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []*schedule.DueItem
	decodeBody(t, resp, &items)
	assert.Empty(t, items)
}

func TestInvalidIDsAreBadRequests(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/users/not-a-uuid/materials", CreateMaterialRequest{Content: "x"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMaterialsFiltersActive(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	user := registerTestUser(t, server)

	resp := postJSON(
		t,
		server.URL+"/users/"+user.ID.String()+"/materials",
		CreateMaterialRequest{Content: "to be retired"},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created CreateMaterialResponse
	decodeBody(t, resp, &created)

	req, err := http.NewRequest(
		http.MethodDelete,
		server.URL+"/users/"+user.ID.String()+"/materials/"+created.Material.ID.String(),
		nil,
	)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(server.URL + "/users/" + user.ID.String() + "/materials")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all MaterialListResponse
	decodeBody(t, resp, &all)
	assert.Equal(t, 1, all.Total)
	require.Len(t, all.Materials, 1)
	assert.False(t, all.Materials[0].IsActive)

	resp, err = http.Get(server.URL + "/users/" + user.ID.String() + "/materials?active=true")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active MaterialListResponse
	decodeBody(t, resp, &active)
	assert.Zero(t, active.Total)
	assert.Empty(t, active.Materials)
}

func TestSweepWithNothingExpired(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	user := registerTestUser(t, server)

	resp := postJSON(
		t,
		server.URL+"/users/"+user.ID.String()+"/materials",
		CreateMaterialRequest{Content: "fresh"},
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	defer func() { _ = resp.Body.Close() }()

	// Today's intraday entries are not expired yet.
	resp = postJSON(t, server.URL+"/sweep", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sweep SweepResponse
	decodeBody(t, resp, &sweep)
	assert.Zero(t, sweep.Swept)
}

func TestHistoryNotFoundForUnknownMaterial(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	user := registerTestUser(t, server)

	resp, err := http.Get(
		server.URL + "/users/" + user.ID.String() +
			"/materials/00000000-0000-0000-0000-000000000001/history",
	)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
