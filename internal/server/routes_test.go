package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/taskboard/internal/domain"
	"github.com/Tomlord1122/taskboard/internal/repository"
	"github.com/Tomlord1122/taskboard/internal/service"
)

type fixedFetcher struct {
	todos []domain.RemoteTodo
	err   error
}

func (f fixedFetcher) FetchTodos(context.Context) ([]domain.RemoteTodo, error) {
	return f.todos, f.err
}

type testEnv struct {
	handler http.Handler
	repo    *repository.MemoryKVRepository
	store   service.TaskStore
	loader  *service.TodoLoader
}

func newTestEnv(t *testing.T, fetcher service.TodoFetcher) *testEnv {
	t.Helper()
	repo := repository.NewMemoryKVRepository()
	store := service.NewTaskStore(repo, nil, false)
	loader := service.NewTodoLoader(fetcher, 0, log.New(io.Discard, "", 0))
	s := &Server{
		taskStore:  store,
		todoLoader: loader,
		health:     repo,
		baseCtx:    context.Background(),
		pages:      parsePages(),
	}
	return &testEnv{handler: s.RegisterRoutes(), repo: repo, store: store, loader: loader}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, target, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{})
	rec := env.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "up", body["status"])
}

func TestTaskAPI(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{})

	rec := env.do(t, http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"buy milk"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.Task{ID: 1, Title: "buy milk"}, created)

	rec = env.do(t, http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"bread"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/tasks/1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	assert.Equal(t, []domain.Task{{ID: 2, Title: "bread"}}, tasks)

	raw, ok, err := env.repo.Get(context.Background(), service.TasksKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":2,"title":"bread","description":""}]`, raw)
}

func TestCreateTaskBadRequests(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{})
	cases := map[string]string{
		"empty body":    ``,
		"bad json":      `{"title":`,
		"unknown field": `{"title":"a","done":true}`,
		"wrong type":    `{"title":5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/tasks", strings.NewReader(body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
	assert.Empty(t, env.store.Tasks(context.Background()))
}

func TestDeleteInvalidAndUnknownID(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{})

	rec := env.do(t, http.MethodDelete, "/api/tasks/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/tasks/99", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBoardPageFlow(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{})

	rec := env.postForm(t, "/input", url.Values{"title": {"half typed"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="half typed"`)

	rec = env.postForm(t, "/tasks", url.Values{"title": {"<b>walk dog</b>"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/", nil, "")
	body := rec.Body.String()
	assert.Contains(t, body, "&lt;b&gt;walk dog&lt;/b&gt;")
	assert.Contains(t, body, `action="/tasks/1/delete"`)
	assert.Contains(t, body, `value=""`, "input is cleared after add")

	rec = env.postForm(t, "/tasks/1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, env.store.Tasks(context.Background()))
}

func TestTodosPageFailureShowsEmptyList(t *testing.T) {
	env := newTestEnv(t, fixedFetcher{err: io.ErrUnexpectedEOF})

	rec := env.do(t, http.MethodGet, "/todos", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	waitLoader(t, env.loader)

	rec = env.do(t, http.MethodGet, "/todos", nil, "")
	body := rec.Body.String()
	assert.NotContains(t, body, "loading...")
	assert.NotContains(t, body, "<li")
}

func TestTodosPageRendersCompletionMarker(t *testing.T) {
	todos := make([]domain.RemoteTodo, 20)
	for i := range todos {
		todos[i] = domain.RemoteTodo{ID: i + 1, Title: "item", Completed: i < 7}
	}
	env := newTestEnv(t, fixedFetcher{todos: todos})

	env.do(t, http.MethodGet, "/todos", nil, "")
	waitLoader(t, env.loader)

	rec := env.do(t, http.MethodGet, "/todos", nil, "")
	body := rec.Body.String()
	assert.Equal(t, 20, strings.Count(body, "<li"))
	assert.Equal(t, 7, strings.Count(body, "item Done"))
	assert.NotContains(t, body, `http-equiv="refresh"`)

	rec = env.do(t, http.MethodGet, "/api/todos", nil, "")
	var resp TodosResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp))
	assert.False(t, resp.Loading)
	assert.Len(t, resp.Todos, 20)
}

func TestTodosPageWhileLoading(t *testing.T) {
	block := make(chan struct{})
	env := newTestEnv(t, blockingFetcher(block))
	defer close(block)

	rec := env.do(t, http.MethodGet, "/todos", nil, "")
	body := rec.Body.String()
	assert.Contains(t, body, "loading...")
	assert.Contains(t, body, `http-equiv="refresh"`)

	rec = env.do(t, http.MethodGet, "/api/todos", nil, "")
	assert.JSONEq(t, `{"loading":true,"todos":[]}`, rec.Body.String())
}

type blockingFetcher chan struct{}

func (b blockingFetcher) FetchTodos(ctx context.Context) ([]domain.RemoteTodo, error) {
	<-b
	return nil, nil
}

func waitLoader(t *testing.T, l *service.TodoLoader) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("todo loader did not finish")
	}
}
