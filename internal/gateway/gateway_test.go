package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nhle/taskpilot/internal/graphql"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/state"
	"github.com/nhle/taskpilot/internal/store"
)

// handlerFunc answers one GraphQL operation or REST path with a status
// and a raw JSON body.
type handlerFunc func(vars map[string]any) (int, string)

// backend is a scripted stand-in for the GraphQL and REST API.
type backend struct {
	mu       sync.Mutex
	ops      map[string]handlerFunc
	rest     map[string]handlerFunc
	calls    map[string]int
	lastVars map[string]map[string]any
	lastAuth string
}

func newBackend() *backend {
	return &backend{
		ops:      make(map[string]handlerFunc),
		rest:     make(map[string]handlerFunc),
		calls:    make(map[string]int),
		lastVars: make(map[string]map[string]any),
	}
}

func (b *backend) on(op string, h handlerFunc) { b.ops[op] = h }

func (b *backend) reply(op, data string) {
	b.on(op, func(map[string]any) (int, string) {
		return http.StatusOK, `{"data":` + data + `}`
	})
}

func (b *backend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *backend) vars(op string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastVars[op]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	key, h := r.URL.Path, b.rest[r.URL.Path]
	vars := body
	if r.URL.Path == "/graphql/" {
		key, _ = body["operationName"].(string)
		h = b.ops[key]
		vars, _ = body["variables"].(map[string]any)
	}

	b.mu.Lock()
	b.calls[key]++
	b.lastVars[key] = vars
	b.lastAuth = r.Header.Get("Authorization")
	b.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status, resp := h(vars)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, resp)
}

type fixture struct {
	gw      *Gateway
	store   *state.Store
	storage *store.MemoryStore
	backend *backend
	srv     *httptest.Server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	b := newBackend()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	mem := store.NewMemoryStore()
	client := graphql.NewClient(srv.URL+"/graphql/",
		graphql.WithRESTBase(srv.URL),
		graphql.WithTokenSource(AccessToken(mem)),
		graphql.WithMaxRetries(0),
		graphql.WithLogger(quietLogger()),
	)
	st := state.New()
	t.Cleanup(st.Reset)

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return &fixture{
		gw:      New(client, st, mem, opts...),
		store:   st,
		storage: mem,
		backend: b,
		srv:     srv,
	}
}

func taskJSON(id, title, status string) string {
	return `{"id":"` + id + `","title":"` + title + `","status":"` + status + `","priority":"medium","createdAt":"2026-05-01T10:00:00Z","updatedAt":"2026-05-01T10:00:00Z"}`
}

func seedTask(st *state.Store, id, title string, status model.TaskStatus) {
	st.Tasks.Merge(model.Task{ID: model.ID(id), Title: title, Status: status})
}

func titles(tasks []model.Task) string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return strings.Join(out, ",")
}

func TestFetchTasksReplacesCollection(t *testing.T) {
	f := newFixture(t)
	seedTask(f.store, "9", "Stale", model.TaskStatusPending)
	f.backend.reply("GetMyTasks", `{"myTasks":[`+taskJSON("1", "A", "pending")+`,`+taskJSON("2", "B", "active")+`]}`)

	r := f.gw.FetchTasks(context.Background())
	if !r.OK() {
		t.Fatalf("fetch: %v %v", r.Kind, r.Err)
	}
	if got := titles(f.store.Tasks.Items()); got != "A,B" {
		t.Errorf("expected A,B, got %s", got)
	}
}

func TestCreateTaskValidationSkipsRequest(t *testing.T) {
	f := newFixture(t)

	r := f.gw.CreateTask(context.Background(), model.TaskInput{Title: "  "})
	if r.Kind != KindValidation || len(r.Errors) == 0 {
		t.Fatalf("expected validation failure, got %+v", r)
	}
	if f.backend.count("CreateTask") != 0 {
		t.Error("expected no request for invalid input")
	}
}

func TestCreateTaskPrepends(t *testing.T) {
	f := newFixture(t)
	seedTask(f.store, "1", "Old", model.TaskStatusPending)
	f.backend.reply("CreateTask", `{"createTask":{"success":true,"errors":[],"task":`+taskJSON("2", "New", "pending")+`}}`)

	r := f.gw.CreateTask(context.Background(), model.TaskInput{Title: "New", Priority: model.TaskPriorityHigh})
	if !r.OK() || r.Value.ID != "2" {
		t.Fatalf("expected created task, got %+v", r)
	}
	if got := titles(f.store.Tasks.Items()); got != "New,Old" {
		t.Errorf("expected New,Old, got %s", got)
	}

	data, _ := f.backend.vars("CreateTask")["taskData"].(map[string]any)
	if data["title"] != "New" || data["priority"] != "high" {
		t.Errorf("unexpected taskData %v", data)
	}
}

func TestBusinessFailureLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name   string
		errors string
		want   string
	}{
		{"verbatim", `["Title already used"]`, "Title already used"},
		{"empty", `[]`, "Unknown error"},
		{"null", `null`, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedTask(f.store, "1", "Old", model.TaskStatusPending)
			f.backend.reply("CreateTask", `{"createTask":{"success":false,"errors":`+tt.errors+`,"task":null}}`)

			r := f.gw.CreateTask(context.Background(), model.TaskInput{Title: "New"})
			if r.Kind != KindBusiness {
				t.Fatalf("expected business failure, got %v", r.Kind)
			}
			if len(r.Errors) != 1 || r.Errors[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, r.Errors)
			}
			if r.Message() != tt.want {
				t.Errorf("unexpected message %q", r.Message())
			}
			if got := titles(f.store.Tasks.Items()); got != "Old" {
				t.Errorf("store changed: %s", got)
			}
		})
	}
}

func TestSuccessWithoutEntityIsTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.reply("CreateTask", `{"createTask":{"success":true,"errors":[]}}`)

	r := f.gw.CreateTask(context.Background(), model.TaskInput{Title: "New"})
	if r.Kind != KindTransport || !errors.Is(r.Err, ErrMalformed) {
		t.Fatalf("expected malformed transport failure, got %v %v", r.Kind, r.Err)
	}
	if f.store.Tasks.Len() != 0 {
		t.Error("expected nothing merged")
	}
}

func TestTransportFailureUpdatesConnection(t *testing.T) {
	f := newFixture(t)
	f.backend.on("GetMyTasks", func(map[string]any) (int, string) {
		return http.StatusInternalServerError, `boom`
	})

	r := f.gw.FetchTasks(context.Background())
	if r.Kind != KindTransport {
		t.Fatalf("expected transport failure, got %v", r.Kind)
	}
	if !f.store.Connected() {
		t.Error("a server error should not mark the backend unreachable")
	}

	f.srv.Close()
	r = f.gw.FetchTasks(context.Background())
	if r.Kind != KindTransport {
		t.Fatalf("expected transport failure, got %v", r.Kind)
	}
	if f.store.Connected() {
		t.Error("expected disconnected after unreachable backend")
	}
	if !strings.Contains(r.Message(), "Unable to reach") {
		t.Errorf("unexpected message %q", r.Message())
	}
}

func TestUpdateDroppedWhenDeletedInFlight(t *testing.T) {
	f := newFixture(t)
	seedTask(f.store, "1", "Draft", model.TaskStatusPending)
	f.backend.on("UpdateTask", func(map[string]any) (int, string) {
		// The user deletes the task while the update is in flight.
		f.store.Tasks.Remove("1")
		return http.StatusOK, `{"data":{"updateTask":{"success":true,"errors":[],"task":` + taskJSON("1", "Final", "active") + `}}}`
	})

	r := f.gw.UpdateTask(context.Background(), "1", model.TaskInput{Title: "Final"})
	if !r.OK() {
		t.Fatalf("update: %v", r.Kind)
	}
	if _, ok := f.store.Tasks.Get("1"); ok {
		t.Error("late update resurrected a deleted task")
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	f := newFixture(t)
	seedTask(f.store, "2", "B", model.TaskStatusPending)
	seedTask(f.store, "1", "A", model.TaskStatusPending)
	f.backend.reply("UpdateTask", `{"updateTask":{"success":true,"errors":[],"task":`+taskJSON("2", "B2", "active")+`}}`)

	r := f.gw.UpdateTask(context.Background(), "2", model.TaskInput{Title: "B2"})
	if !r.OK() {
		t.Fatalf("update: %v", r.Kind)
	}
	if got := titles(f.store.Tasks.Items()); got != "A,B2" {
		t.Errorf("expected A,B2, got %s", got)
	}
	if f.backend.vars("UpdateTask")["taskId"] != "2" {
		t.Errorf("unexpected vars %v", f.backend.vars("UpdateTask"))
	}
}

func TestDeleteTaskRemoves(t *testing.T) {
	f := newFixture(t)
	seedTask(f.store, "1", "A", model.TaskStatusPending)
	f.store.SelectTask("1")
	f.backend.reply("DeleteTask", `{"deleteTask":{"success":true,"errors":[]}}`)

	r := f.gw.DeleteTask(context.Background(), "1")
	if !r.OK() || r.Value != "1" {
		t.Fatalf("delete: %+v", r)
	}
	if f.store.Tasks.Len() != 0 {
		t.Error("expected task removed")
	}
	if _, ok := f.store.SelectedTask(); ok {
		t.Error("expected selection cleared")
	}
}

func TestToggleTaskCompletion(t *testing.T) {
	tests := []struct {
		from, want model.TaskStatus
	}{
		{model.TaskStatusCompleted, model.TaskStatusActive},
		{model.TaskStatusPending, model.TaskStatusCompleted},
		{model.TaskStatusActive, model.TaskStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			f := newFixture(t)
			seedTask(f.store, "1", "A", tt.from)
			f.backend.reply("UpdateTask", `{"updateTask":{"success":true,"errors":[],"task":`+taskJSON("1", "A", string(tt.want))+`}}`)

			r := f.gw.ToggleTaskCompletion(context.Background(), "1")
			if !r.OK() {
				t.Fatalf("toggle: %v", r.Kind)
			}
			data, _ := f.backend.vars("UpdateTask")["taskData"].(map[string]any)
			if data["status"] != string(tt.want) {
				t.Errorf("expected status %s sent, got %v", tt.want, data["status"])
			}
		})
	}
}

func TestToggleUnknownTask(t *testing.T) {
	f := newFixture(t)
	r := f.gw.ToggleTaskCompletion(context.Background(), "404")
	if r.Kind != KindValidation {
		t.Fatalf("expected validation failure, got %v", r.Kind)
	}
	if f.backend.count("UpdateTask") != 0 {
		t.Error("expected no request")
	}
}

func TestCancelledContextSuppressesMerge(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.backend.on("CreateTask", func(map[string]any) (int, string) {
		cancel()
		return http.StatusOK, `{"data":{"createTask":{"success":true,"errors":[],"task":` + taskJSON("1", "A", "pending") + `}}}`
	})

	f.gw.CreateTask(ctx, model.TaskInput{Title: "A"})
	if f.store.Tasks.Len() != 0 {
		t.Error("expected no merge after cancellation")
	}
	if f.store.Loading() {
		t.Error("expected loading counter released")
	}
}

func TestFetchTaskNotFound(t *testing.T) {
	f := newFixture(t)
	f.backend.reply("GetTask", `{"task":null}`)

	r := f.gw.FetchTask(context.Background(), "5")
	if r.Kind != KindBusiness || r.Errors[0] != "Task not found" {
		t.Fatalf("expected not found, got %+v", r)
	}
}

func TestFetchTasksByStatus(t *testing.T) {
	f := newFixture(t)
	f.backend.reply("GetTasksByStatus", `{"tasksByStatus":[`+taskJSON("1", "A", "paused")+`]}`)

	if r := f.gw.FetchTasksByStatus(context.Background(), "sleeping"); r.Kind != KindValidation {
		t.Errorf("expected validation failure for unknown status, got %v", r.Kind)
	}

	r := f.gw.FetchTasksByStatus(context.Background(), model.TaskStatusPaused)
	if !r.OK() || len(r.Value) != 1 {
		t.Fatalf("unexpected result %+v", r)
	}
	if f.store.Tasks.Len() != 0 {
		t.Error("status query must not touch the store")
	}
}

func TestSummarizeMessagePatchesFields(t *testing.T) {
	f := newFixture(t)
	f.store.Messages.Merge(model.Message{
		ID: "m1", Title: "Hello", Content: "Long text", Status: model.MessageStatusUnprocessed,
	})
	f.backend.reply("SummarizeMessage", `{"summarizeMessage":{"success":true,"errors":[],"message":{"id":"m1","summary":"Short","status":"processed","processedAt":"2026-05-01T10:00:00Z"}}}`)

	r := f.gw.SummarizeMessage(context.Background(), "m1")
	if !r.OK() {
		t.Fatalf("summarize: %v", r.Kind)
	}
	m, _ := f.store.Messages.Get("m1")
	if m.Summary != "Short" || m.Status != model.MessageStatusProcessed || m.ProcessedAt == nil {
		t.Errorf("fields not patched: %+v", m)
	}
	if m.Title != "Hello" || m.Content != "Long text" {
		t.Errorf("unrelated fields lost: %+v", m)
	}
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture(t)
	f.store.Messages.Merge(model.Message{ID: "m1", Title: "Hello"})
	f.backend.reply("MarkMessageAsRead", `{"markMessageAsRead":{"success":true,"errors":[],"message":{"id":"m1","isRead":true,"readAt":"2026-05-01T10:00:00Z"}}}`)

	r := f.gw.MarkMessageRead(context.Background(), "m1")
	if !r.OK() {
		t.Fatalf("mark read: %v", r.Kind)
	}
	m, _ := f.store.Messages.Get("m1")
	if !m.IsRead || m.ReadAt == nil || m.Title != "Hello" {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestPartialMessageUpdatesSkipUnknownMessages(t *testing.T) {
	f := newFixture(t)
	f.backend.reply("MarkMessageAsRead", `{"markMessageAsRead":{"success":true,"errors":[],"message":{"id":"m7","isRead":true,"readAt":"2026-05-01T10:00:00Z"}}}`)
	f.backend.reply("SummarizeMessage", `{"summarizeMessage":{"success":true,"errors":[],"message":{"id":"m8","summary":"Short","status":"processed"}}}`)

	r := f.gw.MarkMessageRead(context.Background(), "m7")
	if !r.OK() || r.Value.ID != "m7" || !r.Value.IsRead {
		t.Fatalf("mark read: unexpected result %+v", r)
	}
	s := f.gw.SummarizeMessage(context.Background(), "m8")
	if !s.OK() || s.Value.Summary != "Short" {
		t.Fatalf("summarize: unexpected result %+v", s)
	}

	if n := f.store.Messages.Len(); n != 0 {
		t.Errorf("expected no messages stored, got %d: %+v", n, f.store.Messages.Items())
	}
}

func TestMarkReadAfterDeleteKeepsMessageRemoved(t *testing.T) {
	f := newFixture(t)
	f.store.Messages.Merge(model.Message{ID: "m1", Title: "Hello"})
	f.store.Messages.Remove("m1")
	f.backend.reply("MarkMessageAsRead", `{"markMessageAsRead":{"success":true,"errors":[],"message":{"id":"m1","isRead":true}}}`)

	if r := f.gw.MarkMessageRead(context.Background(), "m1"); !r.OK() {
		t.Fatalf("mark read: %v", r.Kind)
	}
	if _, ok := f.store.Messages.Get("m1"); ok {
		t.Error("removed message came back")
	}
}

func TestDeleteMessageBusinessFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Messages.Merge(model.Message{ID: "m1"})
	f.backend.reply("DeleteMessage", `{"deleteMessage":{"success":false,"errors":["Message not found"]}}`)

	r := f.gw.DeleteMessage(context.Background(), "m1")
	if r.Kind != KindBusiness {
		t.Fatalf("expected business failure, got %v", r.Kind)
	}
	if f.store.Messages.Len() != 1 {
		t.Error("expected message kept")
	}
}

func TestFetchLinkedAccountsSharesRequest(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f.backend.on("GetLinkedAccounts", func(map[string]any) (int, string) {
		entered <- struct{}{}
		<-release
		return http.StatusOK, `{"data":{"linkedAccounts":[{"id":"a1","serviceName":"slack","accountIdentifier":"me","isActive":true}]}}`
	})

	var wg sync.WaitGroup
	results := make([]Result[[]model.LinkedAccount], 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = f.gw.FetchLinkedAccounts(context.Background())
	}()
	<-entered

	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.gw.FetchLinkedAccounts(context.Background())
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := f.backend.count("GetLinkedAccounts"); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
	for i, r := range results {
		if !r.OK() || len(r.Value) != 1 {
			t.Errorf("caller %d: unexpected result %+v", i, r)
		}
	}
	if f.store.Accounts.Len() != 1 {
		t.Error("expected accounts stored")
	}
}

func TestFetchLinkedAccountsSurvivesCancelledLeader(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f.backend.on("GetLinkedAccounts", func(map[string]any) (int, string) {
		entered <- struct{}{}
		<-release
		return http.StatusOK, `{"data":{"linkedAccounts":[{"id":"a1","serviceName":"slack","accountIdentifier":"me","isActive":true}]}}`
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Result[[]model.LinkedAccount], 1)
	go func() { first <- f.gw.FetchLinkedAccounts(ctx) }()
	<-entered

	second := make(chan Result[[]model.LinkedAccount], 1)
	go func() { second <- f.gw.FetchLinkedAccounts(context.Background()) }()
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case r := <-first:
		if r.Kind != KindTransport || !errors.Is(r.Err, context.Canceled) {
			t.Errorf("cancelled caller: unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}
	close(release)

	r := <-second
	if !r.OK() || len(r.Value) != 1 {
		t.Fatalf("waiting caller: unexpected result %+v", r)
	}
	if f.store.Accounts.Len() != 1 {
		t.Error("expected accounts stored for the live caller")
	}
	if n := f.backend.count("GetLinkedAccounts"); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestTestConnectionInactive(t *testing.T) {
	f := newFixture(t)
	f.store.Accounts.Merge(model.LinkedAccount{ID: "a1", ServiceName: model.ServiceSlack, IsActive: true})
	f.backend.reply("GetLinkedAccount", `{"linkedAccount":{"id":"a1","serviceName":"slack","accountIdentifier":"me","isActive":false}}`)

	r := f.gw.TestConnection(context.Background(), "a1")
	if r.Kind != KindBusiness || r.Errors[0] != "Connection test failed" {
		t.Fatalf("expected connection failure, got %+v", r)
	}
	a, _ := f.store.Accounts.Get("a1")
	if a.IsActive {
		t.Error("expected fetched state merged")
	}
}

func TestLinkAndUnlinkAccount(t *testing.T) {
	f := newFixture(t)
	f.backend.reply("LinkAccount", `{"linkAccount":{"success":true,"errors":[],"account":{"id":"a1","serviceName":"gmail","accountIdentifier":"me@example.com","isActive":true}}}`)
	f.backend.reply("UnlinkAccount", `{"unlinkAccount":{"success":true,"errors":[]}}`)

	in := model.LinkedAccountInput{ServiceName: model.ServiceGmail, AccountIdentifier: "me@example.com", Token: "t"}
	if r := f.gw.LinkAccount(context.Background(), in); !r.OK() {
		t.Fatalf("link: %v", r.Kind)
	}
	if _, ok := f.store.ConnectedAccount(model.ServiceGmail); !ok {
		t.Error("expected connected gmail account")
	}
	if _, present := f.backend.vars("LinkAccount")["refreshToken"]; present {
		t.Error("empty refresh token should not be sent")
	}

	if r := f.gw.UnlinkAccount(context.Background(), "a1"); !r.OK() {
		t.Fatalf("unlink: %v", r.Kind)
	}
	if f.store.Accounts.Len() != 0 {
		t.Error("expected account removed")
	}
}

func TestExecuteAction(t *testing.T) {
	f := newFixture(t)
	f.store.Actions.Merge(model.Action{ID: "act1", ActionType: model.ActionSendEmail, RequiresConfig: true})
	f.backend.reply("ExecuteAction", `{"executeAction":{"success":true,"errors":[],"execution":{"id":"e1","status":"pending","configData":"{\"to\":\"a@b.com\"}","startedAt":"2026-05-01T10:00:00Z"}}}`)

	r := f.gw.ExecuteAction(context.Background(), model.ExecuteActionInput{
		ActionID:   "act1",
		ConfigData: map[string]any{"to": "not-an-email"},
	})
	if r.Kind != KindValidation {
		t.Fatalf("expected validation failure, got %v", r.Kind)
	}
	if f.backend.count("ExecuteAction") != 0 {
		t.Error("expected no request for invalid config")
	}

	r = f.gw.ExecuteAction(context.Background(), model.ExecuteActionInput{
		ActionID:   "act1",
		ConfigData: map[string]any{"to": "a@b.com", "subject": "Hi", "body": "Text"},
	})
	if !r.OK() {
		t.Fatalf("execute: %v %v", r.Kind, r.Err)
	}
	if r.Value.ConfigData["to"] != "a@b.com" {
		t.Errorf("expected decoded config, got %v", r.Value.ConfigData)
	}
	data, _ := f.backend.vars("ExecuteAction")["executionData"].(map[string]any)
	if s, ok := data["configData"].(string); !ok || !strings.Contains(s, `"subject":"Hi"`) {
		t.Errorf("expected configData as JSON string, got %v", data["configData"])
	}
	if f.store.Executions.Len() != 1 {
		t.Error("expected execution merged")
	}
}

func TestResultMessage(t *testing.T) {
	if m := Invalid[int]("A", "B").Message(); m != "A; B" {
		t.Errorf("unexpected %q", m)
	}
	if m := Failed[int](&graphql.AuthError{Op: "q"}).Message(); !strings.Contains(m, "session has expired") {
		t.Errorf("unexpected %q", m)
	}
	if m := Ok(1).Message(); m != "" {
		t.Errorf("unexpected %q", m)
	}
	if KindBusiness.String() != "business" {
		t.Error("unexpected kind string")
	}
}
