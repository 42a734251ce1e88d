package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeAPI is a GraphQL server that answers operations by name with canned
// data. Unknown operations get a 404.
type FakeAPI struct {
	URL string

	mu    sync.Mutex
	data  map[string]string
	calls map[string]int
	vars  map[string]map[string]any
}

// NewFakeAPI starts a FakeAPI that is shut down when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		data:  make(map[string]string),
		calls: make(map[string]int),
		vars:  make(map[string]map[string]any),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

// GraphQLURL is the endpoint clients should be pointed at.
func (f *FakeAPI) GraphQLURL() string { return f.URL + "/graphql/" }

// Reply sets the value of the "data" field returned for op.
func (f *FakeAPI) Reply(op, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[op] = data
}

// Count reports how many times op was requested.
func (f *FakeAPI) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Vars returns the variables of the last op request.
func (f *FakeAPI) Vars(op string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vars[op]
}

func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls[body.OperationName]++
	f.vars[body.OperationName] = body.Variables
	data, ok := f.data[body.OperationName]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"data":`+data+`}`)
}
