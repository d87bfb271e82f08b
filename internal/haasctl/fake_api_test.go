package haasctl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/edvin/haas/internal/model"
)

// fakeAPI is a minimal in-memory haas API for CLI tests. The first instance
// of a herd becomes its primary, like the real resolver.
type fakeAPI struct {
	mu           sync.Mutex
	environments []model.Environment
	servers      []model.Server
	herds        []model.Herd
	instances    []model.Instance
	actions      []map[string]any
	authHeaders  []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	f := &fakeAPI{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, "haas_test")
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	var body map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	str := func(k string) string { s, _ := body[k].(string); return s }

	switch {
	case r.Method == http.MethodGet && path == "/environments":
		page(w, f.environments)
	case r.Method == http.MethodGet && path == "/servers":
		page(w, f.servers)
	case r.Method == http.MethodGet && path == "/herds":
		page(w, f.herds)
	case r.Method == http.MethodGet && path == "/instances":
		var out []model.Instance
		for _, inst := range f.instances {
			if inst.HerdID == r.URL.Query().Get("herd_id") {
				out = append(out, inst)
			}
		}
		page(w, out)

	case r.Method == http.MethodPost && path == "/environments":
		e := model.Environment{ID: "env-" + str("name"), Name: str("name")}
		f.environments = append(f.environments, e)
		writeJSON(w, http.StatusCreated, e)
	case r.Method == http.MethodPost && path == "/servers":
		s := model.Server{ID: "srv-" + str("hostname"), Hostname: str("hostname")}
		f.servers = append(f.servers, s)
		writeJSON(w, http.StatusCreated, s)
	case r.Method == http.MethodPost && path == "/herds":
		h := model.Herd{ID: "herd-" + str("name"), Name: str("name")}
		f.herds = append(f.herds, h)
		writeJSON(w, http.StatusCreated, h)
	case r.Method == http.MethodPost && path == "/instances":
		f.createInstance(w, str("herd_id"), str("server_id"))

	case r.Method == http.MethodPost && strings.HasPrefix(path, "/instances/actions/"):
		f.actions = append(f.actions, body)
		f.runAction(w, model.ActionKind(strings.TrimPrefix(path, "/instances/actions/")), body)

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route " + path})
	}
}

func (f *fakeAPI) createInstance(w http.ResponseWriter, herdID, serverID string) {
	inst := model.Instance{ID: herdID + "/" + serverID, HerdID: herdID, ServerID: serverID}
	for _, s := range f.servers {
		if s.ID == serverID {
			inst.Hostname = s.Hostname
		}
	}
	for _, h := range f.herds {
		if h.ID == herdID {
			inst.HerdName = h.Name
		}
	}
	for _, other := range f.instances {
		if other.HerdID == herdID && other.IsPrimary() {
			id := other.ID
			inst.MasterID = &id
			break
		}
	}
	f.instances = append(f.instances, inst)
	writeJSON(w, http.StatusCreated, map[string]any{"instance": inst})
}

func (f *fakeAPI) runAction(w http.ResponseWriter, kind model.ActionKind, body map[string]any) {
	var ids []string
	for _, v := range body["instance_ids"].([]any) {
		ids = append(ids, v.(string))
	}
	confirmed, _ := body["confirmed"].(bool)

	if kind.IsTopology() && !confirmed {
		p := model.Proposal{Action: kind, Candidates: []model.Instance{}}
		for _, inst := range f.instances {
			for _, id := range ids {
				if inst.ID == id && !inst.IsPrimary() && kind == model.ActionPromote {
					p.Candidates = append(p.Candidates, inst)
				}
			}
		}
		if len(p.Candidates) == 0 {
			p.Warnings = []string{"No valid replicas to promote"}
			writeJSON(w, http.StatusUnprocessableEntity, p)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	var outcomes []model.Outcome
	for _, id := range ids {
		outcomes = append(outcomes, model.Outcome{InstanceID: id, Label: id, Status: model.OutcomeSucceeded, Message: id + " ok"})
	}
	writeJSON(w, http.StatusOK, model.NewActionReport(kind, outcomes))
}

func page[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "has_more": false})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
