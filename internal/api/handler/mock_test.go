package handler

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/haas/internal/core"
	"github.com/edvin/haas/internal/model"
)

// handlerMockDB implements core.DB for handler tests.
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *handlerMockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// errRow is a pgx.Row whose Scan always fails.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }

// fakeStore is an in-memory core.TopologyStore keyed by instance id.
type fakeStore struct {
	mu        sync.Mutex
	instances map[string]*model.Instance
}

func newFakeStore(instances ...model.Instance) *fakeStore {
	s := &fakeStore{instances: map[string]*model.Instance{}}
	for i := range instances {
		inst := instances[i]
		s.instances[inst.ID] = &inst
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (s *fakeStore) GetMany(_ context.Context, ids []string) ([]model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Instance
	for _, id := range ids {
		if inst, ok := s.instances[id]; ok {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (s *fakeStore) ResolvePlacement(context.Context, *model.Instance) error { return nil }

func (s *fakeStore) HerdPrimary(_ context.Context, herdID, excludeID string) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range s.instances {
		if inst.HerdID == herdID && inst.ID != excludeID && inst.IsPrimary() {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CountDependents(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inst := range s.instances {
		if inst.MasterID != nil && *inst.MasterID == id {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountOtherPrimaries(_ context.Context, herdID, excludeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inst := range s.instances {
		if inst.HerdID == herdID && inst.ID != excludeID && inst.IsPrimary() {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Create(_ context.Context, inst *model.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inst
	s.instances[inst.ID] = &cp
	return nil
}

func (s *fakeStore) Update(ctx context.Context, inst *model.Instance) error {
	return s.Create(ctx, inst)
}

func (s *fakeStore) SetOnline(_ context.Context, id string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[id].IsOnline = online
	return nil
}

func (s *fakeStore) SetMaster(_ context.Context, id string, masterID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[id].MasterID = masterID
	return nil
}

// fakeController succeeds at everything and records which calls it saw.
type fakeController struct {
	mu    sync.Mutex
	calls []string
}

func (c *fakeController) record(op string, inst *model.Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op+" "+inst.ID)
	return nil
}

func (c *fakeController) Start(_ context.Context, inst *model.Instance) error {
	return c.record("start", inst)
}

func (c *fakeController) Stop(_ context.Context, inst *model.Instance) error {
	return c.record("stop", inst)
}

func (c *fakeController) Reload(_ context.Context, inst *model.Instance) error {
	return c.record("reload", inst)
}

func (c *fakeController) Promote(_ context.Context, inst *model.Instance) error {
	return c.record("promote", inst)
}

func (c *fakeController) Demote(_ context.Context, inst, _ *model.Instance) error {
	return c.record("demote", inst)
}

func (c *fakeController) Rebuild(_ context.Context, inst, _ *model.Instance) error {
	return c.record("rebuild", inst)
}

func (c *fakeController) Version(context.Context, *model.Instance) (string, error) {
	return "16.4", nil
}

func (c *fakeController) InitMissing(_ context.Context, inst, _ *model.Instance) error {
	return c.record("init", inst)
}

type fakeProber bool

func (p fakeProber) Reachable(context.Context, string, int) bool { return bool(p) }

func strPtr(s string) *string { return &s }

func primary(id, herd, host string) model.Instance {
	return model.Instance{ID: id, HerdID: herd, HerdName: herd, ServerID: "srv-" + host, Hostname: host, Port: 5432, IsOnline: true}
}

func replica(id, herd, host, master string) model.Instance {
	inst := primary(id, herd, host)
	inst.MasterID = strPtr(master)
	return inst
}
