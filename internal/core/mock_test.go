package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/haas/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

func (m *mockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

// ---------- Mock Tx ----------

// mockTx implements pgx.Tx. Only Exec, Commit and Rollback are recorded.
type mockTx struct {
	mock.Mock
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, pgx.ErrTxClosed }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *mockTx) Conn() *pgx.Conn                                               { return nil }

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Mock TopologyStore ----------

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*model.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *mockStore) GetMany(ctx context.Context, ids []string) ([]model.Instance, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Instance), args.Error(1)
}

func (m *mockStore) ResolvePlacement(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *mockStore) HerdPrimary(ctx context.Context, herdID, excludeID string) (*model.Instance, error) {
	args := m.Called(ctx, herdID, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *mockStore) CountDependents(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountOtherPrimaries(ctx context.Context, herdID, excludeID string) (int, error) {
	args := m.Called(ctx, herdID, excludeID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *mockStore) Update(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *mockStore) SetOnline(ctx context.Context, id string, online bool) error {
	return m.Called(ctx, id, online).Error(0)
}

func (m *mockStore) SetMaster(ctx context.Context, id string, masterID *string) error {
	return m.Called(ctx, id, masterID).Error(0)
}

// ---------- Mock Controller / Prober ----------

type mockController struct {
	mock.Mock
}

func (m *mockController) Start(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst.ID).Error(0)
}

func (m *mockController) Stop(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst.ID).Error(0)
}

func (m *mockController) Reload(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst.ID).Error(0)
}

func (m *mockController) Promote(ctx context.Context, inst *model.Instance) error {
	return m.Called(ctx, inst.ID).Error(0)
}

func (m *mockController) Demote(ctx context.Context, inst, upstream *model.Instance) error {
	return m.Called(ctx, inst.ID, upstream.ID).Error(0)
}

func (m *mockController) Rebuild(ctx context.Context, inst, master *model.Instance) error {
	return m.Called(ctx, inst.ID, master.ID).Error(0)
}

func (m *mockController) Version(ctx context.Context, inst *model.Instance) (string, error) {
	args := m.Called(ctx, inst.ID)
	return args.String(0), args.Error(1)
}

func (m *mockController) InitMissing(ctx context.Context, inst, master *model.Instance) error {
	masterID := ""
	if master != nil {
		masterID = master.ID
	}
	return m.Called(ctx, inst.ID, masterID).Error(0)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Reachable(ctx context.Context, host string, port int) bool {
	return m.Called(ctx, host, port).Bool(0)
}

// ---------- Fixtures ----------

func ptr[T any](v T) *T { return &v }

func primary(id, herd, host string) model.Instance {
	return model.Instance{ID: id, HerdID: herd, HerdName: herd, Hostname: host, Port: model.DefaultPort, IsOnline: true}
}

func replica(id, herd, host, master string) model.Instance {
	inst := primary(id, herd, host)
	inst.MasterID = ptr(master)
	return inst
}
