package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/haas/internal/model"
)

func placement(inst *model.Instance) {
	inst.HerdName = "analytics"
	inst.Hostname = "db3"
	inst.Port = 5433
	inst.PGData = "/var/lib/postgresql/analytics"
}

func TestResolver_Save_NewInstanceWithoutPrimary(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	inst := &model.Instance{ID: "c", HerdID: "h1", ServerID: "s3"}
	store.On("ResolvePlacement", ctx, inst).Run(func(args mock.Arguments) {
		placement(args.Get(1).(*model.Instance))
	}).Return(nil)
	probe.On("Reachable", ctx, "db3", 5433).Return(true)
	store.On("HerdPrimary", ctx, "h1", "c").Return(nil, nil)
	ctl.On("Version", ctx, "c").Return("16.4", nil)
	store.On("Create", ctx, inst).Return(nil)
	ctl.On("InitMissing", ctx, "c", "").Return(nil)

	res, err := r.Save(ctx, inst, true)

	require.NoError(t, err)
	assert.True(t, res.Instance.IsOnline)
	assert.Nil(t, res.Instance.MasterID)
	assert.True(t, res.Instance.IsPrimary())
	assert.Equal(t, "16.4", res.Instance.Version)
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Instance.CreatedAt.IsZero())
	store.AssertExpectations(t)
	ctl.AssertExpectations(t)
}

func TestResolver_Save_InheritsMasterVersionWhenUndetectable(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	a := primary("a", "h1", "db1")
	a.Version = "15.8"
	a.Position = ptr(int64(4096))

	inst := &model.Instance{ID: "c", HerdID: "h1", ServerID: "s3"}
	store.On("ResolvePlacement", ctx, inst).Run(func(args mock.Arguments) {
		placement(args.Get(1).(*model.Instance))
	}).Return(nil)
	probe.On("Reachable", ctx, "db3", 5433).Return(true)
	store.On("HerdPrimary", ctx, "h1", "c").Return(&a, nil)
	ctl.On("Version", ctx, "c").Return("", errors.New("password authentication failed"))
	store.On("Create", ctx, inst).Return(nil)
	ctl.On("InitMissing", ctx, "c", "a").Return(nil)

	res, err := r.Save(ctx, inst, true)

	require.NoError(t, err)
	require.NotNil(t, res.Instance.MasterID)
	assert.Equal(t, "a", *res.Instance.MasterID)
	assert.Equal(t, "15.8", res.Instance.Version)
	assert.Equal(t, ptr(int64(4096)), res.Instance.MasterPosition)
}

func TestResolver_Save_OperatorVersionBeatsInheritance(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	a := primary("a", "h1", "db1")
	a.Version = "15.8"

	inst := &model.Instance{ID: "c", HerdID: "h1", ServerID: "s3", Version: "16.1"}
	store.On("GetByID", ctx, "c").Return(&model.Instance{ID: "c", HerdID: "h1"}, nil)
	store.On("ResolvePlacement", ctx, inst).Run(func(args mock.Arguments) {
		placement(args.Get(1).(*model.Instance))
	}).Return(nil)
	probe.On("Reachable", ctx, "db3", 5433).Return(false)
	store.On("HerdPrimary", ctx, "h1", "c").Return(&a, nil)
	store.On("Update", ctx, inst).Return(nil)
	ctl.On("InitMissing", ctx, "c", "a").Return(nil)

	res, err := r.Save(ctx, inst, false)

	require.NoError(t, err)
	assert.False(t, res.Instance.IsOnline)
	assert.Equal(t, "16.1", res.Instance.Version)
	ctl.AssertNotCalled(t, "Version", mock.Anything, mock.Anything)
}

func TestResolver_Save_BootstrapFailureIsWarning(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	inst := &model.Instance{ID: "c", HerdID: "h1", ServerID: "s3"}
	store.On("ResolvePlacement", ctx, inst).Return(nil)
	probe.On("Reachable", ctx, "", 0).Return(false)
	store.On("HerdPrimary", ctx, "h1", "c").Return(nil, nil)
	store.On("Create", ctx, inst).Return(nil)
	ctl.On("InitMissing", ctx, "c", "").Return(errors.New("pg_createcluster: exit status 1"))

	res, err := r.Save(ctx, inst, true)

	require.NoError(t, err)
	assert.Equal(t, []string{"Instance init: pg_createcluster: exit status 1"}, res.Warnings)
	store.AssertCalled(t, "Create", ctx, inst)
}

func TestResolver_Save_PersistErrorAborts(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	inst := &model.Instance{ID: "c", HerdID: "h1", ServerID: "s3"}
	store.On("GetByID", ctx, "c").Return(&model.Instance{ID: "c", HerdID: "h1"}, nil)
	store.On("ResolvePlacement", ctx, inst).Return(nil)
	probe.On("Reachable", ctx, "", 0).Return(false)
	store.On("HerdPrimary", ctx, "h1", "c").Return(nil, nil)
	store.On("Update", ctx, inst).Return(ErrTopologyCycle)

	_, err := r.Save(ctx, inst, false)

	require.ErrorIs(t, err, ErrTopologyCycle)
	ctl.AssertNotCalled(t, "InitMissing", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Save_UnknownPlacement(t *testing.T) {
	store := &mockStore{}
	r := NewResolver(store, &mockController{}, &mockProber{})
	ctx := context.Background()

	inst := &model.Instance{HerdID: "nope", ServerID: "s3"}
	store.On("ResolvePlacement", ctx, inst).Return(ErrNotFound)

	_, err := r.Save(ctx, inst, true)

	require.ErrorIs(t, err, ErrNotFound)
	assert.NotEmpty(t, inst.ID)
}

func TestResolver_Save_RefusesHerdMoveWithDependents(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	a := primary("a", "h1", "db1")
	store.On("GetByID", ctx, "a").Return(&a, nil)
	store.On("CountDependents", ctx, "a").Return(1, nil)

	moved := a
	moved.HerdID = "h2"
	_, err := r.Save(ctx, &moved, false)

	require.ErrorIs(t, err, ErrHasDependents)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "HerdPrimary", mock.Anything, mock.Anything, mock.Anything)
	ctl.AssertNotCalled(t, "InitMissing", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Save_MovesLeafInstanceToAnotherHerd(t *testing.T) {
	store, ctl, probe := &mockStore{}, &mockController{}, &mockProber{}
	r := NewResolver(store, ctl, probe)
	ctx := context.Background()

	p2 := primary("p2", "h2", "db9")
	p2.Version = "16.4"
	b := replica("b", "h1", "db2", "a")
	store.On("GetByID", ctx, "b").Return(&b, nil)
	store.On("CountDependents", ctx, "b").Return(0, nil)

	moved := b
	moved.HerdID = "h2"
	store.On("ResolvePlacement", ctx, &moved).Return(nil)
	probe.On("Reachable", ctx, "db2", model.DefaultPort).Return(false)
	store.On("HerdPrimary", ctx, "h2", "b").Return(&p2, nil)
	store.On("Update", ctx, &moved).Return(nil)
	ctl.On("InitMissing", ctx, "b", "p2").Return(nil)

	res, err := r.Save(ctx, &moved, false)

	require.NoError(t, err)
	require.NotNil(t, res.Instance.MasterID)
	assert.Equal(t, "p2", *res.Instance.MasterID)
	store.AssertExpectations(t)
}
