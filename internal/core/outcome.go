package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/haas/internal/metrics"
	"github.com/edvin/haas/internal/model"
)

func succeeded(inst *model.Instance, format string, args ...any) model.Outcome {
	return model.Outcome{
		InstanceID: inst.ID,
		Label:      inst.Label(),
		Status:     model.OutcomeSucceeded,
		Message:    fmt.Sprintf(format, args...),
	}
}

func skipped(inst *model.Instance, reason error, format string, args ...any) model.Outcome {
	return model.Outcome{
		InstanceID: inst.ID,
		Label:      inst.Label(),
		Status:     model.OutcomeSkipped,
		Reason:     reason.Error(),
		Message:    fmt.Sprintf(format, args...),
	}
}

func failed(inst *model.Instance, err error) model.Outcome {
	return model.Outcome{
		InstanceID: inst.ID,
		Label:      inst.Label(),
		Status:     model.OutcomeFailed,
		Reason:     err.Error(),
		Message:    fmt.Sprintf("%s : %v", inst.Label(), err),
	}
}

func missing(id string) model.Outcome {
	return model.Outcome{
		InstanceID: id,
		Label:      id,
		Status:     model.OutcomeFailed,
		Reason:     ErrNotFound.Error(),
		Message:    fmt.Sprintf("instance %s %v", id, ErrNotFound),
	}
}

// record logs and counts one outcome.
func record(ctx context.Context, action model.ActionKind, o model.Outcome, started time.Time) {
	metrics.ObserveAction(string(action), string(o.Status), time.Since(started))

	logger := zerolog.Ctx(ctx)
	var ev *zerolog.Event
	switch o.Status {
	case model.OutcomeSucceeded:
		ev = logger.Info()
	case model.OutcomeSkipped:
		ev = logger.Warn()
	default:
		ev = logger.Error()
	}
	ev.Str("action", string(action)).
		Str("instance_id", o.InstanceID).
		Str("status", string(o.Status)).
		Str("reason", o.Reason).
		Msg(o.Message)
}

// forEach calls fn for every index in [0, n) with at most limit calls in
// flight. fn must only write state owned by its own index.
func forEach(n, limit int, fn func(i int)) {
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// loadOrdered fetches ids in request order. Duplicates are dropped and ids
// with no row come back as nil.
func loadOrdered(ctx context.Context, store TopologyStore, ids []string) ([]string, []*model.Instance, error) {
	unique := dedupe(ids)
	rows, err := store.GetMany(ctx, unique)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]*model.Instance, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	out := make([]*model.Instance, len(unique))
	for i, id := range unique {
		out[i] = byID[id]
	}
	return unique, out, nil
}
