package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	for _, name := range []string{"start", "stop", "restart", "reload", "rebuild", "promote", "demote"} {
		k, err := ParseActionKind(name)
		require.NoError(t, err)
		assert.Equal(t, ActionKind(name), k)
	}

	_, err := ParseActionKind("failover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestActionKind_Phases(t *testing.T) {
	assert.True(t, ActionRestart.IsLifecycle())
	assert.False(t, ActionRestart.IsTopology())
	assert.True(t, ActionDemote.IsTopology())
	assert.False(t, ActionDemote.IsLifecycle())
	assert.True(t, ActionRebuild.IsLifecycle())
}

func TestNewActionReport(t *testing.T) {
	r := NewActionReport(ActionStart, []Outcome{
		{InstanceID: "a", Status: OutcomeSucceeded},
		{InstanceID: "b", Status: OutcomeSkipped},
		{InstanceID: "c", Status: OutcomeFailed},
		{InstanceID: "d", Status: OutcomeSucceeded},
	})
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Failed)

	empty := NewActionReport(ActionStop, nil)
	assert.NotNil(t, empty.Outcomes)
}

func TestProposal_CandidateIDs(t *testing.T) {
	p := Proposal{Candidates: []Instance{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, []string{"a", "b"}, p.CandidateIDs())
}
