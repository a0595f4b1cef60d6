package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quillmesh/agent"
	"github.com/hupe1980/quillmesh/artifact"
	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/session"
)

func writer(draft string) core.Step {
	return agent.NewKernel(core.NewAgentFunc("Writer", func(context.Context, *core.State) (core.Update, error) {
		return core.Update{Draft: core.Ptr(draft), DraftTitle: core.Ptr("Title")}, nil
	}))
}

func TestRunner_RunPersistsSnapshotAndPost(t *testing.T) {
	sessions := session.NewInMemoryStore()
	artifacts := artifact.NewInMemoryStore()
	r := New(writer("# Title\n\nbody text"), func(o *Options) {
		o.SessionStore = sessions
		o.ArtifactStore = artifacts
	})

	st := core.New("runner topic")
	final, err := r.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Same(t, st, final)
	assert.Equal(t, core.StatusCompleted, final.StatusOf("Writer"))

	snap, err := sessions.Get(st.RunID)
	require.NoError(t, err)
	assert.Equal(t, final.Version, snap.Version)

	data, err := artifacts.Get(st.RunID, artifact.PostArtifactID)
	require.NoError(t, err)
	doc, err := artifact.ParseMarkdown(data)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Title)

	assert.Empty(t, r.Active())
}

func TestRunner_InvalidStateNeverStarts(t *testing.T) {
	var calls atomic.Int32
	root := agent.NewKernel(core.NewAgentFunc("Writer", func(context.Context, *core.State) (core.Update, error) {
		calls.Add(1)
		return core.Update{}, nil
	}))
	sessions := session.NewInMemoryStore()
	r := New(root, func(o *Options) { o.SessionStore = sessions })

	st := core.New("ab")
	_, err := r.Run(context.Background(), st)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 1, st.Version)

	list, err := sessions.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunner_FailedRunReturnsErrRunFailed(t *testing.T) {
	root := agent.NewKernel(core.NewAgentFunc("Researcher", func(context.Context, *core.State) (core.Update, error) {
		return core.Update{}, errors.New("no sources")
	}))
	artifacts := artifact.NewInMemoryStore()
	r := New(root, func(o *Options) { o.ArtifactStore = artifacts })

	st := core.New("runner topic")
	final, err := r.Run(context.Background(), st)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "Researcher")
	assert.Contains(t, err.Error(), "no sources")
	assert.Len(t, final.ErrorLog, 1)

	ids, err := artifacts.List(st.RunID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	snap, err := r.SessionStore().Get(st.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, snap.StatusOf("Researcher"))
}

func TestRunner_RunTimeout(t *testing.T) {
	root := agent.NewKernel(core.NewAgentFunc("Researcher", func(ctx context.Context, _ *core.State) (core.Update, error) {
		<-ctx.Done()
		return core.Update{}, ctx.Err()
	}))
	r := New(root, func(o *Options) { o.RunTimeout = 20 * time.Millisecond })

	st := core.New("runner topic")
	_, err := r.Run(context.Background(), st)

	require.ErrorIs(t, err, ErrRunFailed)
	require.Len(t, st.ErrorLog, 1)
	assert.Equal(t, core.ErrorKindTimeout, st.ErrorLog[0].Kind)
}

func TestRunner_CancelAndActive(t *testing.T) {
	started := make(chan struct{})
	root := agent.NewKernel(core.NewAgentFunc("Researcher", func(ctx context.Context, _ *core.State) (core.Update, error) {
		close(started)
		<-ctx.Done()
		return core.Update{}, ctx.Err()
	}))
	r := New(root)
	st := core.New("runner topic")

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), st)
		done <- err
	}()

	<-started
	assert.Equal(t, []string{st.RunID}, r.Active())
	require.NoError(t, r.Cancel(st.RunID))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRunFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}

	assert.Empty(t, r.Active())
	assert.ErrorIs(t, r.Cancel(st.RunID), ErrRunNotFound)
}

func TestRunner_RunBatchIndependentAndBounded(t *testing.T) {
	var running, peak atomic.Int32
	root := agent.NewKernel(core.NewAgentFunc("Writer", func(_ context.Context, st *core.State) (core.Update, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		if st.Topic == "failing topic" {
			return core.Update{}, errors.New("boom")
		}
		return core.Update{Draft: core.Ptr(st.Topic)}, nil
	}))
	r := New(root, func(o *Options) { o.MaxConcurrentRuns = 2 })

	states := []*core.State{
		core.New("first topic"),
		core.New("failing topic"),
		core.New("third topic"),
		core.New("x"),
		core.New("fifth topic"),
	}

	results := r.RunBatch(context.Background(), states)

	require.Len(t, results, 5)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrRunFailed)
	assert.NoError(t, results[2].Err)
	assert.ErrorIs(t, results[3].Err, core.ErrInvalidState)
	assert.NoError(t, results[4].Err)
	assert.Equal(t, "fifth topic", results[4].State.Draft)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
