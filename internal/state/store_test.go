package state

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
	Label string
}

type add struct{ N int }

func (add) ActionType() string { return "counter/add" }

type label struct{ Text string }

func (label) ActionType() string { return "counter/label" }

func reduceCounter(s counter, action Action) counter {
	switch a := action.(type) {
	case add:
		s.Count += a.N
	case label:
		s.Label = a.Text
	case Fulfilled[int]:
		if a.Type == "counter/load" {
			s.Count = a.Payload
		}
	case Rejected:
		if a.Type == "counter/load" {
			s.Label = a.Err.Error()
		}
	}
	return s
}

func TestStore_DispatchAndSubscribe(t *testing.T) {
	st := New(reduceCounter, counter{})
	var seen []int
	unsubscribe := st.Subscribe(func(s counter) { seen = append(seen, s.Count) })

	st.Dispatch(add{N: 2})
	st.Dispatch(add{N: 3})
	unsubscribe()
	unsubscribe()
	st.Dispatch(add{N: 4})

	require.Equal(t, []int{2, 5}, seen)
	require.Equal(t, 9, st.State().Count)
}

func TestStore_NestedDispatchIsDeliveredInOrder(t *testing.T) {
	st := New(reduceCounter, counter{})
	var seen []int
	st.Subscribe(func(s counter) {
		if s.Count == 1 {
			st.Dispatch(add{N: 10})
		}
	})
	st.Subscribe(func(s counter) { seen = append(seen, s.Count) })

	st.Dispatch(add{N: 1})
	require.Equal(t, []int{1, 11}, seen)
}

func TestStore_ConcurrentDispatchSerializesReductions(t *testing.T) {
	st := New(reduceCounter, counter{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(add{N: 1})
		}()
	}
	wg.Wait()
	require.Equal(t, 100, st.State().Count)
}

func TestWatch_NotifiesOnlyOnChange(t *testing.T) {
	st := New(reduceCounter, counter{})
	var labels []string
	st.Subscribe(func(counter) {})
	unwatch := Watch(st, func(s counter) string { return s.Label }, Equal[string], func(v string) {
		labels = append(labels, v)
	})

	st.Dispatch(add{N: 1})
	st.Dispatch(label{Text: "a"})
	st.Dispatch(label{Text: "a"})
	st.Dispatch(label{Text: "b"})
	unwatch()
	st.Dispatch(label{Text: "c"})

	require.Equal(t, []string{"a", "b"}, labels)
}

func TestWatch_DeepEqualFallback(t *testing.T) {
	st := New(reduceCounter, counter{})
	calls := 0
	Watch(st, func(s counter) []int { return []int{s.Count} }, nil, func([]int) { calls++ })

	st.Dispatch(add{N: 0})
	st.Dispatch(add{N: 1})
	require.Equal(t, 1, calls)
}

func TestRunAsync_DispatchesLifecycle(t *testing.T) {
	var types []string
	record := func(_ func() counter, next DispatchFunc) DispatchFunc {
		return func(a Action) {
			types = append(types, a.ActionType())
			next(a)
		}
	}
	st := New(reduceCounter, counter{}, WithMiddleware(record))

	got, err := RunAsync(context.Background(), st, "counter/load", nil, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 42, st.State().Count)

	_, err = RunAsync(context.Background(), st, "counter/load", nil, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.Equal(t, "boom", st.State().Label)
	require.Equal(t, []string{
		"counter/load/pending", "counter/load/fulfilled",
		"counter/load/pending", "counter/load/rejected",
	}, types)
}

func TestNextRequestID_IsMonotonic(t *testing.T) {
	st := New(reduceCounter, counter{})
	first := st.NextRequestID()
	second := st.NextRequestID()
	assert.Less(t, first, second)
}

func TestLogger_RecordsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := New(reduceCounter, counter{}, WithMiddleware(Logger[counter](logger)))

	st.Dispatch(add{N: 1})
	st.Dispatch(Rejected{Type: "counter/load", RequestID: 7, Err: errors.New("nope")})

	out := buf.String()
	assert.Contains(t, out, "action=counter/add")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "action=counter/load/rejected")
	assert.Contains(t, out, "error=nope")
}

func TestSelect_ReadsProjection(t *testing.T) {
	st := New(reduceCounter, counter{Label: "x"})
	get := Select(st, func(s counter) string { return s.Label })
	require.Equal(t, "x", get())
}
