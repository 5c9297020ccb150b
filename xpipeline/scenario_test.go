package xpipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xiaoshicae/xframe/xpipeline"
	"github.com/xiaoshicae/xframe/xprocessor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

type frame = *xpipeline.BasicFrame

func fn(f func(frame) (frame, bool)) xpipeline.Processor[frame] {
	return xpipeline.Function(f)
}

// counter 为每帧写入递增的 id
func counter() xpipeline.Processor[frame] {
	var next uint64
	return fn(func(f frame) (frame, bool) {
		f.SetUint64("id", next)
		next++
		return f, true
	})
}

func id(f frame) uint64 {
	v, _ := f.GetUint64("id")
	return v
}

func runToEnd(t *testing.T, p *xpipeline.Pipeline[frame], timeout time.Duration) {
	t.Helper()
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	select {
	case <-p.Done():
	case <-time.After(timeout):
		p.Stop()
		t.Fatalf("pipeline %s not finished in %s", p.Name(), timeout)
	}
	require.NoError(t, p.Wait())
}

func TestTickerIdentity(t *testing.T) {
	var got []uint64
	p := xpipeline.New[frame](xpipeline.WithName("ticker-identity")).
		Link(xpipeline.NewComponent(xprocessor.Ticker[frame](50*time.Millisecond), counter()).WithMaxFrames(5)).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
			got = append(got, id(f))
			return f, true
		})))

	start := time.Now()
	runToEnd(t, p, 2*time.Second)
	cost := time.Since(start)

	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, got)
	assert.GreaterOrEqual(t, cost, 200*time.Millisecond)
	assert.LessOrEqual(t, cost, 400*time.Millisecond)
}

func TestTimestampThreshold(t *testing.T) {
	var mu sync.Mutex
	var reasons []string
	sink := xpipeline.NewComponent(
		fn(func(f frame) (frame, bool) {
			time.Sleep(100 * time.Millisecond)
			return f, true
		}),
		xprocessor.TimestampDiffCalculator[frame]("t", "d"),
		xprocessor.ThresholdDropperWithReason[frame]("d", uint128.From64(50), "stale"),
	).OnDrop(func(_ context.Context, f frame) {
		r, _ := f.DropReason()
		mu.Lock()
		reasons = append(reasons, r)
		mu.Unlock()
	})

	p := xpipeline.New[frame](xpipeline.WithName("timestamp-threshold")).
		Link(xpipeline.NewComponent(
			xprocessor.Ticker[frame](10*time.Millisecond),
			xprocessor.TimestampAdder[frame]("t"),
		).WithMaxFrames(8)).
		Link(sink)
	runToEnd(t, p, 3*time.Second)

	res := p.Result()
	assert.Equal(t, uint64(8), res.Components[1].Received)
	assert.Equal(t, uint64(8), res.Components[1].Dropped)
	assert.Equal(t, uint64(0), res.Components[1].Emitted)
	require.Len(t, reasons, 8)
	for _, r := range reasons {
		assert.Equal(t, "stale", r)
	}
}

func TestFunctionalFilter(t *testing.T) {
	var got []uint64
	p := xpipeline.New[frame](xpipeline.WithName("functional-filter")).
		Link(xpipeline.NewComponent(counter()).WithMaxFrames(100)).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
			return f, id(f)%2 == 0
		}))).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
			got = append(got, id(f))
			return f, true
		})))
	runToEnd(t, p, 2*time.Second)

	want := make([]uint64, 0, 50)
	for i := uint64(0); i < 100; i += 2 {
		want = append(want, i)
	}
	assert.Equal(t, want, got)
}

func TestBackpressure(t *testing.T) {
	const (
		capacity = 4
		delay    = 50 * time.Millisecond
		window   = time.Second
	)

	var produced, consumed atomic.Int64
	p := xpipeline.New[frame](xpipeline.WithName("backpressure"), xpipeline.WithChannelCapacity(capacity)).
		Link(xpipeline.NewComponent(
			xprocessor.Ticker[frame](time.Millisecond),
			fn(func(f frame) (frame, bool) {
				produced.Add(1)
				return f, true
			}),
		)).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
			time.Sleep(delay)
			consumed.Add(1)
			return f, true
		})))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	time.Sleep(window)
	producedAtWindow, consumedAtWindow := produced.Load(), consumed.Load()
	p.Stop()
	require.NoError(t, p.Wait())

	// 每 50ms 消费一帧，1s 内约 20 帧
	assert.InDelta(t, 20, consumedAtWindow, 2)
	// 源头最多领先 channel 容量，外加 sink 手中与源头阻塞发送中的各一帧
	assert.LessOrEqual(t, producedAtWindow, consumedAtWindow+capacity+2)
	assert.LessOrEqual(t, producedAtWindow, int64(window/delay)+capacity+3)
	// 停止后下游处理完剩余帧
	assert.Equal(t, p.Result().Components[0].Emitted, uint64(consumed.Load()))
}

func TestPacedEmission(t *testing.T) {
	const period = 20 * time.Millisecond
	var stamps []time.Time
	p := xpipeline.New[frame](xpipeline.WithName("paced")).
		Link(xpipeline.NewComponent(
			xprocessor.Ticker[frame](period),
			fn(func(f frame) (frame, bool) {
				stamps = append(stamps, time.Now())
				return f, true
			}),
		).WithMaxFrames(11))
	runToEnd(t, p, 2*time.Second)

	require.Len(t, stamps, 11)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), period-2*time.Millisecond)
	}
	avg := stamps[len(stamps)-1].Sub(stamps[0]) / time.Duration(len(stamps)-1)
	assert.GreaterOrEqual(t, avg, period-time.Millisecond)
	assert.Less(t, avg, period+10*time.Millisecond)
}

func TestErrorTagging(t *testing.T) {
	errEvery5th := errors.New("every 5th frame")
	var survivors []uint64
	p := xpipeline.New[frame](xpipeline.WithName("error-tagging")).
		Link(xpipeline.NewComponent(
			counter(),
			xprocessor.ErrorTagger(func(f frame) bool { return id(f)%5 == 4 }, error(errEvery5th)),
		).WithMaxFrames(50)).
		Link(xpipeline.NewComponent(
			xprocessor.ErrorDropper[frame](),
			fn(func(f frame) (frame, bool) {
				survivors = append(survivors, id(f))
				return f, true
			}),
		))
	runToEnd(t, p, 2*time.Second)

	assert.Equal(t, uint64(10), p.Result().Dropped())
	assert.Len(t, survivors, 40)
	for _, s := range survivors {
		assert.NotEqual(t, uint64(4), s%5)
	}
}

func TestSequentialEquivalence(t *testing.T) {
	stages := func() []xpipeline.Processor[frame] {
		return []xpipeline.Processor[frame]{
			fn(func(f frame) (frame, bool) {
				f.SetUint64("x", id(f)*3)
				return f, true
			}),
			fn(func(f frame) (frame, bool) {
				return f, id(f)%7 != 0
			}),
			fn(func(f frame) (frame, bool) {
				x, _ := f.GetUint64("x")
				f.SetUint64("y", x+1)
				return f, true
			}),
		}
	}

	run := func(name string, sequential bool) []string {
		var out []string
		src := xpipeline.NewComponent(counter()).WithMaxFrames(30)
		if sequential {
			src.Append(xpipeline.NewSequential(stages()...))
		} else {
			for _, s := range stages() {
				src.Append(s)
			}
		}
		p := xpipeline.New[frame](xpipeline.WithName(name)).
			Link(src).
			Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
				out = append(out, f.String())
				return f, true
			})))
		runToEnd(t, p, 2*time.Second)
		return out
	}

	flat := run("flat", false)
	nested := run("nested", true)
	require.NotEmpty(t, flat)
	assert.Equal(t, flat, nested)
}

func TestShutdownCascade(t *testing.T) {
	p := xpipeline.New[frame](xpipeline.WithName("cascade"), xpipeline.WithChannelCapacity(2)).
		Link(xpipeline.NewComponent(xprocessor.Ticker[frame](time.Millisecond))).
		Link(xpipeline.NewComponent(xpipeline.AsyncFunction(func(ctx context.Context, f frame) (frame, bool) {
			select {
			case <-time.After(5 * time.Millisecond):
				return f, true
			case <-ctx.Done():
				return f, false
			}
		}))).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) { return f, true })))

	ctx, cancel := context.WithCancel(context.Background())
	handles, err := p.Run(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	cancel()

	for _, h := range handles {
		select {
		case <-h.Done():
			assert.NoError(t, h.Err())
		case <-time.After(time.Second):
			t.Fatalf("component %s not terminated", h.Name())
		}
	}
	require.NoError(t, p.Wait())
}

func TestTickerStopIsNotADrop(t *testing.T) {
	var drops atomic.Int64
	src := xpipeline.NewComponent(xprocessor.Ticker[frame](time.Hour)).
		OnDrop(func(context.Context, frame) { drops.Add(1) })
	p := xpipeline.New[frame](xpipeline.WithName("ticker-stop")).
		Link(src).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) { return f, true })))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	// 首帧立即放行，第二帧停在 Ticker 的等待中
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pipeline not stopped")
	}
	require.NoError(t, p.Wait())

	res := p.Result()
	assert.Equal(t, uint64(0), res.Dropped())
	assert.Equal(t, int64(0), drops.Load())
	assert.Equal(t, uint64(1), res.Components[0].Emitted)
	assert.Equal(t, uint64(1), res.Components[1].Received)
}

func TestDeduplicator(t *testing.T) {
	dedup, err := xprocessor.NewDeduplicator[frame]("key", time.Minute)
	require.NoError(t, err)

	var got []uint64
	p := xpipeline.New[frame](xpipeline.WithName("dedup")).
		Link(xpipeline.NewComponent[frame](
			counter(),
			fn(func(f frame) (frame, bool) {
				f.SetUint64("key", id(f)%3)
				return f, true
			}),
			dedup,
		).WithMaxFrames(9)).
		Link(xpipeline.NewComponent(fn(func(f frame) (frame, bool) {
			got = append(got, id(f))
			return f, true
		})))
	runToEnd(t, p, 2*time.Second)

	assert.Equal(t, []uint64{0, 1, 2}, got)
}
