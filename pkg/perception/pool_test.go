package perception

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	mu     sync.Mutex
	text   string
	err    error
	closed bool
}

func (s *stubRecognizer) Recognize(ctx context.Context, img Image) (string, error) {
	return s.text, s.err
}

func (s *stubRecognizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubRecognizer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type stubImage struct {
	cropErr error
	crops   []Rect
}

func (s *stubImage) Crop(r Rect) (Image, error) {
	s.crops = append(s.crops, r)
	if s.cropErr != nil {
		return nil, s.cropErr
	}
	return s, nil
}

// countingFactory builds workers and remembers their recognizers by id.
type countingFactory struct {
	mu          sync.Mutex
	recognizers map[int]*stubRecognizer
	fail        bool
}

func (f *countingFactory) build(id int) (*Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("no ocr engine")
	}
	if f.recognizers == nil {
		f.recognizers = make(map[int]*stubRecognizer)
	}
	r := &stubRecognizer{text: "Alice"}
	f.recognizers[id] = r
	return NewWorker(id, r), nil
}

func (f *countingFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recognizers)
}

func TestNewPool_Validation(t *testing.T) {
	f := &countingFactory{}

	_, err := NewPool(0, f.build)
	assert.Error(t, err)

	_, err = NewPool(2, nil)
	assert.Error(t, err)

	f.fail = true
	_, err = NewPool(2, f.build)
	assert.Error(t, err)
}

func TestPool_RoundRobin(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(3, f.build)
	require.NoError(t, err)

	var ids []int
	for i := 0; i < 3; i++ {
		lease, err := pool.Acquire()
		require.NoError(t, err)
		ids = append(ids, lease.Worker.ID())
		assert.True(t, pool.Release(lease))
	}
	lease, err := pool.Acquire()
	require.NoError(t, err)
	ids = append(ids, lease.Worker.ID())

	assert.Equal(t, []int{0, 1, 2, 0}, ids)
	assert.Equal(t, 3, f.created())
}

func TestPool_BusySlotGetsFreshWorkerAndStaleLeaseIsRejected(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(2, f.build)
	require.NoError(t, err)

	first, err := pool.Acquire()
	require.NoError(t, err)
	second, err := pool.Acquire()
	require.NoError(t, err)

	// Both slots are out; the pool must not wait.
	replacement, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 2, replacement.Worker.ID())
	assert.Equal(t, 3, f.created())

	// The original holder of slot 0 finishes late.
	assert.False(t, pool.Release(first))
	assert.True(t, f.recognizers[first.Worker.ID()].isClosed())

	assert.True(t, pool.Release(replacement))
	assert.True(t, pool.Release(second))

	// Slot 1 comes up first, then slot 0 serves the replacement.
	_, err = pool.Acquire()
	require.NoError(t, err)
	next, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 2, next.Worker.ID())
}

func TestPool_CurrentTracksSupersededLeases(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(1, f.build)
	require.NoError(t, err)

	first, err := pool.Acquire()
	require.NoError(t, err)
	assert.True(t, pool.Current(first))

	replacement, err := pool.Acquire()
	require.NoError(t, err)
	assert.False(t, pool.Current(first))
	assert.True(t, pool.Current(replacement))

	require.NoError(t, pool.Close())
	assert.False(t, pool.Current(replacement))
}

func TestPool_ReplacementFailureReturnsError(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(1, f.build)
	require.NoError(t, err)

	held, err := pool.Acquire()
	require.NoError(t, err)

	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()

	_, err = pool.Acquire()
	assert.Error(t, err)

	// The holder was superseded even though no replacement exists.
	assert.False(t, pool.Release(held))
}

func TestPool_Close(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(2, f.build)
	require.NoError(t, err)

	lease, err := pool.Acquire()
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.True(t, f.recognizers[1].isClosed())

	_, err = pool.Acquire()
	assert.ErrorIs(t, err, ErrPoolClosed)

	assert.False(t, pool.Release(lease))
	assert.True(t, f.recognizers[0].isClosed())
}

func TestPool_ConcurrentReleaseIsSafe(t *testing.T) {
	f := &countingFactory{}
	pool, err := NewPool(4, f.build)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		lease, err := pool.Acquire()
		require.NoError(t, err)
		wg.Add(1)
		go func(l *Lease) {
			defer wg.Done()
			pool.Release(l)
		}(lease)
	}
	wg.Wait()

	assert.Equal(t, 4, pool.Size())
}

func TestWorker_ReadText(t *testing.T) {
	r := &stubRecognizer{text: "  Alice \n"}
	w := NewWorker(7, r)
	img := &stubImage{}
	rect := Rect{X: 1, Y: 2, Width: 3, Height: 4}

	text, err := w.ReadText(context.Background(), img, rect)
	require.NoError(t, err)
	assert.Equal(t, "Alice", text)
	assert.Equal(t, []Rect{rect}, img.crops)

	r.err = errors.New("engine crashed")
	_, err = w.ReadText(context.Background(), img, rect)
	assert.ErrorIs(t, err, ErrPerception)

	_, err = w.ReadText(context.Background(), &stubImage{cropErr: errors.New("out of bounds")}, rect)
	assert.ErrorIs(t, err, ErrPerception)
}

func TestLayout_Validate(t *testing.T) {
	r := Rect{Width: 10, Height: 10}
	good := Layout{PlayerName: r, WeaponIcon: r, WeaponSlot1: r, WeaponSlot2: r}
	assert.NoError(t, good.Validate())

	bad := good
	bad.WeaponSlot2 = Rect{}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidLayout)
}
