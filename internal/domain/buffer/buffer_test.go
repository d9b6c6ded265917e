package buffer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArbiter_Exclusive(t *testing.T) {
	a := NewArbiter(64, 0, nil)

	lease, err := a.TryAcquire("first")
	require.NoError(t, err)
	assert.Equal(t, "first", a.Holder())

	_, err = a.TryAcquire("second")
	assert.ErrorIs(t, err, ErrLockUnavailable)

	_, err = a.Acquire(context.Background(), "second")
	assert.ErrorIs(t, err, ErrLockUnavailable)

	lease.Release()
	lease.Release()
	assert.Empty(t, a.Holder())

	lease, err = a.TryAcquire("second")
	require.NoError(t, err)
	lease.Release()
}

func TestArbiter_BoundedWait(t *testing.T) {
	a := NewArbiter(64, 20*time.Millisecond, nil)

	held, err := a.TryAcquire("slow")
	require.NoError(t, err)

	start := time.Now()
	_, err = a.Acquire(context.Background(), "waiter")
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.Less(t, time.Since(start), time.Second)

	go func() {
		time.Sleep(5 * time.Millisecond)
		held.Release()
	}()
	a.wait = time.Second
	lease, err := a.Acquire(context.Background(), "waiter")
	require.NoError(t, err)
	lease.Release()
}

func TestArbiter_WithReleasesOnError(t *testing.T) {
	a := NewArbiter(64, 0, nil)
	boom := errors.New("boom")

	err := a.With(context.Background(), "enc", func(s *Staging) error {
		_, _ = s.WriteString("partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, a.Holder())

	err = a.With(context.Background(), "enc", func(s *Staging) error {
		assert.Zero(t, s.Len(), "a new lease starts empty")
		return nil
	})
	assert.NoError(t, err)
}

func TestArbiter_WritesNeverInterleave(t *testing.T) {
	a := NewArbiter(1024, time.Second, nil)

	var wg sync.WaitGroup
	results := make(chan string, 2)
	for _, word := range []string{"aaaaaaaa", "bbbbbbbb"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.With(context.Background(), word, func(s *Staging) error {
				for i := range len(word) {
					_ = s.WriteByte(word[i])
					time.Sleep(time.Millisecond)
				}
				results <- string(s.Bytes())
				return nil
			})
		}()
	}
	wg.Wait()
	close(results)

	for r := range results {
		assert.Contains(t, []string{"aaaaaaaa", "bbbbbbbb"}, r)
	}
}

func TestStaging_Capacity(t *testing.T) {
	s := NewStaging(4)

	_, err := s.WriteString("abc")
	require.NoError(t, err)
	_, err = s.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrBufferFull)
	assert.Equal(t, "abc", string(s.Bytes()))

	require.NoError(t, s.WriteByte('d'))
	assert.ErrorIs(t, s.WriteByte('e'), ErrBufferFull)
	assert.Equal(t, 4, s.Cap())
}

func TestPaginate(t *testing.T) {
	p := Paginate(20, 8, 999)
	assert.Equal(t, Page{Index: 2, Max: 2, Start: 16, End: 20}, p)
	assert.Equal(t, Paginate(20, 8, 2), p)

	assert.Equal(t, Page{Index: 0, Max: 2, Start: 0, End: 8}, Paginate(20, 8, -3))
	assert.Equal(t, Page{Index: 0, Max: 0, Start: 0, End: 0}, Paginate(0, 8, 5))
	assert.Equal(t, Page{Index: 1, Max: 1, Start: 8, End: 16}, Paginate(16, 8, 1))
}

func TestSampleStride(t *testing.T) {
	assert.Equal(t, 1, SampleStride(30))
	assert.Equal(t, 1, SampleStride(180))
	assert.Equal(t, 2, SampleStride(181))
	assert.Equal(t, 6, SampleStride(1000))
}

func TestWriteLiveLEDs(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLiveLEDs(&buf, 400, func(i int) [3]uint8 {
		return [3]uint8{uint8(i), 0, 0xFF}
	})
	require.NoError(t, err)

	var doc struct {
		LEDs []string `json:"leds"`
		N    int      `json:"n"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 3, doc.N)
	assert.Len(t, doc.LEDs, 134)
	assert.Equal(t, "0000FF", doc.LEDs[0])
	assert.Equal(t, "0300FF", doc.LEDs[1])
}

func TestWriteLiveLEDs_IntoFullStaging(t *testing.T) {
	s := NewStaging(16)
	err := WriteLiveLEDs(s, 10, func(int) [3]uint8 { return [3]uint8{} })
	assert.ErrorIs(t, err, ErrBufferFull)
}
