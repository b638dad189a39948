package eeprom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAT24 models the chip's address pointer and memory array.
type fakeAT24 struct {
	mem    [256]byte
	writes int
	err    error
}

func (f *fakeAT24) Write(p []byte) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.mem[p[0]] = p[1]
	return nil
}

func (f *fakeAT24) WriteRead(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	r[0] = f.mem[w[0]]
	return nil
}

func newTestAT24(t *testing.T, dev *fakeAT24) (*AT24, *[]time.Duration) {
	t.Helper()
	e, err := newAT24(dev, 0)
	require.NoError(t, err)
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	return e, &slept
}

func TestAT24_PutGet(t *testing.T) {
	dev := &fakeAT24{}
	for i := range dev.mem {
		dev.mem[i] = Erased
	}
	e, slept := newTestAT24(t, dev)

	v, err := e.Get(1)
	require.NoError(t, err)
	assert.Equal(t, byte(Erased), v)

	require.NoError(t, e.Put(1, 130))
	v, err = e.Get(1)
	require.NoError(t, err)
	assert.Equal(t, byte(130), v)
	assert.Equal(t, []time.Duration{writeCycle}, *slept)

	require.NoError(t, e.Put(1, 130))
	assert.Equal(t, 1, dev.writes, "unchanged value must not wear the cell")
}

func TestAT24_Errors(t *testing.T) {
	boom := errors.New("nack")
	e, _ := newTestAT24(t, &fakeAT24{err: boom})

	_, err := e.Get(0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, e.Put(0, 1), boom)

	_, err = e.Get(256)
	assert.ErrorIs(t, err, ErrAddress)
}

func TestAT24_SizeLimit(t *testing.T) {
	_, err := newAT24(&fakeAT24{}, 512)
	assert.Error(t, err)

	_, err = NewAT24(nil, 256)
	assert.Error(t, err)
}
