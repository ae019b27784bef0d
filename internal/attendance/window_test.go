package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	w, err := NewWindow(0)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), w.Tolerance)

	w, err = NewWindow(5)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, w.Tolerance)

	_, err = NewWindow(-1)
	assert.Error(t, err)
}

func TestWindowIsActive(t *testing.T) {
	sc := testSchedule()
	strict := Window{}
	lenient := Window{Tolerance: 5 * time.Minute}

	assert.True(t, strict.IsActive(start, sc))
	assert.True(t, strict.IsActive(end, sc))
	assert.True(t, strict.IsActive(start.Add(time.Hour), sc))
	assert.False(t, strict.IsActive(start.Add(-time.Nanosecond), sc))
	assert.False(t, strict.IsActive(end.Add(time.Nanosecond), sc))

	assert.True(t, lenient.IsActive(start.Add(-5*time.Minute), sc))
	assert.True(t, lenient.IsActive(end.Add(5*time.Minute), sc))
	assert.False(t, lenient.IsActive(end.Add(5*time.Minute+time.Second), sc))

	// 不同时区表示的同一时刻
	assert.True(t, strict.IsActive(start.UTC(), sc))

	assert.False(t, strict.IsActive(start, nil))
}
