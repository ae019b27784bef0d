package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "geo:lock:attendance:1:2", Key("lock", "attendance:1:2"))
	assert.Equal(t, "geo:a:b", Key("a", "", "b"))
	assert.Equal(t, "geo", Key())
}
