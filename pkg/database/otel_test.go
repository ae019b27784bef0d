package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "db.select", operationOf(" select * from attendances"))
	assert.Equal(t, "db.insert", operationOf("INSERT INTO attendances"))
	assert.Equal(t, "db.unknown", operationOf(""))
	assert.Equal(t, "db.query", operationOf("CREATE UNIQUE INDEX x"))
}

func TestSanitizeSQL(t *testing.T) {
	p := NewOTELPlugin(PluginConfig{MaxSQLLength: 80})

	out := p.sanitizeSQL("UPDATE users SET password_hash = 'abc' WHERE id = 1")
	assert.Contains(t, out, "password_hash='***'")
	assert.NotContains(t, out, "abc")

	long := p.sanitizeSQL(string(make([]byte, 200)))
	assert.Len(t, long, 83)
}
