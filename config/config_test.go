package config

import (
	"testing"

	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T) Config {
	t.Helper()
	var cfg Config
	require.NoError(t, env.Parse(&cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg := parse(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0, cfg.AttendanceToleranceMinutes)
	assert.False(t, cfg.AttendanceRequireEnrollment)
	assert.Equal(t, DuplicatePolicyRetryable, cfg.AttendanceDuplicatePolicy)
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	assert.Empty(t, cfg.GetReplicaDSNs())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "negative tolerance",
			env:     map[string]string{"JWT_SECRET": "s", "ATTENDANCE_TOLERANCE_MINUTES": "-5"},
			wantErr: "ATTENDANCE_TOLERANCE_MINUTES",
		},
		{
			name:    "unknown duplicate policy",
			env:     map[string]string{"JWT_SECRET": "s", "ATTENDANCE_DUPLICATE_POLICY": "lenient"},
			wantErr: "ATTENDANCE_DUPLICATE_POLICY",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"JWT_SECRET": "s", "TIMEZONE": "Mars/Olympus"},
			wantErr: "TIMEZONE",
		},
		{
			name:    "short admin password",
			env:     map[string]string{"JWT_SECRET": "s", "ADMIN_IDENTITY_NUMBER": "admin", "ADMIN_PASSWORD": "123"},
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name: "strict policy is normalized",
			env:  map[string]string{"JWT_SECRET": "s", "ATTENDANCE_DUPLICATE_POLICY": " STRICT "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := parse(t)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReplicaDSNs(t *testing.T) {
	cfg := Config{
		PostgreSQLPort:         "5432",
		PostgreSQLUser:         "u",
		PostgreSQLPassword:     "p",
		PostgreSQLDatabase:     "d",
		PostgreSQLSSLMode:      "disable",
		PostgreSQLSchema:       "public",
		PostgreSQLReplicaHosts: []string{"replica-1:6432", " replica-2 ", ""},
	}

	dsns := cfg.GetReplicaDSNs()
	require.Len(t, dsns, 2)
	assert.Contains(t, dsns[0], "host=replica-1 port=6432")
	assert.Contains(t, dsns[1], "host=replica-2 port=5432")
}
