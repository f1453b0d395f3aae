package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
mode: release
database:
  host: db.internal
  user: attend
  dbname: attendance
auth:
  jwt_secret: s3cret
`))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "5 0 * * *", cfg.Sweep.Schedule)
	assert.Nil(t, cfg.Policy.LocalOffsetMinutes)
	assert.Contains(t, cfg.DB.DSN(), "attend:@tcp(db.internal:3306)/attendance?parseTime=true")
}

func TestParseConfig_PolicyAndDurations(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
mode: dev
auth:
  jwt_secret: x
  token_ttl: 8h
policy:
  day_rate: 1200
  overtime_rate: 0
  shift_start: "07:00"
  local_offset_minutes: 0
sweep:
  schedule: "0 1 * * *"
`))
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 1200.0, cfg.Policy.DayRate)
	require.NotNil(t, cfg.Policy.OvertimeRate)
	assert.Equal(t, 0.0, *cfg.Policy.OvertimeRate)
	require.NotNil(t, cfg.Policy.LocalOffsetMinutes)
	assert.Equal(t, 0, *cfg.Policy.LocalOffsetMinutes)
	assert.Equal(t, "07:00", cfg.Policy.ShiftStart)
	assert.Equal(t, "0 1 * * *", cfg.Sweep.Schedule)
}

func TestParseConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("GEOATTEND_JWT_SECRET", "from-env")
	t.Setenv("GEOATTEND_DB_PASSWORD", "pw")
	cfg, err := ParseConfig([]byte("mode: dev\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "pw", cfg.DB.Password)
}

func TestParseConfig_Rejects(t *testing.T) {
	_, err := ParseConfig([]byte("mode: staging\nauth:\n  jwt_secret: x\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("mode: dev\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("mode: [dev\n"))
	assert.Error(t, err)
}
