package logger

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap/zapcore"

    "github.com/iliyamo/hotel-reservation/internal/config"
)

func TestParseLevel(t *testing.T) {
    assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
    assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
    assert.Equal(t, zapcore.InfoLevel, parseLevel("chatty"))
}

func TestInitWritesFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "app.log")
    l := Init(config.LoggerConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
    t.Cleanup(func() { Set(nil) })

    L().Info("reservation admitted", ReservationID(7), RoomID(12), Outcome("admitted"))
    require.NoError(t, l.Sync())

    data, err := os.ReadFile(path)
    require.NoError(t, err)
    assert.Contains(t, string(data), `"reservation_id":7`)
    assert.Contains(t, string(data), `"outcome":"admitted"`)
}

func TestLBeforeInitIsNop(t *testing.T) {
    Set(nil)
    assert.NotPanics(t, func() { L().Info("ignored") })
}
