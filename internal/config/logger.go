package config

// LoggerConfig drives internal/logger.  Output is "stdout", "file" or
// "both"; file output rotates through lumberjack.
type LoggerConfig struct {
    Level      string
    Format     string // json | console
    Output     string
    FilePath   string
    MaxSize    int // megabytes
    MaxBackups int
    MaxAge     int // days
    Compress   bool
}

func LoadLoggerConfig() LoggerConfig {
    return LoggerConfig{
        Level:      envStr("LOG_LEVEL", "info"),
        Format:     envStr("LOG_FORMAT", "json"),
        Output:     envStr("LOG_OUTPUT", "stdout"),
        FilePath:   envStr("LOG_FILE", "logs/app.log"),
        MaxSize:    envInt("LOG_MAX_SIZE_MB", 100),
        MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
        MaxAge:     envInt("LOG_MAX_AGE_DAYS", 30),
        Compress:   envBool("LOG_COMPRESS", true),
    }
}
