package config

import (
	"github.com/JaimeStill/speakeval/pkg/database"
	"github.com/JaimeStill/speakeval/pkg/logging"
	"github.com/JaimeStill/speakeval/pkg/storage"
	"github.com/JaimeStill/speakeval/pkg/telemetry"
)

var databaseEnv = &database.Env{
	URL:             "DATABASE_URL",
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	SSLMode:         "DATABASE_SSLMODE",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
}

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
}

var storageEnv = &storage.Env{
	Backend:           "STORAGE_BACKEND",
	BasePath:          "STORAGE_BASE_PATH",
	MaxUploadSize:     "STORAGE_MAX_UPLOAD_SIZE",
	S3Bucket:          "STORAGE_S3_BUCKET",
	S3Region:          "STORAGE_S3_REGION",
	S3Endpoint:        "STORAGE_S3_ENDPOINT",
	S3AccessKeyID:     "STORAGE_S3_ACCESS_KEY_ID",
	S3SecretAccessKey: "STORAGE_S3_SECRET_ACCESS_KEY",
}

var tracingEnv = &telemetry.Env{
	Enabled:     "TRACING_ENABLED",
	Endpoint:    "TRACING_ENDPOINT",
	ServiceName: "TRACING_SERVICE_NAME",
	SampleRatio: "TRACING_SAMPLE_RATIO",
}
