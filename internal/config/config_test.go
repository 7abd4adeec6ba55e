package config

import (
	"os"
	"path/filepath"
	"testing"

	"chatdesk-go/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate 切换到没有 .env 的临时目录，并清空会影响加载结果的环境变量。
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"JWT_SECRET", "DATABASE_DSN", "DATABASE_URL", "SERVER_PORT", "MINIO_ENABLED", "MINIO_ENDPOINT"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_MissingSecret(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_DSN", "sqlite://chat.db")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoad_InvalidDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"missing", ""},
		{"quoted", `"postgres://u:p@db:5432/chat"`},
		{"single quoted", `'mysql://u:p@tcp(db:3306)/chat'`},
		{"unknown scheme", "oracle://db/chat"},
		{"postgres without host", "postgres:///chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("DATABASE_DSN", tt.dsn)

			_, err := Load("")
			require.Error(t, err)
			assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
		})
	}
}

func TestLoad_DefaultsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/chat")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "postgres://u:p@db:5432/chat", cfg.Database.DSN)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.AccessTokenExpireHours)
	assert.Equal(t, DefaultIdentityPaths, cfg.Identity.Paths)
	assert.False(t, cfg.MinIO.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
jwt:
  secret: "file-secret"
database:
  dsn: "sqlite://file.db"
identity:
  paths: ["/chat/**"]
`), 0o600))
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "sqlite://file.db", cfg.Database.DSN)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"/chat/**"}, cfg.Identity.Paths)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\nDATABASE_DSN=sqlite://dotenv.db\n"), 0o600))
	// godotenv 不覆盖已存在的变量，先移除 isolate 设置的空值
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	require.NoError(t, os.Unsetenv("DATABASE_DSN"))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("DATABASE_DSN")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWT.Secret)
	assert.Equal(t, "sqlite://dotenv.db", cfg.Database.DSN)
}

func TestValidate_MinIORequiresEndpoint(t *testing.T) {
	cfg := Config{
		JWT:      JWTConfig{Secret: "s3cret"},
		Database: DatabaseConfig{DSN: "sqlite://chat.db"},
		MinIO:    MinIOConfig{Enabled: true, BucketName: "chatdesk"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestRead_SkipsValidation(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_DSN", `"postgres://u:p@db:5432/chat"`)

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Equal(t, `"postgres://u:p@db:5432/chat"`, cfg.Database.DSN)
	assert.Error(t, cfg.Validate())
}
