package config

// Тесты конфигурации:
//  - загрузка по явному пути (все значения из YAML);
//  - минимальный YAML + дефолты;
//  - overlay ENV поверх YAML;
//  - загрузка только из ENV (без файла);
//  - ошибка на битом YAML и несуществующем пути;
//  - StoreConfig.Path: явное значение и дефолт в пользовательской директории.

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Вспомогательные хелперы.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

// Полный корректный YAML с заданными значениями (не зависящими от дефолтов).
const sampleYAML = `
env: "prod"
api:
  base_url: "https://gallery.example.org"
auth:
  login_url: "https://accounts.example.org/login"
  token_url: "https://accounts.example.org/api/token/refresh/"
  renewal_interval: "2m"
  anonymous_profile_id: 7
callback:
  host: "127.0.0.1"
  port: "9001"
store:
  credentials_path: "/tmp/creds.json"
timeouts:
  service: "3s"
`

// Минимально валидный YAML — всё из дефолтов.
const minimalYAML = `
env: "local"
`

// Некорректный YAML — для проверки ошибок парсинга.
const brokenYAML = `
auth:
  login_url: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://gallery.example.org", cfg.API.BaseURL)

	require.Equal(t, "https://accounts.example.org/login", cfg.Auth.LoginURL)
	require.Equal(t, "https://accounts.example.org/api/token/refresh/", cfg.Auth.TokenURL)
	require.Equal(t, 2*time.Minute, cfg.Auth.RenewalInterval)
	require.Equal(t, int64(7), cfg.Auth.AnonymousProfileID)

	require.Equal(t, "127.0.0.1:9001", cfg.Callback.Addr())
	require.Equal(t, "/tmp/creds.json", cfg.Store.CredentialsPath)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Service)
}

func TestLoad_MinimalYAML_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Env)
	require.Equal(t, "https://artlab.pythonanywhere.com", cfg.API.BaseURL)
	require.Equal(t, "https://accounts.dovuchcha.uz/login", cfg.Auth.LoginURL)
	require.Equal(t, 4*time.Minute, cfg.Auth.RenewalInterval)
	require.Equal(t, int64(1), cfg.Auth.AnonymousProfileID)
	require.Equal(t, "127.0.0.1:8765", cfg.Callback.Addr())
	require.Equal(t, 5*time.Second, cfg.Timeouts.Service)
}

func TestLoad_EnvOverlay(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("RENEWAL_INTERVAL", "90s")
	t.Setenv("ANONYMOUS_PROFILE_ID", "42")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, 90*time.Second, cfg.Auth.RenewalInterval)
	require.Equal(t, int64(42), cfg.Auth.AnonymousProfileID)
	// Значения без ENV-переопределения остаются из YAML.
	require.Equal(t, "https://gallery.example.org", cfg.API.BaseURL)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://env-only.example.org")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://env-only.example.org", cfg.API.BaseURL)
}

func TestLoad_BrokenYAML_Error(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoad_MissingExplicitPath_Error(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestStoreConfig_Path(t *testing.T) {
	explicit := StoreConfig{CredentialsPath: "/tmp/x.json"}
	p, err := explicit.Path()
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.json", p)

	p, err = StoreConfig{}.Path()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("artlab", "credentials.json"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
}
