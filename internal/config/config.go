// config предоставляет структуру конфигурации клиента и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация клиента.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Callback CallbackConfig `yaml:"callback"`
	Store    StoreConfig    `yaml:"store"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// APIConfig — адрес REST-бэкенда галереи.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"API_BASE_URL" env-default:"https://artlab.pythonanywhere.com"`
}

// AuthConfig — параметры жизненного цикла сессии.
//
// Замечания:
//   - RenewalInterval меньше серверного TTL access-токена (~5m), чтобы токен
//     обновлялся до истечения;
//   - AnonymousProfileID — идентификатор предсозданного анонимного профиля
//     на бэкенде; осознанно вынесен в конфигурацию, а не зашит в код.
type AuthConfig struct {
	LoginURL           string        `yaml:"login_url" env:"LOGIN_URL" env-default:"https://accounts.dovuchcha.uz/login"`
	TokenURL           string        `yaml:"token_url" env:"TOKEN_URL" env-default:"https://behzod.pythonanywhere.com/api/token/refresh/"`
	RenewalInterval    time.Duration `yaml:"renewal_interval" env:"RENEWAL_INTERVAL" env-default:"4m"`
	AnonymousProfileID int64         `yaml:"anonymous_profile_id" env:"ANONYMOUS_PROFILE_ID" env-default:"1"`
}

// CallbackConfig — сетевые настройки локального callback-листенера,
// принимающего редирект со страницы входа.
type CallbackConfig struct {
	Host string `yaml:"host" env:"CALLBACK_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"CALLBACK_PORT" env-default:"8765"`
}

// Addr возвращает адрес в формате host:port.
func (c CallbackConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// StoreConfig — размещение файла с сохранёнными учётными данными.
type StoreConfig struct {
	CredentialsPath string `yaml:"credentials_path" env:"CREDENTIALS_PATH" env-default:""`
}

// Path возвращает путь к файлу учётных данных; при пустой настройке —
// artlab/credentials.json в пользовательской конфиг-директории.
func (s StoreConfig) Path() (string, error) {
	if s.CredentialsPath != "" {
		return s.CredentialsPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}

	return filepath.Join(dir, "artlab", "credentials.json"), nil
}

// TimeoutConfig — таймауты исходящих запросов.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
