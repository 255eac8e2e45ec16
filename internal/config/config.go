// Package config carrega as configurações do servidor e do terminal a partir do ambiente.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/hugohenrick/pdv-sync/internal/infrastructure/database"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/joho/godotenv"
)

// Drivers de armazenamento do servidor
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// ServerConfig contém as configurações da API do servidor
type ServerConfig struct {
	Address          string        `env:"ADDRESS" envDefault:":8080"`
	BasePath         string        `env:"BASE_PATH" envDefault:"/api/v1"`
	GinMode          string        `env:"GIN_MODE" envDefault:"release"`
	JWTSecretKey     string        `env:"JWT_SECRET_KEY"`
	JWTExpiration    time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	BusinessTimezone string        `env:"BUSINESS_TIMEZONE" envDefault:"America/Sao_Paulo"`
	StorageDriver    string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Log      logger.Config
	Database database.PostgresConfig
}

// TerminalConfig contém as configurações do terminal de caixa
type TerminalConfig struct {
	ServerURL     string        `env:"PDV_SERVER_URL" envDefault:"http://localhost:8080"`
	APIPrefix     string        `env:"PDV_API_PREFIX" envDefault:"/api/v1"`
	Token         string        `env:"PDV_TOKEN"`
	DataDir       string        `env:"PDV_DATA_DIR" envDefault:"./data/pdv"`
	ListenAddress string        `env:"PDV_LISTEN_ADDRESS" envDefault:"127.0.0.1:8090"`
	ShowCosts     bool          `env:"PDV_SHOW_COSTS" envDefault:"false"`
	CallTimeout   time.Duration `env:"PDV_CALL_TIMEOUT" envDefault:"10s"`
	MaxRetries    uint64        `env:"PDV_MAX_RETRIES" envDefault:"2"`
	ProbeInterval time.Duration `env:"PDV_PROBE_INTERVAL" envDefault:"5s"`
	ProbeTimeout  time.Duration `env:"PDV_PROBE_TIMEOUT" envDefault:"3s"`
	SyncInterval  time.Duration `env:"PDV_SYNC_INTERVAL" envDefault:"30s"`
	Retention     time.Duration `env:"PDV_RETENTION" envDefault:"168h"`

	Log logger.Config
}

// LoadDotEnv carrega o arquivo .env, se existir. A ausência do arquivo não é erro.
func LoadDotEnv(files ...string) (bool, error) {
	err := godotenv.Load(files...)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("erro ao ler .env: %w", err)
	}
	return true, nil
}

// LoadServer lê a configuração do servidor das variáveis de ambiente
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("erro ao ler configuração do servidor: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifica valores que o parser não cobre
func (c *ServerConfig) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER inválido: %q", c.StorageDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location retorna o fuso horário usado nos relatórios diários
func (c *ServerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE inválido %q: %w", c.BusinessTimezone, err)
	}
	return loc, nil
}

// LoadTerminal lê a configuração do terminal das variáveis de ambiente
func LoadTerminal() (*TerminalConfig, error) {
	cfg := &TerminalConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("erro ao ler configuração do terminal: %w", err)
	}
	if cfg.ServerURL == "" {
		return nil, errors.New("PDV_SERVER_URL é obrigatório")
	}
	return cfg, nil
}
