package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/hugohenrick/pdv-sync/internal/config"
	"github.com/hugohenrick/pdv-sync/internal/infrastructure/database"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
)

type migrationConfig struct {
	Log      logger.Config
	Database database.PostgresConfig
}

func main() {
	// Carregar variáveis de ambiente
	if loaded, err := config.LoadDotEnv(); err != nil {
		log.Printf("Aviso: %v", err)
	} else if !loaded {
		log.Printf("Aviso: Arquivo .env não encontrado")
	}

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "uso: migration [up|down|version]")
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	if err := run(command); err != nil {
		log.Fatalf("Erro ao executar migrações: %v", err)
	}
}

func run(command string) error {
	cfg := migrationConfig{}
	if err := env.Parse(&cfg); err != nil {
		return err
	}

	zl, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer zl.Sync()

	migrator, err := database.NewMigrator(&cfg.Database, zl)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return err
		}
		fmt.Printf("versão: %d (dirty=%t)\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("comando desconhecido %q", command)
	}
}
