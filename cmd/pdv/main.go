package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hugohenrick/pdv-sync/internal/config"
)

func main() {
	// Carregar variáveis de ambiente
	if loaded, err := config.LoadDotEnv(); err != nil {
		log.Printf("Aviso: %v", err)
	} else if !loaded {
		log.Printf("Aviso: Arquivo .env não encontrado")
	}

	cfg, err := config.LoadTerminal()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Erro ao iniciar terminal: %v", err)
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Erro no terminal: %v", err)
	}
}
