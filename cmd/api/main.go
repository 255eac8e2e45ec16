package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/hugohenrick/pdv-sync/internal/config"
	"github.com/hugohenrick/pdv-sync/internal/domain/user"
)

func main() {
	// Carregar variáveis de ambiente
	if loaded, err := config.LoadDotEnv(); err != nil {
		log.Printf("Aviso: %v", err)
	} else if !loaded {
		log.Printf("Aviso: Arquivo .env não encontrado")
	}

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}

	// Emissão de token para provisionar terminais e operadores
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar aplicação
	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Erro ao iniciar aplicação: %v", err)
	}
	defer app.Close()

	// Iniciar o servidor
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Erro no servidor: %v", err)
	}
}

func issueToken(cfg *config.ServerConfig, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("uso: api token <user_id> <nome> <admin|editor|viewer>")
	}

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return err
	}
	if jwtService == nil {
		return fmt.Errorf("JWT_SECRET_KEY não configurado")
	}

	role := user.Role(args[2])
	if !role.Valid() {
		return user.ErrInvalidRole
	}

	token, err := jwtService.GenerateToken(args[0], args[1], role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
