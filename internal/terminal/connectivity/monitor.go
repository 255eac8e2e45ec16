// Package connectivity acompanha se o terminal consegue falar com o servidor.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/hugohenrick/pdv-sync/pkg/metrics"
	"github.com/looplab/fsm"
)

// Estados e eventos da máquina de conectividade
const (
	StateOnline  = "online"
	StateOffline = "offline"

	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// Probe verifica se o servidor está acessível
type Probe interface {
	Ping(ctx context.Context) error
}

// ProbeFunc adapta uma função para Probe
type ProbeFunc func(ctx context.Context) error

// Ping implementa Probe
func (f ProbeFunc) Ping(ctx context.Context) error { return f(ctx) }

// Monitor guarda o estado online/offline e avisa os interessados na reconexão
type Monitor struct {
	mu        sync.Mutex
	machine   *fsm.FSM
	listeners []func(ctx context.Context)

	probe        Probe
	interval     time.Duration
	probeTimeout time.Duration
	log          logger.Logger
}

// Option configura o monitor
type Option func(*Monitor)

// WithProbe define a verificação periódica usada por Run
func WithProbe(p Probe, interval, timeout time.Duration) Option {
	return func(m *Monitor) {
		m.probe = p
		m.interval = interval
		m.probeTimeout = timeout
	}
}

// WithLogger define o logger
func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

// NewMonitor cria o monitor no estado inicial informado
func NewMonitor(online bool, opts ...Option) *Monitor {
	initial := StateOffline
	if online {
		initial = StateOnline
	}

	m := &Monitor{
		interval:     15 * time.Second,
		probeTimeout: 5 * time.Second,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.machine = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventConnect, Src: []string{StateOffline}, Dst: StateOnline},
			{Name: EventDisconnect, Src: []string{StateOnline}, Dst: StateOffline},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.log.Info("Conectividade alterada", "de", e.Src, "para", e.Dst)
			},
		},
	)
	m.updateGauge(online)
	return m
}

// IsOnline indica se o terminal está conectado
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.Current() == StateOnline
}

// OnReconnect registra uma função chamada a cada transição offline → online
func (m *Monitor) OnReconnect(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Set aplica o sinal externo de conectividade.
// Retorna true se houve transição. Sinais repetidos são ignorados.
func (m *Monitor) Set(ctx context.Context, online bool) bool {
	event := EventDisconnect
	if online {
		event = EventConnect
	}

	m.mu.Lock()
	if !m.machine.Can(event) {
		m.mu.Unlock()
		return false
	}
	// O contexto do chamador não pode interromper a transição no meio
	if err := m.machine.Event(context.Background(), event); err != nil {
		m.mu.Unlock()
		m.log.Warn("Transição de conectividade recusada", "evento", event, "error", err)
		return false
	}
	listeners := append([]func(context.Context){}, m.listeners...)
	m.mu.Unlock()

	m.updateGauge(online)
	if online {
		for _, fn := range listeners {
			fn(ctx)
		}
	}
	return true
}

// Run executa a verificação periódica até o contexto ser cancelado
func (m *Monitor) Run(ctx context.Context) {
	if m.probe == nil {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := m.probe.Ping(probeCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.log.Debug("Servidor inacessível", "error", err)
	}
	m.Set(ctx, err == nil)
}

func (m *Monitor) updateGauge(online bool) {
	if online {
		metrics.Online.Set(1)
		return
	}
	metrics.Online.Set(0)
}
