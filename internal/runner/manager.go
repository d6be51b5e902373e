package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"digitbot/internal/models"
	strategy "digitbot/internal/modules/strategy/service"
	"digitbot/internal/notify"
	"digitbot/pkg/metrics"

	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrShutdown     = errors.New("manager is shut down")
)

// Authorizer — проверка, что токен был выдан (auth-реестр).
type Authorizer interface {
	IsAuthorized(ctx context.Context, token string) (bool, error)
}

// StrategyFactory отдаёт свежую стратегию по имени.
type StrategyFactory interface {
	New(name string) (strategy.Strategy, error)
}

type StopResult int

const (
	Stopped StopResult = iota
	NoActiveBot
)

func (r StopResult) String() string {
	if r == Stopped {
		return "Bot stopped"
	}
	return "No active bot"
}

// BotInfo — то, что отдаём наружу про активного бота. Токен маскируется.
type BotInfo struct {
	Token     string              `json:"token"`
	Strategy  models.StrategyName `json:"strategy"`
	State     string              `json:"state"`
	StartedAt time.Time           `json:"started_at"`
}

const minHistory = 2

type Options struct {
	Cadence    time.Duration
	MinHistory int
}

// Manager держит не больше одного бота на токен.
// mu защищает только карты, ожидание выхода цикла идёт под локом токена.
type Manager struct {
	mu     sync.Mutex
	bots   map[string]*Bot
	locks  map[string]*tokenLock
	closed bool

	auth    Authorizer
	factory StrategyFactory
	history Snapshotter
	sink    notify.SignalSink
	log     *zap.Logger
	opts    Options

	// циклы ботов живут дольше запроса, который их запустил
	base   context.Context
	cancel context.CancelFunc
}

func NewManager(auth Authorizer, factory StrategyFactory, h Snapshotter, sink notify.SignalSink, log *zap.Logger, opts Options) *Manager {
	if opts.Cadence <= 0 {
		opts.Cadence = time.Second
	}
	// меньше двух цифр стратегиям не отдаём
	if opts.MinHistory < minHistory {
		opts.MinHistory = minHistory
	}
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		bots:    make(map[string]*Bot),
		locks:   make(map[string]*tokenLock),
		auth:    auth,
		factory: factory,
		history: h,
		sink:    sink,
		log:     log.Named("runner"),
		opts:    opts,
		base:    base,
		cancel:  cancel,
	}
}

// Start запускает бота для токена. Если бот уже есть — сначала гасим его
// и ждём выхода цикла, потом стартуем новый со свежим состоянием стратегии.
func (m *Manager) Start(ctx context.Context, token, strategyName string) (*Bot, error) {
	ok, err := m.auth.IsAuthorized(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	stg, err := m.factory.New(strategyName)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		token:      token,
		strategy:   stg,
		history:    m.history,
		sink:       m.sink,
		cadence:    m.opts.Cadence,
		minHistory: m.opts.MinHistory,
		done:       make(chan struct{}),
	}
	bot.log = m.log.With(
		zap.String("token", mask(token)),
		zap.String("strategy", string(stg.Name())),
	)

	unlock := m.lockToken(token)
	defer unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrShutdown
	}
	old := m.bots[token]
	m.mu.Unlock()

	// старый бот может дописывать сигнал в синк; ждём его без общего лока
	if old != nil {
		old.stop()
		<-old.done
		old.log.Info("bot replaced")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrShutdown
	}
	bot.start(m.base)
	m.bots[token] = bot
	metrics.ActiveBots.Set(float64(len(m.bots)))

	bot.log.Info("bot started")
	return bot, nil
}

// Stop гасит бота токена. Отсутствие бота — не ошибка.
// Бот остаётся в карте, пока цикл не вышел: Start того же токена ждёт на локе токена.
func (m *Manager) Stop(token string) StopResult {
	unlock := m.lockToken(token)
	defer unlock()

	m.mu.Lock()
	bot, ok := m.bots[token]
	m.mu.Unlock()
	if !ok {
		return NoActiveBot
	}

	bot.stop()
	<-bot.done

	m.mu.Lock()
	if m.bots[token] == bot {
		delete(m.bots, token)
	}
	metrics.ActiveBots.Set(float64(len(m.bots)))
	m.mu.Unlock()

	bot.log.Info("bot stopped")
	return Stopped
}

type tokenLock struct {
	mu   sync.Mutex
	refs int
}

// lockToken упорядочивает Start/Stop одного токена. Запись удаляется, когда ждущих нет.
func (m *Manager) lockToken(token string) func() {
	m.mu.Lock()
	l, ok := m.locks[token]
	if !ok {
		l = &tokenLock{}
		m.locks[token] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, token)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) Get(token string) (*Bot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bots[token]
	return b, ok
}

func (m *Manager) Active() []BotInfo {
	m.mu.Lock()
	out := make([]BotInfo, 0, len(m.bots))
	for _, b := range m.bots {
		out = append(out, BotInfo{
			Token:     mask(b.token),
			Strategy:  b.Strategy(),
			State:     b.State().String(),
			StartedAt: b.StartedAt(),
		})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bots)
}

// Shutdown гасит всех и ждёт циклы (или ctx). Новые Start после этого отклоняются.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	bots := make([]*Bot, 0, len(m.bots))
	for token, b := range m.bots {
		bots = append(bots, b)
		delete(m.bots, token)
	}
	metrics.ActiveBots.Set(0)
	m.mu.Unlock()

	for _, b := range bots {
		b.stop()
	}
	m.cancel()

	for _, b := range bots {
		select {
		case <-b.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.log.Info("all bots stopped", zap.Int("count", len(bots)))
	return nil
}

func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
