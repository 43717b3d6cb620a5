package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Session 一个浏览上下文：目录加载器、抽屉开关、最后访问时间
// 购物车随会话创建而开启，随会话丢弃而关闭
type Session struct {
	ID     string
	Loader *catalogapp.Loader

	mu         sync.Mutex
	drawerOpen bool
	lastSeen   time.Time
}

// DrawerOpen 抽屉是否打开
func (s *Session) DrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}

// SetDrawerOpen 打开/关闭抽屉，与购物车和加载状态无关
func (s *Session) SetDrawerOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawerOpen = open
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionRecorder 记录会话数量（指标）
type SessionRecorder interface {
	SetActiveSessions(n int)
}

// LoaderFactory 为新会话创建目录加载器
type LoaderFactory interface {
	NewLoader() *catalogapp.Loader
}

// CartLifecycle 购物车生命周期与会话一致
type CartLifecycle interface {
	OpenCart(ctx context.Context, sessionID string) error
	DiscardCart(ctx context.Context, sessionID string) error
}

// RegistryConfig 会话注册表配置
type RegistryConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Registry 会话注册表
type Registry struct {
	loaders  LoaderFactory
	carts    CartLifecycle
	cfg      RegistryConfig
	recorder SessionRecorder
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry 创建会话注册表，recorder 可为 nil
func NewRegistry(loaders LoaderFactory, carts CartLifecycle, cfg RegistryConfig, recorder SessionRecorder) *Registry {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Registry{
		loaders:  loaders,
		carts:    carts,
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Resolve 返回 id 对应的会话；id 为空或已过期时创建新会话（新 ID）
// 会话首次被使用时启动目录加载
func (r *Registry) Resolve(ctx context.Context, id string) (sess *Session, created bool) {
	now := r.now()

	if id != "" {
		r.mu.RLock()
		sess = r.sessions[id]
		r.mu.RUnlock()
		if sess != nil {
			sess.touch(now)
			return sess, false
		}
	}

	sess = &Session{
		ID:       uuid.New().String(),
		Loader:   r.loaders.NewLoader(),
		lastSeen: now,
	}
	if err := r.carts.OpenCart(ctx, sess.ID); err != nil {
		logger.Error(ctx, "Failed to open cart", "session_id", sess.ID, "error", err)
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	n := len(r.sessions)
	r.mu.Unlock()

	r.reportSize(n)
	sess.Loader.Load(ctx)
	logger.Debug(ctx, "Session created", "session_id", sess.ID)
	return sess, true
}

// Get 查找已存在的会话
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len 当前会话数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep 丢弃空闲超过 IdleTimeout 的会话及其购物车，返回丢弃数量
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.now()

	r.mu.Lock()
	var expired []string
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTimeout {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, id := range expired {
		if err := r.carts.DiscardCart(ctx, id); err != nil {
			logger.Warn(ctx, "Failed to discard cart", "session_id", id, "error", err)
		}
	}
	if len(expired) > 0 {
		logger.Info(ctx, "Expired sessions discarded", "count", len(expired), "remaining", n)
	}
	r.reportSize(n)
	return len(expired)
}

// Start 运行清理协程直到 ctx 结束
func (r *Registry) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	logger.Info(ctx, "Session janitor started", "idle_timeout", r.cfg.IdleTimeout, "interval", r.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.WithoutCancel(ctx), "Session janitor stopped")
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) reportSize(n int) {
	if r.recorder != nil {
		r.recorder.SetActiveSessions(n)
	}
}
