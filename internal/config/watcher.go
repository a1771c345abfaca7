package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 监听配置文件变更,只有日志级别与复核开关支持热更新
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	v         *viper.Viper
	listeners []func(old, updated *Config)
	stopped   bool
	logger    *logrus.Logger
}

// NewWatcher 创建配置监听器
func NewWatcher(cfg *Config, configPath string, logger *logrus.Logger) *Watcher {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Watcher{current: cfg, v: v, logger: logger}
}

// Subscribe 注册变更回调,回调收到旧配置与新配置
func (w *Watcher) Subscribe(fn func(old, updated *Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start 开始监听
func (w *Watcher) Start() error {
	if err := w.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	w.v.OnConfigChange(w.reload)
	w.v.WatchConfig()
	return nil
}

func (w *Watcher) reload(e fsnotify.Event) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	var next Config
	if err := w.v.Unmarshal(&next); err != nil {
		w.logger.WithError(err).WithField("file", e.Name).Warn("config reload failed")
		return
	}

	w.mu.Lock()
	old := w.current
	merged := *old
	merged.Log.Level = next.Log.Level
	merged.Review = next.Review
	merged.RateLimit = next.RateLimit
	w.current = &merged
	listeners := append([]func(old, updated *Config){}, w.listeners...)
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"file":      e.Name,
		"log_level": merged.Log.Level,
		"read_only": merged.Review.ReadOnly,
	}).Info("config reloaded")

	for _, fn := range listeners {
		fn(old, &merged)
	}
}

// Stop 停止监听
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

// Current 当前配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
