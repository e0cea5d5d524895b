package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store JSON 文件配置存储。
// 所有读写都经过同一把锁，Update 的"改副本 -> 落盘 -> 替换内存"流程保证
// 落盘失败时内存快照保持原样，持久化状态与内存状态不会分叉。
type Store struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// Open 加载配置文件；文件不存在时写入默认配置
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.cfg = DefaultConfig()
		if err := s.save(s.cfg); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.APIKeys == nil {
		cfg.APIKeys = []APIKey{}
	}
	if cfg.ModelSizes == nil {
		cfg.ModelSizes = map[string]ModelSize{}
	}
	s.cfg = cfg
	return s, nil
}

// View 在锁内读取快照，fn 不得修改传入的 Config
func (s *Store) View(fn func(cfg *Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cfg)
}

// Update 在锁内修改快照副本并落盘。
// fn 返回错误或落盘失败时不做任何变更，锁覆盖完整的"改 + 存"临界区。
func (s *Store) Update(fn func(cfg *Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	s.cfg = next
	return nil
}

// save 先写临时文件再 rename，避免写一半的快照
func (s *Store) save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".ui-config-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
