package providers

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type clientCache struct {
	mu      sync.RWMutex
	clients map[time.Duration]*http.Client
}

var cache = &clientCache{
	clients: make(map[time.Duration]*http.Client),
}

var dialer = &net.Dialer{
	Timeout:   30 * time.Second,
	KeepAlive: 30 * time.Second,
}

// GetClient returns an http.Client with the given overall timeout.
// Image generation calls are non-streaming, so a whole-request deadline
// is both safe and desirable; clients are cached per timeout value.
func GetClient(timeout time.Duration) *http.Client {
	cache.mu.RLock()
	if client, exists := cache.clients[timeout]; exists {
		cache.mu.RUnlock()
		return client
	}
	cache.mu.RUnlock()

	cache.mu.Lock()
	defer cache.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := cache.clients[timeout]; exists {
		return client
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	cache.clients[timeout] = client
	return client
}
