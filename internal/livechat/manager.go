// Package livechat serves the chat session lifecycle to browsers over WebSocket.
package livechat

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Conn is the part of a WebSocket connection the manager needs.
type Conn interface {
	Close(code websocket.StatusCode, reason string) error
}

// ConnManager tracks the live connection of every (device, tab) pair.
type ConnManager struct {
	mu     sync.RWMutex
	active map[string]map[string]Conn
	logger *slog.Logger
}

// NewConnManager creates a new connection manager.
func NewConnManager(logger *slog.Logger) *ConnManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnManager{
		active: make(map[string]map[string]Conn),
		logger: logger,
	}
}

// GetActive returns the active connection for a device and tab.
func (m *ConnManager) GetActive(deviceID, tabID string) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[deviceID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds conn for a device/tab, closing any connection it replaces.
func (m *ConnManager) Register(deviceID, tabID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[deviceID]; !exists {
		m.active[deviceID] = make(map[string]Conn)
	}

	if existing, exists := m.active[deviceID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusPolicyViolation, "connection replaced")
	}

	m.active[deviceID][tabID] = conn
	m.logger.Info("Chat connection registered", "device_id", deviceID, "tab_id", tabID)
}

// Unregister removes conn if it is still the active one for the device/tab.
func (m *ConnManager) Unregister(deviceID, tabID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[deviceID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(m.active, deviceID)
			}
			m.logger.Info("Chat connection unregistered", "device_id", deviceID, "tab_id", tabID)
		}
	}
}

// Count returns the number of live connections.
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, tabs := range m.active {
		n += len(tabs)
	}
	return n
}

// CloseAll terminates every live connection. Used on shutdown.
func (m *ConnManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for deviceID, tabs := range m.active {
		for tabID, conn := range tabs {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			m.logger.Info("Chat connection closed", "device_id", deviceID, "tab_id", tabID)
		}
	}
	m.active = make(map[string]map[string]Conn)
}
