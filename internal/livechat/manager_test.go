package livechat

import (
	"strconv"
	"testing"

	"github.com/coder/websocket"
)

type fakeConn struct {
	closed bool
	code   websocket.StatusCode
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.closed = true
	c.code = code
	return nil
}

func TestConnManager_Register(t *testing.T) {
	cm := NewConnManager(nil)
	conn := &fakeConn{}

	cm.Register("dev1", "tab-1", conn)

	if active := cm.GetActive("dev1", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if cm.Count() != 1 {
		t.Errorf("Expected 1 connection, got %d", cm.Count())
	}
}

func TestConnManager_Unregister(t *testing.T) {
	cm := NewConnManager(nil)
	conn := &fakeConn{}

	cm.Register("dev1", "tab-1", conn)
	cm.Unregister("dev1", "tab-1", conn)

	if active := cm.GetActive("dev1", "tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
	if cm.Count() != 0 {
		t.Errorf("Expected 0 connections, got %d", cm.Count())
	}
}

func TestConnManager_ReplaceClosesPrevious(t *testing.T) {
	cm := NewConnManager(nil)
	first := &fakeConn{}
	second := &fakeConn{}

	cm.Register("dev1", "tab-1", first)
	cm.Register("dev1", "tab-1", second)

	if !first.closed || first.code != websocket.StatusPolicyViolation {
		t.Errorf("Expected replaced connection to be closed, got closed=%v code=%v", first.closed, first.code)
	}
	if second.closed {
		t.Error("Replacement connection must stay open")
	}

	// A stale unregister from the replaced connection must not drop the new one.
	cm.Unregister("dev1", "tab-1", first)
	if active := cm.GetActive("dev1", "tab-1"); active != second {
		t.Errorf("Expected replacement to remain active, got %v", active)
	}
}

func TestConnManager_TabsAreIndependent(t *testing.T) {
	cm := NewConnManager(nil)
	conns := make([]*fakeConn, 3)
	for i := range conns {
		conns[i] = &fakeConn{}
		cm.Register("dev1", "tab-"+strconv.Itoa(i), conns[i])
	}

	cm.Unregister("dev1", "tab-0", conns[0])

	if cm.Count() != 2 {
		t.Errorf("Expected 2 connections, got %d", cm.Count())
	}
	for _, c := range conns {
		if c.closed {
			t.Error("No connection should have been closed")
		}
	}
}

func TestConnManager_CloseAll(t *testing.T) {
	cm := NewConnManager(nil)
	a, b := &fakeConn{}, &fakeConn{}
	cm.Register("dev1", "tab-1", a)
	cm.Register("dev2", "tab-1", b)

	cm.CloseAll()

	if !a.closed || !b.closed {
		t.Error("Expected all connections to be closed")
	}
	if a.code != websocket.StatusGoingAway {
		t.Errorf("Expected going away status, got %v", a.code)
	}
	if cm.Count() != 0 {
		t.Errorf("Expected 0 connections, got %d", cm.Count())
	}
}
