package cui

import (
	"devicecui-go/errcode"
	"devicecui-go/x/logx"
)

// ClientID is an opaque handle returned by Open. Zero means "no owner".
type ClientID uint32

type client struct {
	id    ClientID
	name  string
	quota int
	lines []statusLine
}

// Open registers a client with room for statusLines status lines.
func (c *CUI) Open(name string, statusLines int) (ClientID, error) {
	if !c.isInitialized() {
		return 0, errcode.ModuleUninitialized
	}
	if statusLines < 0 {
		return 0, errcode.InvalidParam
	}
	c.clientMu.Lock()
	defer c.clientMu.Unlock()
	if len(c.clients) >= c.p.MaxClients {
		return 0, errcode.Wrap(errcode.Failure, "cui open", nil)
	}
	c.nextID++
	cl := &client{id: c.nextID, name: name}
	if c.p.Terminal != nil && statusLines > 0 {
		cl.quota = statusLines
		cl.lines = make([]statusLine, statusLines)
	}
	c.clients = append(c.clients, cl)
	logx.Infof("cui", "client %q opened id=%d lines=%d", name, cl.id, cl.quota)
	return cl.id, nil
}

// ClientName returns the display name given at Open.
func (c *CUI) ClientName(id ClientID) (string, bool) {
	cl := c.lookup(id)
	if cl == nil {
		return "", false
	}
	return cl.name, true
}

func (c *CUI) lookup(id ClientID) *client {
	if id == 0 {
		return nil
	}
	c.clientMu.Lock()
	defer c.clientMu.Unlock()
	for _, cl := range c.clients {
		if cl.id == id {
			return cl
		}
	}
	return nil
}

// clientIndex is the position of id in open order, or -1.
func (c *CUI) clientIndex(id ClientID) int {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()
	for i, cl := range c.clients {
		if cl.id == id {
			return i
		}
	}
	return -1
}
