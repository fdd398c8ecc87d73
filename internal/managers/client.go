package managers

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studyroom/internal/models"
)

// Client is the outbound leg of one live connection. All room state
// references it by SID only; the struct itself is owned by the
// Registry and vanishes on disconnect.
type Client struct {
	SID   string
	Token *models.TokenIdentity // set once at upgrade, nil for anonymous

	mu   sync.Mutex
	conn *websocket.Conn
	hook func(models.OutEvent)

	// Study-time accrual, guarded by the gateway's event lock.
	ledgerUID uint
	enteredAt time.Time
}

func NewClient(sid string, conn *websocket.Conn) *Client {
	return &Client{SID: sid, conn: conn}
}

// SetSendHook replaces the WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.OutEvent)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send delivers one event, best effort. Write errors are ignored; a
// broken connection surfaces through the read loop instead.
func (c *Client) Send(ev models.OutEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(ev)
		return
	}
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteJSON(ev)
}

// markEntered starts the study-time clock for an identified member.
// The first identified join wins; rejoining a room keeps the original
// entry time.
func (c *Client) markEntered(uid uint, now time.Time) {
	if c.ledgerUID != 0 || uid == 0 {
		return
	}
	c.ledgerUID = uid
	c.enteredAt = now
}

// studySpan reports the accrued span, if the clock ever started.
func (c *Client) studySpan(now time.Time) (uint, time.Duration, bool) {
	if c.ledgerUID == 0 {
		return 0, 0, false
	}
	return c.ledgerUID, now.Sub(c.enteredAt), true
}
