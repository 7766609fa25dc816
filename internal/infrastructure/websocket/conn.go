package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn 一条已建立的 websocket 连接
// ReadMessage 只会被一个 goroutine 调用；WriteMessage 可以并发调用
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens connections. Tests substitute an in-memory implementation.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

var errConnClosed = errors.New("websocket: connection closed")

// GorillaDialer dials with gorilla/websocket and keeps the connection alive with
// transport-level pings. A connection that stays silent past ReadTimeout is dropped.
type GorillaDialer struct {
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	WriteTimeout     time.Duration
}

// NewGorillaDialer 默认参数：握手 10s，读超时 60s，ping 25s
func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     25 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

func (d *GorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	cctx, cancel := context.WithTimeout(ctx, d.HandshakeTimeout)
	defer cancel()

	conn, _, err := gws.DefaultDialer.DialContext(cctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &gorillaConn{
		conn:         conn,
		readTimeout:  d.ReadTimeout,
		writeTimeout: d.WriteTimeout,
		done:         make(chan struct{}),
	}
	_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		return nil
	})
	if d.PingInterval > 0 {
		go c.pingLoop(d.PingInterval)
	}
	return c, nil
}

type gorillaConn struct {
	conn         *gws.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	// Upbit 推送 binary 帧，其余交易所是 text 帧，这里不区分
	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	return b, nil
}

func (c *gorillaConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(gws.TextMessage, data)
}

func (c *gorillaConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *gorillaConn) pingLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// WriteControl 可与其他方法并发调用
			if err := c.conn.WriteControl(gws.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Msg("ws ping failed")
				return
			}
		}
	}
}
