package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"digitbot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TickSource — то, что нужно инжестору от фида.
type TickSource interface {
	Connect(ctx context.Context) error
	Authorize(ctx context.Context, token string) error
	Subscribe(ctx context.Context, symbol string) error
	// Next блокируется до следующего тика; любая ошибка — повод переподключиться.
	Next(ctx context.Context) (models.Tick, error)
	Close() error
}

// FeedError — транзиентная ошибка фида: обрыв, битый кадр, ошибка протокола.
type FeedError struct {
	Op   string
	Code string // код из ответа Deriv, если был
	Err  error
}

func (e *FeedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("feed %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("feed %s: %v", e.Op, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

type ClientConfig struct {
	URL          string
	AppID        string
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

// Client — Deriv WebSocket API v3.
type Client struct {
	cfg      ClientConfig
	wsDialer *websocket.Dialer

	wmu      sync.Mutex // gorilla: один писатель за раз (ping + запросы)
	conn     *websocket.Conn
	stopPing chan struct{}
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tickBody struct {
	Symbol  string           `json:"symbol"`
	Quote   *decimal.Decimal `json:"quote"` // nil — котировки нет или null
	PipSize *int             `json:"pip_size"`
	Epoch   int64            `json:"epoch"`
}

// frame — всё, что нас интересует из входящих сообщений.
type frame struct {
	MsgType string    `json:"msg_type"`
	Error   *apiError `json:"error"`
	Tick    *tickBody `json:"tick"`
}

func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return &FeedError{Op: "connect", Err: errors.Wrap(err, "parse url")}
	}
	q := u.Query()
	q.Set("app_id", c.cfg.AppID)
	u.RawQuery = q.Encode()

	conn, _, err := c.wsDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return &FeedError{Op: "connect", Err: errors.Wrap(err, "dial deriv")}
	}

	c.wmu.Lock()
	c.conn = conn
	c.stopPing = make(chan struct{})
	stop := c.stopPing
	c.wmu.Unlock()

	if c.cfg.PingInterval > 0 {
		go c.pingLoop(conn, stop)
	}
	return nil
}

// pingLoop — прикладной {"ping":1}, без него Deriv закрывает простаивающее соединение.
func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(c.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := c.write(conn, map[string]any{"ping": 1}); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(conn *websocket.Conn, v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return conn.WriteJSON(v)
}

func (c *Client) current() (*websocket.Conn, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil {
		return nil, errors.New("not connected")
	}
	return c.conn, nil
}

func (c *Client) Authorize(ctx context.Context, token string) error {
	conn, err := c.current()
	if err != nil {
		return &FeedError{Op: "authorize", Err: err}
	}
	if err := c.write(conn, map[string]any{"authorize": token}); err != nil {
		return &FeedError{Op: "authorize", Err: errors.Wrap(err, "write")}
	}

	// ждём ответ authorize, остальное пропускаем
	for {
		f, err := c.readFrame(conn)
		if err != nil {
			return &FeedError{Op: "authorize", Err: err}
		}
		if f.Error != nil {
			return &FeedError{Op: "authorize", Code: f.Error.Code, Err: errors.New(f.Error.Message)}
		}
		if f.MsgType == "authorize" {
			return nil
		}
	}
}

func (c *Client) Subscribe(ctx context.Context, symbol string) error {
	conn, err := c.current()
	if err != nil {
		return &FeedError{Op: "subscribe", Err: err}
	}
	if err := c.write(conn, map[string]any{"ticks": symbol, "subscribe": 1}); err != nil {
		return &FeedError{Op: "subscribe", Err: errors.Wrapf(err, "write %s", symbol)}
	}
	return nil
}

func (c *Client) Next(ctx context.Context) (models.Tick, error) {
	conn, err := c.current()
	if err != nil {
		return models.Tick{}, &FeedError{Op: "receive", Err: err}
	}
	for {
		if err := ctx.Err(); err != nil {
			return models.Tick{}, err
		}
		f, err := c.readFrame(conn)
		if err != nil {
			return models.Tick{}, &FeedError{Op: "receive", Err: err}
		}
		if f.Error != nil {
			return models.Tick{}, &FeedError{Op: "receive", Code: f.Error.Code, Err: errors.New(f.Error.Message)}
		}
		if f.MsgType != "tick" || f.Tick == nil {
			continue // ping, ответы на подписку и прочее
		}
		if f.Tick.Quote == nil {
			// без котировки нет цифры; нулём подменять нельзя
			return models.Tick{}, &FeedError{Op: "receive", Err: errors.Errorf("tick %s without quote", f.Tick.Symbol)}
		}

		tick := models.Tick{
			Symbol:  f.Tick.Symbol,
			Quote:   *f.Tick.Quote,
			PipSize: -1,
			Epoch:   time.Unix(f.Tick.Epoch, 0),
		}
		if f.Tick.PipSize != nil {
			tick.PipSize = *f.Tick.PipSize
		}
		return tick, nil
	}
}

func (c *Client) readFrame(conn *websocket.Conn) (frame, error) {
	if c.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return frame{}, errors.Wrap(err, "read")
	}
	var f frame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return frame{}, errors.Wrap(err, "decode frame")
	}
	return f, nil
}

// Close можно звать повторно и из другой горутины: рвёт блокирующий Next.
func (c *Client) Close() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
