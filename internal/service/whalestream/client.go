package whalestream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"SmartFlow/internal/domain/models"
	drepo "SmartFlow/internal/domain/repository"
)

// Client implements a WhaleStream backed by a whale-alert style
// WebSocket feed.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	minValueUSD    float64
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a whale transfer stream client. Non-positive intervals
// fall back to safe values so the ping ticker never gets zero.
func New(apiKey, websocketURL string, symbols []string, minValueUSD float64, reconnectDelay, pingInterval time.Duration) drepo.WhaleStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		minValueUSD:    minValueUSD,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?api_key=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("whalestream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("whalestream: connected")
	return nil
}

// Subscribe requests transfer alerts for the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("whalestream not connected")
	}
	msg := map[string]interface{}{
		"type":          "subscribe_alerts",
		"blockchains":   c.symbols,
		"min_value_usd": c.minValueUSD,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe alerts: %w", err)
	}
	log.Printf("whalestream: subscribed %s", strings.Join(c.symbols, ","))
	return nil
}

type wsAlert struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	AmountUSD float64 `json:"amount_usd"`
	From      wsParty `json:"from"`
	To        wsParty `json:"to"`
	Hash      string  `json:"hash"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}

type wsParty struct {
	OwnerType string `json:"owner_type"`
}

// Read streams transfer events and errors. Non-alert frames are
// ignored; channel backpressure drops transfers rather than stalling
// the socket.
func (c *Client) Read(ctx context.Context) (<-chan *models.WhaleTransfer, <-chan error) {
	transfers := make(chan *models.WhaleTransfer, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(transfers)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("whalestream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("whalestream read: %w", err)
					return
				}
				var a wsAlert
				if err := json.Unmarshal(b, &a); err != nil {
					// ignore non-alert frames
					continue
				}
				if a.Type != "alert" || a.Symbol == "" {
					continue
				}
				t := &models.WhaleTransfer{
					Symbol:       a.Symbol,
					AmountUSD:    a.AmountUSD,
					FromExchange: a.From.OwnerType == "exchange",
					ToExchange:   a.To.OwnerType == "exchange",
					TxHash:       a.Hash,
					Timestamp:    time.Unix(a.Timestamp, 0),
				}
				select {
				case transfers <- t:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return transfers, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
