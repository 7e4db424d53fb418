package deribit

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/fd1az/options-arb/internal/apperror"
	"github.com/fd1az/options-arb/internal/wsconn"
)

// Session is one authenticated-or-not JSON-RPC connection. Sessions are
// scoped to a single leg and closed when it ends.
type Session interface {
	Call(ctx context.Context, method string, params, result any) error
	Close() error
}

// Dialer opens a Session to url.
type Dialer func(ctx context.Context, url string) (Session, error)

// wsSession speaks JSON-RPC 2.0 over a wsconn client. Responses are matched
// to requests by id.
type wsSession struct {
	client *wsconn.Client
	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan rpcResponse
	closed  bool
}

// DialWebSocket is the production Dialer.
func DialWebSocket(ctx context.Context, url string) (Session, error) {
	cfg := wsconn.DefaultConfig(url, "deribit")
	cfg.AutoReconnect = false
	cfg.PingInterval = 0

	client, err := wsconn.New(cfg)
	if err != nil {
		return nil, err
	}

	s := &wsSession{
		client:  client,
		pending: make(map[uint64]chan rpcResponse),
	}
	client.OnMessage(s.handleMessage)
	client.OnStateChange(func(state wsconn.State, _ error) {
		if state == wsconn.StateDisconnected || state == wsconn.StateClosed {
			s.failPending()
		}
	})

	if err := client.Connect(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *wsSession) Call(ctx context.Context, method string, params, result any) error {
	id := s.nextID.Add(1)
	ch := make(chan rpcResponse, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(method))
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := s.client.SendJSON(ctx, req); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return apperror.New(apperror.CodeServiceTimeout,
			apperror.WithContext(method),
			apperror.WithCause(ctx.Err()))
	case resp, ok := <-ch:
		if !ok {
			return apperror.New(apperror.CodeWebSocketClosed,
				apperror.WithContext(method+": connection lost before response"))
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil {
			return nil
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			return apperror.New(apperror.CodeMalformedResponse,
				apperror.WithContext(method+": empty result"))
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return apperror.New(apperror.CodeMalformedResponse,
				apperror.WithContext(method),
				apperror.WithCause(err))
		}
		return nil
	}
}

func (s *wsSession) handleMessage(_ context.Context, msg []byte) {
	var resp rpcResponse
	if err := json.Unmarshal(msg, &resp); err != nil || resp.ID == nil {
		// Notifications and heartbeats carry no id.
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.pending[*resp.ID]; ok {
		delete(s.pending, *resp.ID)
		ch <- resp
	}
}

func (s *wsSession) failPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

func (s *wsSession) Close() error {
	err := s.client.Close()
	s.failPending()
	return err
}
