package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

// errPoolClosed はClose後にAcquireした場合のエラーです。
var errPoolClosed = errors.New("onnx: session pool is closed")

// modelSession は1つの推論セッションと入出力テンソルの組です。
// 入出力テンソルはセッションに束縛されるため、同時に使えるのは1リクエストのみです。
type modelSession struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func (m *modelSession) run() error {
	if m.session == nil {
		return errors.New("onnx: session is not initialized")
	}
	return m.session.Run()
}

func (m *modelSession) destroy() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}

// sessionPool は推論セッションを固定数だけ保持し、リクエスト間で貸し出します。
type sessionPool struct {
	mu       sync.Mutex
	sessions chan *modelSession
	closed   bool
	timeout  time.Duration
}

func newSessionPool(size int, timeout time.Duration, factory func() (*modelSession, error)) (*sessionPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	p := &sessionPool{sessions: make(chan *modelSession, size), timeout: timeout}
	for i := 0; i < size; i++ {
		s, err := factory()
		if err != nil {
			p.close()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		p.sessions <- s
	}
	return p, nil
}

func (p *sessionPool) acquire(ctx context.Context) (*modelSession, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, errPoolClosed
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case s, ok := <-p.sessions:
		if !ok {
			return nil, errPoolClosed
		}
		return s, nil
	case <-timer.C:
		return nil, errors.New("onnx: timeout waiting for available session")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *sessionPool) release(s *modelSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		s.destroy()
		return
	}
	p.sessions <- s
}

func (p *sessionPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.sessions)
	for s := range p.sessions {
		s.destroy()
	}
}
