package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
)

type CommandHandler func(ctx context.Context, payload interface{}) (interface{}, error)
type QueryHandler func(ctx context.Context, params interface{}) (interface{}, error)

// Dispatcher routes named commands and queries to their handlers.
type Dispatcher struct {
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHandlers[name] = handler
}

func (d *Dispatcher) RegisterQuery(name string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.qryHandlers[name] = handler
}

func (d *Dispatcher) ExecuteCommand(ctx context.Context, name string, payload interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.ErrHandlerNotRegistered.Detail("command %s", name)
	}
	return handler(ctx, payload)
}

func (d *Dispatcher) ExecuteQuery(ctx context.Context, name string, params interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.qryHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.ErrHandlerNotRegistered.Detail("query %s", name)
	}
	return handler(ctx, params)
}

// Commands lists the registered command names in lexical order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	names := lo.Keys(d.cmdHandlers)
	d.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Queries lists the registered query names in lexical order.
func (d *Dispatcher) Queries() []string {
	d.mu.RLock()
	names := lo.Keys(d.qryHandlers)
	d.mu.RUnlock()
	sort.Strings(names)
	return names
}
