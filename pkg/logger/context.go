package logger

import (
	"context"
	"sync"
)

var (
	registryMu          sync.RWMutex
	contextKeyRegistry = make(map[any]string)
)

// RegisterContextKey makes the *FCtx methods emit ctx.Value(ctxKey) under logField.
func RegisterContextKey(ctxKey any, logField string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	contextKeyRegistry[ctxKey] = logField
}

func UnregisterContextKey(ctxKey any) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(contextKeyRegistry, ctxKey)
}

func withContext(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	fields := make([]any, 0, len(contextKeyRegistry)*2)
	for key, fieldName := range contextKeyRegistry {
		if val := ctx.Value(key); val != nil {
			fields = append(fields, fieldName, val)
		}
	}
	return fields
}
