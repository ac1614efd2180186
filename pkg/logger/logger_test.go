package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGlobal(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	l := NewNop()
	SetGlobal(l)
	assert.Same(t, l, Global())
}

func TestFromContext(t *testing.T) {
	fallback := NewNop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	l := NewNop()
	assert.Same(t, l, FromContext(IntoContext(context.Background(), l), fallback))
}
