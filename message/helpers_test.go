package message

import (
	"errors"
	"testing"

	"github.com/maxpert/fbsql/engine"
	"github.com/stretchr/testify/require"
)

// allocator lays messages out with the reference engine rule.
type allocator struct {
	err   error
	calls int
}

func (a *allocator) AllocateDescriptor(specs []engine.SlotSpec) (*engine.Descriptor, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return engine.Allocate(specs)
}

var errAllocFailed = errors.New("metadata builder failed")

// rowOf writes values into a fresh buffer laid out for specs.
func rowOf(t *testing.T, specs []engine.SlotSpec, values ...Value) *Row {
	t.Helper()
	desc, err := engine.Allocate(specs)
	require.NoError(t, err)

	w, err := NewRowWriter(desc, make([]byte, desc.Length))
	require.NoError(t, err)
	for i, v := range values {
		require.NoError(t, w.Set(i, v))
	}

	row, err := NewRow(desc, w.Buffer())
	require.NoError(t, err)
	return row
}

// built builds values and returns the decoder over the result.
func built(t *testing.T, values ...Value) *Row {
	t.Helper()
	msg, err := Build(&allocator{}, values)
	require.NoError(t, err)
	require.NotNil(t, msg)
	row, err := msg.Row()
	require.NoError(t, err)
	return row
}
