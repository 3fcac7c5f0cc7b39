package message

import (
	"errors"
	"fmt"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/telemetry"
)

// Message is an input message: a descriptor and the buffer it describes.
type Message struct {
	Descriptor *engine.Descriptor
	Buffer     []byte
}

// Row returns a decoder over the message, mostly useful to engines that read
// their input.
func (m *Message) Row() (*Row, error) {
	return NewRow(m.Descriptor, m.Buffer)
}

// SlotSpec returns the slot registration for v. Every slot is nullable; Null
// takes a SMALLINT placeholder and text takes its own byte length.
func SlotSpec(v Value) (engine.SlotSpec, error) {
	code := v.kind.Code()
	if code == 0 {
		return engine.SlotSpec{}, &UnsupportedTypeError{Type: v.kind.String()}
	}

	spec := engine.SlotSpec{Type: code.AsNullable(), SubType: v.subtype}
	if sqltype.IsVariableWidth(code) {
		spec.Length = uint32(len(v.data))
	}
	return spec, nil
}

// Build lays values out in a new message. The descriptor comes from md, which
// decides offsets, alignment and total length. An empty list yields a nil
// message: statements without parameters are executed without a buffer.
func Build(md engine.Metadata, values []Value) (*Message, error) {
	if len(values) == 0 {
		return nil, nil
	}

	msg, err := build(md, values)
	if err != nil {
		telemetry.MessagesBuiltTotal.With("failed").Inc()
		return nil, err
	}

	telemetry.MessagesBuiltTotal.With("success").Inc()
	telemetry.MessageBytes.Observe(float64(len(msg.Buffer)))
	for _, v := range values {
		telemetry.ParamsBoundTotal.With(v.kind.String()).Inc()
	}
	return msg, nil
}

func build(md engine.Metadata, values []Value) (*Message, error) {
	specs := make([]engine.SlotSpec, len(values))
	for i, v := range values {
		spec, err := SlotSpec(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		specs[i] = spec
	}

	desc, err := md.AllocateDescriptor(specs)
	if err != nil {
		telemetry.EngineErrorsTotal.With("allocate_descriptor").Inc()
		return nil, engine.Wrap("allocate descriptor", err)
	}
	if len(desc.Columns) != len(values) {
		return nil, engine.Errorf("allocate descriptor", "engine returned %d slots for %d parameters",
			len(desc.Columns), len(values))
	}
	if err := desc.Validate(); err != nil {
		return nil, engine.Wrap("allocate descriptor", err)
	}

	buf := make([]byte, desc.Length)
	w, err := NewRowWriter(desc, buf)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if err := w.Set(i, v); err != nil {
			var ce *ConversionError
			if errors.As(err, &ce) {
				return nil, engine.Errorf("allocate descriptor", "slot %d registered as %s came back as %s",
					i, v.kind.Code(), desc.Columns[i].Type)
			}
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}

	return &Message{Descriptor: desc, Buffer: buf}, nil
}
