package message

import "github.com/maxpert/fbsql/engine"

// Params accumulates parameters in bind order.
type Params struct {
	values []Value
}

// ParamsOf converts args with ValueOf.
func ParamsOf(args ...any) (*Params, error) {
	p := &Params{values: make([]Value, 0, len(args))}
	for _, a := range args {
		if err := p.AddAny(a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add appends v.
func (p *Params) Add(v Value) *Params {
	p.values = append(p.values, v)
	return p
}

// AddAny appends the value ValueOf maps x to.
func (p *Params) AddAny(x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	p.values = append(p.values, v)
	return nil
}

func (p *Params) Len() int {
	return len(p.values)
}

func (p *Params) Empty() bool {
	return len(p.values) == 0
}

// Clear drops every parameter, keeping the backing storage.
func (p *Params) Clear() {
	p.values = p.values[:0]
}

// Values returns the parameters in bind order.
func (p *Params) Values() []Value {
	return p.values
}

// Build lays the parameters out with Build.
func (p *Params) Build(md engine.Metadata) (*Message, error) {
	return Build(md, p.values)
}
