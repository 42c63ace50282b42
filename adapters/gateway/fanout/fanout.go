package fanout

import (
	"errors"
	"fmt"

	"github.com/Go-routine-4595/aquavigil/model"
)

type namedGateway struct {
	name string
	gw   model.IGateway
}

// Fanout forwards every message to all registered gateways. A failing gateway does not
// stop delivery to the others; the failures are joined into the returned error.
type Fanout struct {
	gateways []namedGateway
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, g model.IGateway) *Fanout {
	f.gateways = append(f.gateways, namedGateway{name: name, gw: g})
	return f
}

func (f *Fanout) Len() int {
	return len(f.gateways)
}

func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.gateways))
	for _, g := range f.gateways {
		names = append(names, g.name)
	}
	return names
}

func (f *Fanout) Send(msg model.Message) error {
	var err error

	for _, g := range f.gateways {
		if e := g.gw.Send(msg); e != nil {
			err = errors.Join(err, fmt.Errorf("gateway %s: %w", g.name, e))
		}
	}

	return err
}
