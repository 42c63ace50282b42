package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Go-routine-4595/aquavigil/model"
)

// Display prints every message as one JSON line.
type Display struct {
	mu  sync.Mutex
	out io.Writer
}

func NewDisplay() *Display {
	return NewDisplayTo(os.Stdout)
}

func NewDisplayTo(w io.Writer) *Display {
	return &Display{out: w}
}

func (d *Display) Send(msg model.Message) error {
	var (
		buf []byte
		err error
	)

	buf, err = json.Marshal(msg)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal message display.Send"))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = fmt.Fprintln(d.out, string(buf))
	return err
}
