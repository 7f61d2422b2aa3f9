package spi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultFreq is a safe clock for a few metres of APA102 strip.
const DefaultFreq = 8 * physic.MegaHertz

var errClosed = errors.New("spi: port closed")

// Port is an io.Writer sending APA102 frames on a SPI bus. APA102 have no
// chip select and sample MOSI on the rising clock edge, so mode 0 is used.
type Port struct {
	mu     sync.Mutex
	closer io.Closer
	c      spi.Conn
	max    int
}

// OpenPort opens the SPI port by name, "" meaning the first one registered.
func OpenPort(name string, freq physic.Frequency) (*Port, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spi: open %q: %w", name, err)
	}
	port, err := NewPort(p, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	port.closer = p
	return port, nil
}

// NewPort connects to an already opened port. The caller keeps ownership of p.
func NewPort(p spi.Port, freq physic.Frequency) (*Port, error) {
	if freq <= 0 {
		freq = DefaultFreq
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spi: connect at %s: %w", freq, err)
	}
	port := &Port{c: c}
	if l, ok := c.(conn.Limits); ok {
		port.max = l.MaxTxSize()
	}
	return port, nil
}

// Write sends b, split into transfers no larger than the bus allows.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c == nil {
		return 0, errClosed
	}
	n := 0
	for n < len(b) {
		chunk := b[n:]
		if p.max > 0 && len(chunk) > p.max {
			chunk = chunk[:p.max]
		}
		if err := p.c.Tx(chunk, nil); err != nil {
			return n, fmt.Errorf("spi: tx: %w", err)
		}
		n += len(chunk)
	}
	return n, nil
}

// Close releases the port when Open created it.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.c = nil
	if p.closer != nil {
		err := p.closer.Close()
		p.closer = nil
		return err
	}
	return nil
}

func (p *Port) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c == nil {
		return "spi{closed}"
	}
	return fmt.Sprintf("spi{%s}", p.c)
}
