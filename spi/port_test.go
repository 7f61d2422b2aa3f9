package spi_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/apa102"
	. "github.com/coreman2200/apa102/spi"
)

type limitedConn struct {
	max int
	txs [][]byte
}

func (c *limitedConn) String() string                 { return "limited" }
func (c *limitedConn) Duplex() conn.Duplex            { return conn.Half }
func (c *limitedConn) TxPackets(p []spi.Packet) error { return nil }
func (c *limitedConn) MaxTxSize() int                 { return c.max }
func (c *limitedConn) Tx(w, r []byte) error {
	c.txs = append(c.txs, append([]byte(nil), w...))
	return nil
}

type limitedPort struct {
	c    *limitedConn
	freq physic.Frequency
	mode spi.Mode
}

func (p *limitedPort) String() string                      { return "limitedport" }
func (p *limitedPort) LimitSpeed(f physic.Frequency) error { return nil }
func (p *limitedPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.freq, p.mode = f, mode
	return p.c, nil
}

func TestPortShowsFrame(t *testing.T) {
	s := spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0, 0, 0, 0, 0xFF, 0x03, 0x02, 0x01, 0x00}},
			},
		},
	}
	p, err := NewPort(&s, 4*physic.MegaHertz)
	require.NoError(t, err)

	strip, err := apa102.New(1, p)
	require.NoError(t, err)
	strip.SetPixel(0, 1, 2, 3)
	require.NoError(t, strip.Show())

	require.NoError(t, p.Close())
	require.NoError(t, s.Close())
}

func TestPortUnexpectedWrite(t *testing.T) {
	s := spitest.Playback{
		Playback: conntest.Playback{
			Ops:       []conntest.IO{{W: []byte{1}}},
			DontPanic: true,
		},
	}
	p, err := NewPort(&s, 0)
	require.NoError(t, err)
	_, err = p.Write([]byte{2})
	assert.Error(t, err)
}

func TestPortChunksToMaxTxSize(t *testing.T) {
	lp := &limitedPort{c: &limitedConn{max: 4}}
	p, err := NewPort(lp, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFreq, lp.freq)
	assert.Equal(t, spi.Mode0, lp.mode)

	n, err := p.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}, lp.c.txs)
	assert.Equal(t, "spi{limited}", p.String())
}

func TestPortClosed(t *testing.T) {
	p, err := NewPort(&limitedPort{c: &limitedConn{}}, 0)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	_, err = p.Write([]byte{0})
	assert.Error(t, err)
	assert.Equal(t, "spi{closed}", p.String())
}

func TestNRZMirrorMatchesDirectWrite(t *testing.T) {
	mirrored := bytes.Buffer{}
	m, err := NewNRZMirror(spitest.NewRecordRaw(&mirrored), 2, apa102.DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", m.String())

	strip, err := apa102.New(2, m)
	require.NoError(t, err)
	strip.SetPixel(0, 248, 124, 62)
	strip.SetPixel(1, 248, 124, 62, 0)
	require.NoError(t, strip.Show())

	direct := bytes.Buffer{}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&direct), &nrzled.Opts{NumPixels: 2, Channels: 3, Freq: NRZFreq})
	require.NoError(t, err)
	_, err = d.Write([]byte{248, 124, 62, 0, 0, 0})
	require.NoError(t, err)

	assert.NotZero(t, mirrored.Len())
	assert.Equal(t, direct.Bytes(), mirrored.Bytes())
}

func TestNRZMirrorRejectsGarbage(t *testing.T) {
	m, err := NewNRZMirror(spitest.NewRecordRaw(&bytes.Buffer{}), 1, apa102.DefaultOrder)
	require.NoError(t, err)
	_, err = m.Write([]byte{1, 2, 3})
	assert.Error(t, err)
}
