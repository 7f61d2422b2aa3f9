package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/apa102"
	"github.com/coreman2200/apa102/internal/layout"
	"github.com/coreman2200/apa102/internal/ws"
	"github.com/coreman2200/apa102/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewCLI()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "APA102 Driver 1.0\n", out)
}

func TestFill(t *testing.T) {
	out, err := run(t, "fill", "ff0000", "--driver", "none", "-n", "2", "--dump")
	require.NoError(t, err)
	assert.Equal(t, "[FF, 00, 00, FF, FF, 00, 00, FF]", out)

	_, err = run(t, "fill", "red", "--driver", "none")
	assert.ErrorIs(t, err, model.ErrBadHex)

	_, err = run(t, "fill", "ff0000", "40", "--driver", "none")
	assert.ErrorIs(t, err, errArgs)
}

func TestPixel(t *testing.T) {
	out, err := run(t, "pixel", "1", "#00ff00", "5", "--driver", "none", "-n", "2", "--dump")
	require.NoError(t, err)
	assert.Equal(t, "[E0, 00, 00, 00, E5, 00, FF, 00]", out)

	_, err = run(t, "pixel", "2", "00ff00", "--driver", "none", "-n", "2")
	assert.ErrorIs(t, err, errArgs)

	_, err = run(t, "pixel", "x", "00ff00", "--driver", "none")
	assert.ErrorIs(t, err, errArgs)
}

func TestClear(t *testing.T) {
	out, err := run(t, "clear", "--driver", "none", "-n", "1", "--dump")
	require.NoError(t, err)
	assert.Equal(t, "[E0, 00, 00, 00]", out)
}

func TestWheel(t *testing.T) {
	out, err := run(t, "wheel", "0", "--driver", "none", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, model.NewColor(apa102.Wheel(0)).Hex()+"\n", out)

	_, err = run(t, "wheel", "256", "--driver", "none")
	assert.ErrorIs(t, err, errArgs)
}

func TestDumpOrder(t *testing.T) {
	out, err := run(t, "dump", "ff0000", "-n", "1", "--order", "bgr")
	require.NoError(t, err)
	assert.Equal(t, "leds:  [FF, FF, 00, 00]\nframe: 00 00 00 00 FF FF 00 00 00\n", out)
}

func TestConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_led: 2\ndriver: none\nglobal_brightness: 15\n"), 0644))

	out, err := run(t, "dump", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "leds:  [E0, 00, 00, 00, E0, 00, 00, 00]")

	out, err = run(t, "fill", "010203", "-c", path, "-n", "1", "--dump")
	require.NoError(t, err)
	assert.Equal(t, "[EF, 03, 02, 01]", out)

	_, err = run(t, "dump", "-c", path, "-b", "40")
	assert.Error(t, err)
}

func TestRunPattern(t *testing.T) {
	out, err := run(t, "test", "index_sweep", "--driver", "none", "-n", "3", "--fps", "200", "--dump")
	require.NoError(t, err)
	// every pixel was lit once; Clear keeps the headers
	assert.Equal(t, "[FF, 00, 00, 00, FF, 00, 00, 00, FF, 00, 00, 00]", out)

	out, err = run(t, "test", "rgb_channels", "--driver", "none", "-n", "1", "--fps", "200", "--dump")
	require.NoError(t, err)
	assert.Equal(t, "[FF, 00, 00, 00]", out)

	_, err = run(t, "rainbow", "--steps", "2", "--driver", "none", "-n", "3", "--fps", "200")
	assert.NoError(t, err)

	_, err = run(t, "test", "strobe", "--driver", "none")
	assert.ErrorIs(t, err, errArgs)
}

func TestServeMux(t *testing.T) {
	s, err := apa102.New(4, nil)
	require.NoError(t, err)
	state := ws.NewState(s, layout.Layout{Width: 4, Height: 1}, 30)
	srv := httptest.NewServer(withCORS(newMux(state)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, float64(4), got["num_led"])

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/control", nil)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
