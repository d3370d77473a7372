package symbol

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func az(v float64) *float64 { return &v }

func countingRenderer() (Renderer, *int) {
	n := 0
	return func(code string, size int, azimuth *float64) string {
		n++
		return Key(code, size, azimuth)
	}, &n
}

func TestKey(t *testing.T) {
	assert.Equal(t, "SFGPU-----:28:0", Key("SFGPU-----", 28, nil))
	assert.Equal(t, "SFGPU-----:28:0", Key("SFGPU-----", 28, az(0)))
	assert.Equal(t, "SFGPU-----:28:0", Key("SFGPU-----", 28, az(2.4)))
	assert.Equal(t, "SFGPU-----:28:5", Key("SFGPU-----", 28, az(2.5)))
	assert.Equal(t, "SFGPU-----:28:45", Key("SFGPU-----", 28, az(46)))
	assert.Equal(t, "SFGPU-----:32:355", Key("SFGPU-----", 32, az(356.9)))
}

func TestCache_HitsDoNotRender(t *testing.T) {
	render, calls := countingRenderer()
	c := NewCache(10, render)

	a := c.Get("SFGPU-----", 28, az(44))
	b := c.Get("SFGPU-----", 28, az(46))
	assert.Equal(t, a, b, "azimuths in the same 5° bucket share an image")
	assert.Equal(t, 1, *calls)

	c.Get("SFGPU-----", 32, az(44))
	assert.Equal(t, 2, *calls)
	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	render, calls := countingRenderer()
	c := NewCache(3, render)

	c.Get("A", 28, nil)
	c.Get("B", 28, nil)
	c.Get("C", 28, nil)

	// touching A makes B the oldest
	c.Get("A", 28, nil)
	c.Get("D", 28, nil)

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.images.Contains(Key("A", 28, nil)))
	assert.False(t, c.images.Contains(Key("B", 28, nil)))
	assert.True(t, c.images.Contains(Key("C", 28, nil)))
	assert.True(t, c.images.Contains(Key("D", 28, nil)))
	assert.Equal(t, 4, *calls)

	c.Get("B", 28, nil)
	assert.Equal(t, 5, *calls)
	assert.False(t, c.images.Contains(Key("C", 28, nil)))
}

func TestCache_DefaultCapacity(t *testing.T) {
	render, _ := countingRenderer()
	c := NewCache(0, render)
	for i := 0; i < DefaultCapacity+20; i++ {
		c.Get(fmt.Sprintf("S%04d", i), 28, nil)
	}
	assert.Equal(t, DefaultCapacity, c.Len())
	assert.False(t, c.images.Contains(Key("S0000", 28, nil)))
	assert.True(t, c.images.Contains(Key(fmt.Sprintf("S%04d", DefaultCapacity+19), 28, nil)))
}

func TestSVG(t *testing.T) {
	uri := SVG("SHGPU-----", 28, az(90))
	require.True(t, strings.HasPrefix(uri, "data:image/svg+xml;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/svg+xml;base64,"))
	require.NoError(t, err)
	svg := string(raw)
	assert.Contains(t, svg, `width="28"`)
	assert.Contains(t, svg, "#FF8080")
	assert.Contains(t, svg, "<path")
	assert.Contains(t, svg, "<line")

	assert.Equal(t, uri, SVG("SHGPU-----", 28, az(90)), "deterministic")
	assert.NotContains(t, SVG("SFGPU-----", 28, nil), "<line")
}
