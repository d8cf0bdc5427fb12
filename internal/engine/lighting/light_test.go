package lighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name                string
		azimuth, elev       float32
		wantX, wantY, wantZ float32
	}{
		{"horizon front", 0, 0, 0, 0, 1},
		{"horizon right", 90, 0, 1, 0, 0},
		{"zenith", 0, 90, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := SunDirection(tt.azimuth, tt.elev)
			assert.InDelta(t, tt.wantX, d.X, 1e-5)
			assert.InDelta(t, tt.wantY, d.Y, 1e-5)
			assert.InDelta(t, tt.wantZ, d.Z, 1e-5)
			assert.InDelta(t, 1, d.Length(), 1e-5)
		})
	}
}

func TestKeyPointsAway(t *testing.T) {
	d := Key(210, 55)
	assert.Less(t, d.Y, float32(0))
	assert.InDelta(t, -SunDirection(210, 55).X, d.X, 1e-6)
}
