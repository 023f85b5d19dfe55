package resid

import (
	"math"
	"sync"
)

// combinedTables holds the 8-bit OSC3 samples of the four combined waveforms
// that do not include noise. Each table has one entry per 12-bit index; the
// pulse+triangle table only uses the lower half.
type combinedTables struct {
	st  [4096]reg8
	pt  [4096]reg8
	ps  [4096]reg8
	pst [4096]reg8
}

// distanceFunc returns the coupling weight between two bits i positions apart.
type distanceFunc func(distance float32, i int) float32

func exponentialDistance(distance float32, i int) float32 {
	return float32(math.Pow(float64(distance), float64(-i)))
}

func linearDistance(distance float32, i int) float32 {
	return 1 / (1 + float32(i)*distance)
}

func quadraticDistance(distance float32, i int) float32 {
	return 1 / (1 + float32(i*i)*distance)
}

// pulldownConfig describes how the bit lines of one combined waveform pull
// each other low. distance1 weighs the bits above, distance2 the bits below.
type pulldownConfig struct {
	distFunc      distanceFunc
	threshold     float32
	topBit        float32
	pulseStrength float32
	distance1     float32
	distance2     float32
}

// Parameters fitted against OSC3 samples of a 6581 R3 4785 and an 8580 R5
// 5092, in the order saw+triangle, pulse+triangle, pulse+saw,
// pulse+saw+triangle.
var pulldownConfigs = [2][4]pulldownConfig{
	{ // 6581
		{exponentialDistance, 0.776678205, 1.18439901, 0.0, 2.25732255, 5.12803745},
		{linearDistance, 1.01866758, 1.0, 2.69177628, 0.0233543925, 0.0850229636},
		{linearDistance, 2.20329857, 1.04501438, 10.5146885, 0.277294368, 0.143747061},
		{linearDistance, 1.35652959, 1.09051275, 3.21098137, 0.16658926, 0.370252877},
	},
	{ // 8580
		{exponentialDistance, 0.684999049, 0.916620493, 0.0, 1.14715648, 2.02339816},
		{exponentialDistance, 0.940367579, 1.0, 1.26695442, 0.976729453, 1.57954705},
		{quadraticDistance, 0.963866293, 1.22095084, 1.01380754, 0.0110885892, 0.381492466},
		{linearDistance, 0.976761818, 0.202727556, 0.988633931, 0.939373314, 9.37139416},
	},
}

var (
	waveTables     [2]*combinedTables
	waveTablesOnce [2]sync.Once
)

// combinedWaveTables returns the shared, read-only tables for model. They are
// built on first use.
func combinedWaveTables(model Model) *combinedTables {
	m := 0
	if model == MOS8580 {
		m = 1
	}

	waveTablesOnce[m].Do(func() {
		waveTables[m] = buildCombinedTables(&pulldownConfigs[m])
	})
	return waveTables[m]
}

func buildCombinedTables(cfg *[4]pulldownConfig) *combinedTables {
	st := newPulldown(&cfg[0])
	pt := newPulldown(&cfg[1])
	ps := newPulldown(&cfg[2])
	pst := newPulldown(&cfg[3])

	t := &combinedTables{}
	for idx := 0; idx < 4096; idx++ {
		// Sawtooth and triangle together drive each bit from its lower
		// neighbour as well.
		sawTri := idx & (idx << 1) & 0xfff

		t.st[idx] = reg8(st.value(sawTri) >> 4)
		t.ps[idx] = reg8(ps.value(idx) >> 4)
		t.pst[idx] = reg8(pst.value(sawTri) >> 4)
		if idx < 2048 {
			t.pt[idx] = reg8(pt.value(idx<<1) >> 4)
		}
	}
	return t
}

// pulldown predicts which bits of a combined waveform survive once every
// bit line set to zero drags its neighbours down.
type pulldown struct {
	cfg      *pulldownConfig
	distance [25]float32
}

func newPulldown(cfg *pulldownConfig) *pulldown {
	p := &pulldown{cfg: cfg}
	p.distance[12] = 1
	for i := 12; i > 0; i-- {
		p.distance[12-i] = cfg.distFunc(cfg.distance1, i)
		p.distance[12+i] = cfg.distFunc(cfg.distance2, i)
	}
	return p
}

// value returns the 12-bit output for the 12-bit waveform input with the
// pulse output high.
func (p *pulldown) value(input int) reg12 {
	var bit [12]float32
	for i := range bit {
		if input&(1<<i) != 0 {
			bit[i] = 1
		}
	}
	bit[11] *= p.cfg.topBit

	var value reg12
	for sb := 0; sb < 12; sb++ {
		if bit[sb] == 0 {
			continue
		}

		var avg, n float32
		for cb := 0; cb < 12; cb++ {
			if cb == sb {
				continue
			}
			w := p.distance[sb-cb+12]
			avg += (1 - bit[cb]) * w
			n += w
		}
		avg -= p.cfg.pulseStrength

		if 1-avg/n > p.cfg.threshold {
			value |= 1 << sb
		}
	}
	return value
}
