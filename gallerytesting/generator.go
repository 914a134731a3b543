package gallerytesting

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/forestrie/go-gallerygrid/assets"
)

// aspects are the width:height shapes the generator picks from
var aspects = [][2]int{{4, 3}, {3, 4}, {16, 9}, {1, 1}, {3, 2}, {2, 3}, {21, 9}}

// idEpoch is the instant asset ids count down to
var idEpoch = time.Date(3000, time.December, 31, 23, 59, 59, 0, time.UTC)

type GeneratorConfig struct {
	// We seed the RNG with StartTimeMS. It is normal to force it to some fixed
	// value so that the generated data is the same from run to run.
	StartTimeMS int64
	// AssetsPerDay sets how densely the sort dates are packed, going back in
	// time from StartTimeMS.
	AssetsPerDay int
	// Scale multiplies the generated dimensions
	Scale int
	// InvalidEvery, when non zero, gives every nth asset a zero width
	InvalidEvery int
}

type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.AssetsPerDay <= 0 {
		cfg.AssetsPerDay = 10
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 100
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.StartTimeMS))}
}

// ReverseChronoID names an asset so that ids sort newest first
func ReverseChronoID(sortDate time.Time, hash string) string {
	secs := int64(idEpoch.Sub(sortDate) / time.Second)
	if hash == "" {
		hash = "1"
	}
	return fmt.Sprintf("%020d-%s", secs, hash)
}

// Generate returns n descriptors in display order, newest first
func (g *Generator) Generate(n int) []assets.Descriptor {
	start := time.UnixMilli(g.cfg.StartTimeMS).UTC()
	step := 24 * time.Hour / time.Duration(g.cfg.AssetsPerDay)

	out := make([]assets.Descriptor, 0, n)
	for i := 0; i < n; i++ {
		a := aspects[g.rng.Intn(len(aspects))]
		sortDate := start.Add(-time.Duration(i) * step)
		hash := fmt.Sprintf("%08x", g.rng.Uint32())
		d := assets.Descriptor{
			ID:           ReverseChronoID(sortDate, hash),
			Width:        a[0] * g.cfg.Scale,
			Height:       a[1] * g.cfg.Scale,
			SortDate:     sortDate,
			Hash:         hash,
			OrigFileName: fmt.Sprintf("IMG_%04d.jpg", i),
		}
		if g.cfg.InvalidEvery > 0 && (i+1)%g.cfg.InvalidEvery == 0 {
			d.Width = 0
		}
		out = append(out, d)
	}
	return out
}

// ThumbBytes is the thumbnail content served for an asset by the in memory
// store. It is derived from the id so that a thumbnail delivered for the wrong
// asset is detected.
func ThumbBytes(assetID string) []byte {
	return []byte("thumb:" + assetID)
}
