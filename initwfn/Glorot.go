package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig describes Glorot initialization drawn from a uniform
// distribution scaled by Gain
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a wrapped Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

// Type identifies the initialization algorithm the config describes
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create builds the Gorgonia initializer the config describes
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes Glorot initialization drawn from a normal
// distribution scaled by Gain
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a wrapped Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

// Type identifies the initialization algorithm the config describes
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create builds the Gorgonia initializer the config describes
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}
