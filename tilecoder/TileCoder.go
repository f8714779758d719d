// Package tilecoder implements tile coding of state vectors
package tilecoder

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"sfneuman.com/blackjack/utils/floatutils"
)

// OffsetDiv controls tiling offsets. For each dimension, tilings are
// offset by randomly sampling from a uniform distribution with support
// [- tile width/OffsetDiv, tile width/OffsetDiv]
const OffsetDiv float64 = 1.5

// TileCoder implements functionality for tile coding a vector. Tile
// coding takes a low-dimensional vector and changes it into a large,
// sparse vector consisting of only 0's and 1's. Each 1 represents the
// coordinates of the original vector in some space of tilings. For
// example:
//
//	[0.5, 0.1] -> [0, 0, 0, 1, 0, 0, 1, 0]
//
// The number of nonzero elements in the tile-coded representation
// equals the number of tilings used to encode the vector. The number
// of total features in the tile-coded representation is the number of
// tilings times the number of tiles per tiling. Tile coding requires
// that the space to be tiled be bounded.
//
// Tiles are half-open along every dimension, so a vector exactly on a
// tile boundary always falls in the higher tile. Encoding is a pure
// function of the input vector and the offsets fixed at construction.
type TileCoder struct {
	numTilings        int
	minDims           mat.Vector
	offsets           []*mat.Dense
	bins              []int
	binLengths        []float64
	seed              uint64
	featuresPerTiling int
}

// New creates and returns a new TileCoder struct. The minDims and
// maxDims arguments are the bounds on each dimension between which
// tilings will be placed. These arguments should have the same shape
// as vectors which will be tile coded. The bins argument determines
// how many tiles are placed (per tiling) along each dimension and
// should have the same number of elements as the minDims and maxDims
// arguments. The offsets of each tiling are sampled uniformly from
// the seed.
func New(numTilings int, minDims, maxDims mat.Vector, bins []int,
	seed uint64) (*TileCoder, error) {
	if numTilings < 1 {
		return nil, fmt.Errorf("new: cannot have fewer than 1 tiling")
	}
	if minDims.Len() != maxDims.Len() {
		return nil, fmt.Errorf("new: cannot specify minimum with fewer "+
			"dimensions than maximum: %d != %d", minDims.Len(), maxDims.Len())
	}
	if len(bins) != minDims.Len() {
		return nil, fmt.Errorf("new: there should be a single number of "+
			"bins for each dimension: \n\thave(%d) \n\twant(%d)", len(bins),
			minDims.Len())
	}

	// Calculate the length of bins and the tiling offset bounds
	var bounds []r1.Interval
	binLengths := make([]float64, len(bins))
	for i := 0; i < minDims.Len(); i++ {
		binLength := (maxDims.AtVec(i) - minDims.AtVec(i)) / float64(bins[i])
		bound := binLength / OffsetDiv // Bounds tiling offsets

		binLengths[i] = binLength
		bounds = append(bounds, r1.Interval{Min: -bound, Max: bound})
	}

	// Create RNG for uniform sampling of tiling offsets
	source := rand.NewSource(seed)
	u := distmv.NewUniform(bounds, source)
	sampler := samplemv.IID{Dist: u}

	// Calculate offsets
	var offsets []*mat.Dense
	for i := 0; i < numTilings; i++ {
		samples := mat.NewDense(1, len(bounds), nil)
		sampler.Sample(samples)

		offsets = append(offsets, samples)
	}

	featuresPerTiling := prod(bins)

	return &TileCoder{numTilings, minDims, offsets, bins, binLengths, seed,
		featuresPerTiling}, nil
}

// encodeWithTiling returns the index of the tile-coded feature vector
// which should be a 1.0 when the input vector v is encoded with tiling
// number tiling
func (t *TileCoder) encodeWithTiling(v mat.Vector, tiling int) int {
	indexOffset := tiling * t.featuresPerTiling
	index := 0

	// Loop through each feature dimension to calculate the tile index
	// along that dimension
	for i := len(t.bins) - 1; i > -1; i-- {
		// Offset the tiling
		data := v.AtVec(i) + t.offsets[tiling].At(0, i)

		// Calculate which tile the feature falls in along the current
		// dimension
		tile := math.Floor((data - t.minDims.AtVec(i)) / t.binLengths[i])

		// If out-of-bounds, use the boundary tile
		tile = floatutils.Clip(tile, 0.0, float64(t.bins[i]-1))

		tileIndex := int(tile)
		if i == len(t.bins)-1 {
			index += tileIndex
		} else {
			index += tileIndex * t.bins[i+1]
		}
	}
	return indexOffset + index
}

// EncodeIndices returns the non-zero indices in the tile-coded
// representation of v, one index per tiling
func (t *TileCoder) EncodeIndices(v mat.Vector) []int {
	indices := make([]int, t.numTilings)
	for tiling := 0; tiling < t.numTilings; tiling++ {
		indices[tiling] = t.encodeWithTiling(v, tiling)
	}
	return indices
}

// Encode encodes a single vector as a tile-coded vector
func (t *TileCoder) Encode(v mat.Vector) *mat.VecDense {
	tileCoded := mat.NewVecDense(t.VecLength(), nil)

	for _, index := range t.EncodeIndices(v) {
		tileCoded.SetVec(index, 1.0)
	}
	return tileCoded
}

// VecLength returns the number of features in a tile-coded vector
func (t *TileCoder) VecLength() int {
	return t.numTilings * t.featuresPerTiling
}

// NumTilings returns the number of tilings the tile coder uses for
// encoding vectors
func (t *TileCoder) NumTilings() int {
	return t.numTilings
}

// String returns a string representation of a *TileCoder
func (t *TileCoder) String() string {
	return fmt.Sprintf("Tilings %d  |  Tiles: %v", t.numTilings, t.bins)
}

// prod calculates the product of all integers in a []int
func prod(i []int) int {
	prod := 1
	for _, v := range i {
		prod *= v
	}
	return prod
}
