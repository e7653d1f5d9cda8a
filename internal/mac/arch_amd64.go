//go:build amd64

package mac

// AVX2 holds eight float32 lanes.
const archVectorLength = 8
