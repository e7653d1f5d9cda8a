//go:build arm64

package mac

// NEON holds four float32 lanes.
const archVectorLength = 4
