//go:build !amd64 && !arm64

package mac

const archVectorLength = 1
