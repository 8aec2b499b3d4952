// Package spectral moves 3D blocks between physical and centred Fourier
// representation and provides the truncated spectral convolution used for
// the nonlinear field–moment products.
//
// Arrays are row-major [K][Nx][Ny][Nz] blocks flattened into one slice. The
// forward transform is an unnormalized DFT followed by a shift that moves the
// zero-frequency mode to index N/2 on every axis; the inverse undoes the
// shift and applies the 1/N-normalized inverse DFT.
package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
)

// Shape is the extent of one 3D block.
type Shape struct {
	Nx, Ny, Nz int
}

func (s Shape) Size() int { return s.Nx * s.Ny * s.Nz }

func (s Shape) offset(i, j, k int) int { return (i*s.Ny+j)*s.Nz + k }

// Blocks returns how many whole blocks data holds, or an error if its length
// is not a multiple of the block size.
func (s Shape) Blocks(data []complex128) (int, error) {
	size := s.Size()
	if size <= 0 {
		return 0, fmt.Errorf("spectral: invalid shape %+v", s)
	}
	if len(data)%size != 0 {
		return 0, fmt.Errorf("spectral: length %d is not a multiple of block size %d", len(data), size)
	}
	return len(data) / size, nil
}

// Forward returns the centred 3D DFT of every block in data.
func Forward(data []complex128, s Shape) []complex128 {
	out := make([]complex128, len(data))
	size := s.Size()
	for b := 0; b+size <= len(data); b += size {
		block := transform3(data[b:b+size], s, fft.FFT)
		roll3(out[b:b+size], block, s, s.Nx/2, s.Ny/2, s.Nz/2)
	}
	return out
}

// Inverse undoes Forward block by block.
func Inverse(data []complex128, s Shape) []complex128 {
	out := make([]complex128, len(data))
	size := s.Size()
	for b := 0; b+size <= len(data); b += size {
		unshifted := make([]complex128, size)
		roll3(unshifted, data[b:b+size], s, -(s.Nx / 2), -(s.Ny / 2), -(s.Nz / 2))
		copy(out[b:b+size], transform3(unshifted, s, fft.IFFT))
	}
	return out
}

// Shift moves the zero-frequency mode of every block to the centre.
func Shift(data []complex128, s Shape) []complex128 {
	out := make([]complex128, len(data))
	size := s.Size()
	for b := 0; b+size <= len(data); b += size {
		roll3(out[b:b+size], data[b:b+size], s, s.Nx/2, s.Ny/2, s.Nz/2)
	}
	return out
}

// Unshift is the inverse of Shift.
func Unshift(data []complex128, s Shape) []complex128 {
	out := make([]complex128, len(data))
	size := s.Size()
	for b := 0; b+size <= len(data); b += size {
		roll3(out[b:b+size], data[b:b+size], s, -(s.Nx / 2), -(s.Ny / 2), -(s.Nz / 2))
	}
	return out
}

// Complex widens a real slice.
func Complex(re []float64) []complex128 {
	out := make([]complex128, len(re))
	for i, v := range re {
		out[i] = complex(v, 0)
	}
	return out
}

// Real drops the imaginary part.
func Real(c []complex128) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// transform3 applies a 1D transform along z, y and x of a single block.
func transform3(block []complex128, s Shape, line func([]complex128) []complex128) []complex128 {
	out := make([]complex128, len(block))
	copy(out, block)

	if s.Nz > 1 {
		buf := make([]complex128, s.Nz)
		for i := 0; i < s.Nx; i++ {
			for j := 0; j < s.Ny; j++ {
				base := s.offset(i, j, 0)
				copy(buf, out[base:base+s.Nz])
				copy(out[base:base+s.Nz], line(buf))
			}
		}
	}

	if s.Ny > 1 {
		buf := make([]complex128, s.Ny)
		for i := 0; i < s.Nx; i++ {
			for k := 0; k < s.Nz; k++ {
				for j := 0; j < s.Ny; j++ {
					buf[j] = out[s.offset(i, j, k)]
				}
				res := line(buf)
				for j := 0; j < s.Ny; j++ {
					out[s.offset(i, j, k)] = res[j]
				}
			}
		}
	}

	if s.Nx > 1 {
		buf := make([]complex128, s.Nx)
		for j := 0; j < s.Ny; j++ {
			for k := 0; k < s.Nz; k++ {
				for i := 0; i < s.Nx; i++ {
					buf[i] = out[s.offset(i, j, k)]
				}
				res := line(buf)
				for i := 0; i < s.Nx; i++ {
					out[s.offset(i, j, k)] = res[i]
				}
			}
		}
	}

	return out
}

// roll3 writes src rolled by (dx, dy, dz) into dst: dst[(i+dx) mod Nx, ...] = src[i, ...].
func roll3(dst, src []complex128, s Shape, dx, dy, dz int) {
	mod := func(a, n int) int {
		a %= n
		if a < 0 {
			a += n
		}
		return a
	}
	for i := 0; i < s.Nx; i++ {
		ii := mod(i+dx, s.Nx)
		for j := 0; j < s.Ny; j++ {
			jj := mod(j+dy, s.Ny)
			for k := 0; k < s.Nz; k++ {
				dst[s.offset(ii, jj, mod(k+dz, s.Nz))] = src[s.offset(i, j, k)]
			}
		}
	}
}
