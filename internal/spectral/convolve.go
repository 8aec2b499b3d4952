package spectral

import "github.com/mjibson/go-dsp/fft"

// directLimit is the largest block size summed directly; larger blocks go
// through a zero-padded FFT product.
const directLimit = 64

// ConvolveAdd accumulates scale·(a ⊛ b) into dst, where ⊛ is the linear
// convolution of two centred spectra truncated to the block shape:
//
//	(a ⊛ b)[i] = 1/(Nx·Ny·Nz) Σ_q a[q] b[i + c - q],  c = N/2 per axis,
//
// with terms whose b index leaves the block dropped rather than wrapped. The
// 1/size factor makes a ⊛ b the centred, unnormalized DFT of the pointwise
// product of the two fields. All three slices hold a single block.
func ConvolveAdd(dst, a, b []complex128, s Shape, scale complex128) {
	if scale == 0 {
		return
	}
	scale /= complex(float64(s.Size()), 0)
	if s.Size() > directLimit {
		convolvePadded(dst, a, b, s, scale)
		return
	}
	convolveDirect(dst, a, b, s, scale)
}

func convolveDirect(dst, a, b []complex128, s Shape, scale complex128) {
	cx, cy, cz := s.Nx/2, s.Ny/2, s.Nz/2

	for qx := 0; qx < s.Nx; qx++ {
		// Output rows i with 0 <= i + cx - qx < Nx.
		ix0, ix1 := clampRange(qx-cx, s.Nx)
		for qy := 0; qy < s.Ny; qy++ {
			iy0, iy1 := clampRange(qy-cy, s.Ny)
			for qz := 0; qz < s.Nz; qz++ {
				w := a[s.offset(qx, qy, qz)]
				if w == 0 {
					continue
				}
				w *= scale
				iz0, iz1 := clampRange(qz-cz, s.Nz)
				for ix := ix0; ix < ix1; ix++ {
					bx := ix + cx - qx
					for iy := iy0; iy < iy1; iy++ {
						by := iy + cy - qy
						dRow := s.offset(ix, iy, 0)
						bRow := s.offset(bx, by, 0)
						for iz := iz0; iz < iz1; iz++ {
							dst[dRow+iz] += w * b[bRow+iz+cz-qz]
						}
					}
				}
			}
		}
	}
}

// convolvePadded computes the full linear convolution of a and b on a grid
// of 2N per axis, where the circular product no longer wraps, and keeps the
// window centred on c.
func convolvePadded(dst, a, b []complex128, s Shape, scale complex128) {
	p := Shape{padLen(s.Nx), padLen(s.Ny), padLen(s.Nz)}
	ap := make([]complex128, p.Size())
	bp := make([]complex128, p.Size())
	for i := 0; i < s.Nx; i++ {
		for j := 0; j < s.Ny; j++ {
			src, pad := s.offset(i, j, 0), p.offset(i, j, 0)
			copy(ap[pad:pad+s.Nz], a[src:src+s.Nz])
			copy(bp[pad:pad+s.Nz], b[src:src+s.Nz])
		}
	}

	fa := transform3(ap, p, fft.FFT)
	fb := transform3(bp, p, fft.FFT)
	for i := range fa {
		fa[i] *= fb[i]
	}
	full := transform3(fa, p, fft.IFFT)

	cx, cy, cz := s.Nx/2, s.Ny/2, s.Nz/2
	for i := 0; i < s.Nx; i++ {
		for j := 0; j < s.Ny; j++ {
			row := s.offset(i, j, 0)
			src := p.offset(i+cx, j+cy, cz)
			for k := 0; k < s.Nz; k++ {
				dst[row+k] += scale * full[src+k]
			}
		}
	}
}

func padLen(n int) int {
	if n == 1 {
		return 1
	}
	return 2 * n
}

// ConvolveSame returns a ⊛ b as a new block.
func ConvolveSame(a, b []complex128, s Shape) []complex128 {
	out := make([]complex128, s.Size())
	ConvolveAdd(out, a, b, s, 1)
	return out
}

// clampRange returns [lo, hi) of output indices i for which i - shift lies in [0, n).
func clampRange(shift, n int) (int, int) {
	lo, hi := shift, n+shift
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}
