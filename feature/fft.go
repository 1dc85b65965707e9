package feature

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fftCache is a circular store of the last size decimated samples.
type fftCache struct {
	buf    []float64
	write  int
	filled bool
}

func newFFTCache(size int) fftCache {
	return fftCache{buf: make([]float64, size)}
}

func (c *fftCache) push(v float64) {
	c.buf[c.write] = v
	c.write++
	if c.write == len(c.buf) {
		c.write = 0
		c.filled = true
	}
}

// sample returns cached value i, where 0 is the oldest one.
func (c *fftCache) sample(i int) float64 {
	return c.buf[(c.write+i)%len(c.buf)]
}

func (c *fftCache) reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.write = 0
	c.filled = false
}

// hann returns the Hann window of size n.
func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// spectrum runs windowed real FFT over cached samples. Scratch buffers are
// reused between calls.
type spectrum struct {
	fft      *fourier.FFT
	window   []float64
	windowed []float64
	coeffs   []complex128
}

func newSpectrum(size int) *spectrum {
	return &spectrum{
		fft:      fourier.NewFFT(size),
		window:   hann(size),
		windowed: make([]float64, size),
		coeffs:   make([]complex128, size/2+1),
	}
}

// power returns power of the bin in dB. Bins past the Nyquist bin are
// clamped to it.
func (s *spectrum) power(c *fftCache, bin int) float64 {
	n := len(s.window)
	for i := range s.windowed {
		s.windowed[i] = c.sample(i) * s.window[i]
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, s.windowed)
	bin = max(0, min(bin, len(s.coeffs)-1))
	re, im := real(s.coeffs[bin]), imag(s.coeffs[bin])
	return 20 * math.Log10((re*re+im*im)*2/float64(n))
}
