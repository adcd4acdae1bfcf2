package thermal

import "image"

// Frame is a single decoded video frame: 8-bit, three channels per pixel,
// row-major, in the decoder's native BGR byte order.
type Frame struct {
	Width  int
	Height int
	Pix    []byte // len == Width*Height*3
}

// At returns the pixel at (x, y) in canonical R, G, B order, un-reversing
// the decoder's BGR layout. The caller is responsible for bounds.
func (f *Frame) At(x, y int) (r, g, b int) {
	i := (y*f.Width + x) * 3
	return int(f.Pix[i+2]), int(f.Pix[i+1]), int(f.Pix[i])
}

// ToImage converts the frame to an image.RGBA, un-reversing the BGR byte
// order, so it can be handed to the standard image encoders.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4] = f.Pix[i*3+2]
		img.Pix[i*4+1] = f.Pix[i*3+1]
		img.Pix[i*4+2] = f.Pix[i*3]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// VideoSource is an opened video handle able to decode arbitrary frames by
// index. Implementations are not required to be safe for concurrent use;
// Engine serialises all access behind its own lock because decoders keep
// seek-position state.
type VideoSource interface {
	// FrameCount returns the total number of frames in the video.
	FrameCount() int
	// FPS returns the container's reported frame rate.
	FPS() float64
	// Bounds returns the fixed pixel dimensions of every frame.
	Bounds() (width, height int)
	// Decode seeks to the given frame index and decodes it. The returned
	// frame is owned by the caller; implementations must not reuse its
	// backing pixel buffer.
	Decode(frame int) (*Frame, error)
	// Close releases the underlying decoder.
	Close() error
}

// OpenFunc opens a video file and returns a decodable source. Production
// code uses OpenVideoFile; tests substitute fakes.
type OpenFunc func(path string) (VideoSource, error)
