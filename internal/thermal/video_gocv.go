package thermal

import (
	"fmt"

	"gocv.io/x/gocv"
)

// gocvSource decodes frames through OpenCV's VideoCapture. Any container and
// codec the local OpenCV build understands will open.
type gocvSource struct {
	cap    *gocv.VideoCapture
	frames int
	fps    float64
	width  int
	height int
	mat    gocv.Mat
}

// OpenVideoFile opens a video file with OpenCV and queries its frame count,
// frame rate and dimensions. It is the production OpenFunc for NewEngine.
func OpenVideoFile(path string) (VideoSource, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file %q: %w", path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("could not open video file %q", path)
	}

	src := &gocvSource{
		cap:    cap,
		frames: int(cap.Get(gocv.VideoCaptureFrameCount)),
		fps:    cap.Get(gocv.VideoCaptureFPS),
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
		mat:    gocv.NewMat(),
	}
	if src.frames <= 0 {
		src.Close()
		return nil, fmt.Errorf("video file %q reports no frames", path)
	}
	return src, nil
}

func (s *gocvSource) FrameCount() int             { return s.frames }
func (s *gocvSource) FPS() float64                { return s.fps }
func (s *gocvSource) Bounds() (width, height int) { return s.width, s.height }

// Decode seeks the capture to the requested index and reads one frame.
// Capture mats are 8-bit 3-channel BGR; the bytes are copied out so the
// reused mat never aliases a returned frame.
func (s *gocvSource) Decode(frame int) (*Frame, error) {
	s.cap.Set(gocv.VideoCapturePosFrames, float64(frame))
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("could not read frame %d", frame)
	}
	return &Frame{
		Width:  s.mat.Cols(),
		Height: s.mat.Rows(),
		Pix:    s.mat.ToBytes(),
	}, nil
}

func (s *gocvSource) Close() error {
	if err := s.mat.Close(); err != nil {
		return err
	}
	return s.cap.Close()
}
