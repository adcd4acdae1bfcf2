package thermal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// fakeSource is an in-memory VideoSource with a decode counter, so tests can
// observe whether the cache prevented a decoder round-trip.
type fakeSource struct {
	frames      []*Frame
	fps         float64
	width       int
	height      int
	decodeCalls int
	failDecode  bool
	closed      bool
}

func (s *fakeSource) FrameCount() int             { return len(s.frames) }
func (s *fakeSource) FPS() float64                { return s.fps }
func (s *fakeSource) Bounds() (width, height int) { return s.width, s.height }
func (s *fakeSource) Close() error                { s.closed = true; return nil }

func (s *fakeSource) Decode(frame int) (*Frame, error) {
	s.decodeCalls++
	if s.failDecode {
		return nil, errors.New("decoder broke")
	}
	if frame < 0 || frame >= len(s.frames) {
		return nil, fmt.Errorf("frame %d out of range", frame)
	}
	return s.frames[frame], nil
}

// solidFrame builds a frame filled with one colour, stored BGR like a real
// decoder would produce.
func solidFrame(w, h, r, g, b int) *Frame {
	f := &Frame{Width: w, Height: h, Pix: make([]byte, w*h*3)}
	for i := 0; i < w*h; i++ {
		f.Pix[i*3] = byte(b)
		f.Pix[i*3+1] = byte(g)
		f.Pix[i*3+2] = byte(r)
	}
	return f
}

func newTestEngine(src *fakeSource) *Engine {
	e := NewEngine(func(string) (VideoSource, error) { return src, nil }, 0)
	if _, err := e.LoadVideo("fake.mp4"); err != nil {
		panic(err)
	}
	return e
}

func writeCalibration(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.csv")
	if err := os.WriteFile(path, []byte("X,Y,R,G,B,Temperature_C\n"+rows), 0644); err != nil {
		t.Fatalf("failed to write calibration fixture: %v", err)
	}
	return path
}

func TestEngine_FrameClamping(t *testing.T) {
	src := &fakeSource{
		frames: []*Frame{
			solidFrame(4, 4, 10, 0, 0),
			solidFrame(4, 4, 20, 0, 0),
			solidFrame(4, 4, 30, 0, 0),
		},
		width: 4, height: 4, fps: 25,
	}
	e := newTestEngine(src)

	if f := e.Frame(-5); f == nil || f != src.frames[0] {
		t.Error("negative index must clamp to frame 0")
	}
	if f := e.Frame(103); f == nil || f != src.frames[2] {
		t.Error("oversized index must clamp to the last frame")
	}
}

func TestEngine_FrameCacheAvoidsRedecode(t *testing.T) {
	src := &fakeSource{
		frames: []*Frame{solidFrame(4, 4, 0, 0, 0), solidFrame(4, 4, 1, 1, 1)},
		width:  4, height: 4, fps: 25,
	}
	e := newTestEngine(src)

	first := e.Frame(1)
	second := e.Frame(1)
	if src.decodeCalls != 1 {
		t.Errorf("expected 1 decode for repeated index, got %d", src.decodeCalls)
	}
	if first != second {
		t.Error("repeated request must serve the cached frame")
	}

	e.Frame(0)
	if src.decodeCalls != 2 {
		t.Errorf("different index must decode again, got %d calls", src.decodeCalls)
	}
}

func TestEngine_DecodeFailureLeavesCacheIntact(t *testing.T) {
	src := &fakeSource{
		frames: []*Frame{solidFrame(4, 4, 0, 0, 0), solidFrame(4, 4, 1, 1, 1)},
		width:  4, height: 4, fps: 25,
	}
	e := newTestEngine(src)

	cached := e.Frame(0)
	if cached == nil {
		t.Fatal("expected frame 0")
	}

	src.failDecode = true
	if f := e.Frame(1); f != nil {
		t.Error("decode failure must yield nil")
	}
	// The last good frame is still served for its own index, decoder untouched.
	calls := src.decodeCalls
	if f := e.Frame(0); f != cached {
		t.Error("cache must survive a failed decode of another index")
	}
	if src.decodeCalls != calls {
		t.Error("cached frame must not hit the decoder")
	}
}

func TestEngine_NoVideo(t *testing.T) {
	e := NewEngine(OpenVideoFile, 0)
	if e.Ready() {
		t.Error("engine without video must not be ready")
	}
	if f := e.Frame(0); f != nil {
		t.Error("Frame without video must be nil")
	}
	if samples := e.AnalyzeLine(0, Point{0, 0}, Point{3, 0}); samples != nil {
		t.Error("AnalyzeLine without video must be empty")
	}
	info := e.VideoInfo()
	if info.Loaded {
		t.Error("VideoInfo must report not loaded")
	}
}

func TestEngine_LoadVideoFailure(t *testing.T) {
	e := NewEngine(func(string) (VideoSource, error) {
		return nil, errors.New("no such container")
	}, 0)
	if _, err := e.LoadVideo("nope.mp4"); err == nil {
		t.Fatal("expected load error")
	}
	if e.Ready() {
		t.Error("failed load must leave the engine not ready")
	}
}

func TestEngine_LoadVideoReplacesAndClosesPrevious(t *testing.T) {
	old := &fakeSource{frames: []*Frame{solidFrame(2, 2, 0, 0, 0)}, width: 2, height: 2}
	next := &fakeSource{frames: []*Frame{solidFrame(8, 8, 0, 0, 0)}, width: 8, height: 8, fps: 30}

	sources := []*fakeSource{old, next}
	i := 0
	e := NewEngine(func(string) (VideoSource, error) {
		s := sources[i]
		i++
		return s, nil
	}, 0)

	if _, err := e.LoadVideo("a.mp4"); err != nil {
		t.Fatal(err)
	}
	e.Frame(0) // populate the cache against the old source

	info, err := e.LoadVideo("b.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !old.closed {
		t.Error("previous source must be closed on reload")
	}
	if info.Width != 8 || info.Height != 8 || info.FPS != 30 {
		t.Errorf("unexpected info after reload: %+v", info)
	}
	// Cache from the old video must not leak into the new one.
	if f := e.Frame(0); f != next.frames[0] {
		t.Error("reload must invalidate the frame cache")
	}
}

func TestEngine_PixelTemperature(t *testing.T) {
	e := NewEngine(OpenVideoFile, 0)

	if _, ok := e.PixelTemperature(255, 0, 0); ok {
		t.Error("no calibration loaded: must report absence")
	}

	path := writeCalibration(t, "1,1,255,0,0,1000.0\n2,1,0,255,0,500.0\n")
	n, err := e.LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}

	if temp, ok := e.PixelTemperature(255, 0, 0); !ok || temp != 1000.0 {
		t.Errorf("exact lookup = %v, %v; want 1000.0, true", temp, ok)
	}
	// Distance sqrt(3) from red: the near-match path must land on red too.
	if temp, ok := e.PixelTemperature(254, 1, 1); !ok || temp != 1000.0 {
		t.Errorf("near lookup = %v, %v; want 1000.0, true", temp, ok)
	}
}

func TestEngine_LoadCalibrationFailureKeepsOldTable(t *testing.T) {
	e := NewEngine(OpenVideoFile, 0)
	good := writeCalibration(t, "1,1,255,0,0,1000.0\n")
	if _, err := e.LoadCalibration(good); err != nil {
		t.Fatal(err)
	}

	bad := writeCalibration(t, "1,1,999,0,0,10.0\n")
	if _, err := e.LoadCalibration(bad); err == nil {
		t.Fatal("expected error for unusable calibration")
	}
	if temp, ok := e.PixelTemperature(255, 0, 0); !ok || temp != 1000.0 {
		t.Error("failed reload must not clobber the previous table")
	}
}

func TestEngine_AnalyzeLine_RedTopRow(t *testing.T) {
	// 10x10 frame, top row pure red, everything else green.
	f := solidFrame(10, 10, 0, 255, 0)
	for x := 0; x < 10; x++ {
		f.Pix[x*3] = 0
		f.Pix[x*3+1] = 0
		f.Pix[x*3+2] = 255
	}
	src := &fakeSource{frames: []*Frame{f}, width: 10, height: 10, fps: 25}
	e := newTestEngine(src)
	if _, err := e.LoadCalibration(writeCalibration(t, "1,1,255,0,0,1000.0\n2,1,0,255,0,500.0\n")); err != nil {
		t.Fatal(err)
	}

	samples := e.AnalyzeLine(0, Point{0, 0}, Point{9, 0})
	if len(samples) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if !s.Valid || s.Celsius != 1000.0 {
			t.Fatalf("sample %d = %+v, want 1000.0 valid", i, s)
		}
	}

	// Second row is green.
	samples = e.AnalyzeLine(0, Point{0, 1}, Point{9, 1})
	for i, s := range samples {
		if !s.Valid || s.Celsius != 500.0 {
			t.Fatalf("sample %d = %+v, want 500.0 valid", i, s)
		}
	}
}

func TestEngine_AnalyzeLine_NoCalibrationMarksInvalid(t *testing.T) {
	src := &fakeSource{frames: []*Frame{solidFrame(5, 5, 7, 7, 7)}, width: 5, height: 5}
	e := newTestEngine(src)

	samples := e.AnalyzeLine(0, Point{0, 0}, Point{4, 0})
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s.Valid {
			t.Fatalf("sample %d must be invalid without calibration data", i)
		}
	}
}

func TestEngine_AnalyzeLine_OutOfBoundsSegment(t *testing.T) {
	src := &fakeSource{frames: []*Frame{solidFrame(5, 5, 0, 0, 0)}, width: 5, height: 5}
	e := newTestEngine(src)
	if samples := e.AnalyzeLine(0, Point{-10, -10}, Point{-5, -5}); len(samples) != 0 {
		t.Errorf("fully out-of-bounds line must yield no samples, got %d", len(samples))
	}
}

func TestEngine_Close(t *testing.T) {
	src := &fakeSource{frames: []*Frame{solidFrame(2, 2, 0, 0, 0)}, width: 2, height: 2}
	e := newTestEngine(src)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if !src.closed {
		t.Error("Close must release the source")
	}
	if e.Ready() {
		t.Error("closed engine must not be ready")
	}
}
