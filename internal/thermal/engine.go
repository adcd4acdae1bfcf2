package thermal

import (
	"fmt"
	"log"
	"sync"
)

// VideoInfo describes the currently loaded video.
type VideoInfo struct {
	Frames int     `json:"frames"`
	FPS    float64 `json:"fps"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Loaded bool    `json:"loaded"`
}

// Sample is one temperature reading along an analysis line. Valid is false
// when no calibration entry could be resolved for the pixel's colour; the
// Celsius value is meaningless in that case. Absence is always carried
// explicitly rather than substituted with 0.0, so callers can tell a missing
// reading from a genuinely cold one.
type Sample struct {
	Celsius float64
	Valid   bool
}

// Engine owns one calibration table, one open video source and a single-slot
// decoded-frame cache. A successful load replaces the previous table or
// video. All methods are safe for concurrent use: one mutex serialises every
// operation, because overlapping decodes would race on both the cache and
// the decoder's seek position.
type Engine struct {
	open      OpenFunc
	threshold float64

	mu        sync.Mutex
	table     *CalibrationTable
	video     VideoSource
	videoPath string
	lastIndex int
	lastFrame *Frame
}

// NewEngine returns an engine with no video or calibration loaded. open is
// used by LoadVideo to construct sources; matchThreshold <= 0 selects
// DefaultMatchThreshold.
func NewEngine(open OpenFunc, matchThreshold float64) *Engine {
	if matchThreshold <= 0 {
		matchThreshold = DefaultMatchThreshold
	}
	return &Engine{open: open, threshold: matchThreshold, lastIndex: -1}
}

// LoadVideo opens the video at path, replacing any previously loaded one.
// On success the returned info records frame count, FPS and dimensions for
// the lifetime of the load.
func (e *Engine) LoadVideo(path string) (VideoInfo, error) {
	src, err := e.open(path)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("failed to load video: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.video != nil {
		if err := e.video.Close(); err != nil {
			log.Printf("failed to close previous video: %v", err)
		}
	}
	e.video = src
	e.videoPath = path
	e.lastIndex = -1
	e.lastFrame = nil

	info := e.videoInfoLocked()
	log.Printf("video loaded: %s (%d frames, %.2f fps, %dx%d)",
		path, info.Frames, info.FPS, info.Width, info.Height)
	return info, nil
}

// LoadCalibration reads the calibration CSV at path, replacing any previous
// table, and returns the number of entries loaded.
func (e *Engine) LoadCalibration(path string) (int, error) {
	table, err := LoadCalibrationFile(path)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.table = table
	log.Printf("calibration loaded: %s (%d entries)", path, table.Len())
	return table.Len(), nil
}

// VideoInfo reports the dimensions of the current video, or a zero value
// with Loaded false when none is open.
func (e *Engine) VideoInfo() VideoInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.videoInfoLocked()
}

func (e *Engine) videoInfoLocked() VideoInfo {
	if e.video == nil {
		return VideoInfo{}
	}
	w, h := e.video.Bounds()
	return VideoInfo{
		Frames: e.video.FrameCount(),
		FPS:    e.video.FPS(),
		Width:  w,
		Height: h,
		Loaded: true,
	}
}

// VideoPath returns the path of the currently loaded video, or "".
func (e *Engine) VideoPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.videoPath
}

// Ready reports whether a video with at least one frame is loaded.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.video != nil && e.video.FrameCount() > 0
}

// PixelTemperature resolves a single colour against the calibration table.
// ok is false when no table is loaded or the table is empty.
func (e *Engine) PixelTemperature(r, g, b int) (celsius float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil {
		return 0, false
	}
	return e.table.Resolve(r, g, b, e.threshold)
}

// Frame decodes the frame at the given index, clamped into range, reusing
// the cached frame for repeated requests of the same index. It returns nil
// when no video is loaded or the decode fails. The returned frame is shared
// with the cache and must not be mutated.
func (e *Engine) Frame(index int) *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked(index)
}

func (e *Engine) frameLocked(index int) *Frame {
	if e.video == nil {
		return nil
	}
	total := e.video.FrameCount()
	if total <= 0 {
		return nil
	}
	if index < 0 {
		index = 0
	}
	if index > total-1 {
		index = total - 1
	}

	// Seek only when a different frame is wanted. Repeated requests for the
	// same index must not touch the decoder at all.
	if index == e.lastIndex && e.lastFrame != nil {
		return e.lastFrame
	}

	f, err := e.video.Decode(index)
	if err != nil {
		// Cache untouched: the last good frame stays served for its index.
		log.Printf("failed to decode frame %d: %v", index, err)
		return nil
	}
	e.lastFrame = f
	e.lastIndex = index
	return f
}

// AnalyzeLine decodes the requested frame, rasterises the segment p1-p2
// against its bounds and resolves every covered pixel's colour to a
// temperature. The result preserves traversal order from p1 to p2 and has
// one sample per in-bounds rasterised point. It is empty when no video is
// loaded, the decode fails, or the whole segment misses the frame.
func (e *Engine) AnalyzeLine(frame int, p1, p2 Point) []Sample {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.frameLocked(frame)
	if f == nil {
		return nil
	}

	pixels := LinePixels(p1, p2, f.Width, f.Height)
	if len(pixels) == 0 {
		return nil
	}

	samples := make([]Sample, 0, len(pixels))
	for _, p := range pixels {
		r, g, b := f.At(p.X, p.Y)
		var s Sample
		if e.table != nil {
			s.Celsius, s.Valid = e.table.Resolve(r, g, b, e.threshold)
		}
		samples = append(samples, s)
	}
	return samples
}

// Close releases the open video source. The engine is unusable for frame
// operations afterwards until a new LoadVideo.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.video == nil {
		return nil
	}
	err := e.video.Close()
	e.video = nil
	e.videoPath = ""
	e.lastIndex = -1
	e.lastFrame = nil
	return err
}
