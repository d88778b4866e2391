package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrNoFFprobe = errors.New("ffprobe not found in PATH")
	ErrNoFFmpeg  = errors.New("ffmpeg not found in PATH")
)

var lookPath = exec.LookPath

type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Frames   int64
	Duration float64 // seconds
}

// Probe asks ffprobe for the geometry and length of the first video stream.
func Probe(ctx context.Context, path string) (VideoInfo, error) {
	bin, err := lookPath("ffprobe")
	if err != nil {
		return VideoInfo{}, ErrNoFFprobe
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames:format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %v: %w", path, err)
	}

	return parseProbe(out)
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (VideoInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return VideoInfo{}, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return VideoInfo{}, errors.New("no video stream")
	}

	s := po.Streams[0]
	info := VideoInfo{Width: s.Width, Height: s.Height}

	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	info.Frames, _ = strconv.ParseInt(strings.TrimSpace(s.NbFrames), 10, 64)
	info.Duration, _ = strconv.ParseFloat(strings.TrimSpace(po.Format.Duration), 64)

	switch {
	case info.FPS == 0:
		// without a frame rate positions cannot be mapped to frames
		info.Duration = 0
	case info.Duration == 0:
		info.Duration = float64(info.Frames) / info.FPS
	case info.Frames == 0:
		info.Frames = int64(info.Duration * info.FPS)
	}

	return info, nil
}

// parseRate turns an ffprobe rational such as "30000/1001" into a float.
func parseRate(r string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(r), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// StartOffset is the position, in seconds, that lies percent of the way
// into a video of the given duration.
func StartOffset(info VideoInfo, percent int) float64 {
	return clampToLastFrame(info.Duration*float64(percent)/100, info)
}

// SkipTarget advances pos by percent of the total duration, never past the
// last frame.
func SkipTarget(pos float64, info VideoInfo, percent int) float64 {
	if info.Duration <= 0 {
		return pos
	}
	return clampToLastFrame(pos+info.Duration*float64(percent)/100, info)
}

func clampToLastFrame(pos float64, info VideoInfo) float64 {
	if pos < 0 {
		return 0
	}
	last := info.Duration
	if info.FPS > 0 {
		last -= 1 / info.FPS
	}
	if last < 0 {
		last = 0
	}
	if pos > last {
		return last
	}
	return pos
}

type StreamOptions struct {
	Start  float64 // seconds
	Width  int
	Height int
	FPS    float64
}

// Stream decodes scaled RGB frames from a running ffmpeg process, paced at
// the video's native rate.
type Stream struct {
	opts   StreamOptions
	cmd    *exec.Cmd
	out    *bufio.Reader
	stderr *lockedBuffer
	cancel context.CancelFunc
	frame  int64
}

func streamArgs(path string, opts StreamOptions) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-re",
		"-ss", strconv.FormatFloat(opts.Start, 'f', 3, 64),
		"-i", path,
		"-an", "-sn",
		"-vf", fmt.Sprintf("fps=%s,scale=%d:%d", strconv.FormatFloat(opts.FPS, 'f', -1, 64), opts.Width, opts.Height),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}
}

func OpenStream(ctx context.Context, path string, opts StreamOptions) (*Stream, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid frame rate %v", opts.FPS)
	}

	bin, err := lookPath("ffmpeg")
	if err != nil {
		return nil, ErrNoFFmpeg
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, bin, streamArgs(path, opts)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("cannot start ffmpeg: %w", err)
	}

	return &Stream{
		opts:   opts,
		cmd:    cmd,
		out:    bufio.NewReaderSize(stdout, opts.Width*opts.Height*3),
		stderr: stderr,
		cancel: cancel,
	}, nil
}

// Next blocks until the next frame is decoded and returns it with its
// position in seconds. io.EOF marks the end of the video.
func (s *Stream) Next() (*image.RGBA, float64, error) {
	w, h := s.opts.Width, s.opts.Height
	buf := make([]byte, w*h*3)

	if _, err := io.ReadFull(s.out, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if msg := strings.TrimSpace(s.stderr.String()); msg != "" && s.frame == 0 {
				return nil, 0, fmt.Errorf("ffmpeg: %s", msg)
			}
			return nil, 0, io.EOF
		}
		return nil, 0, err
	}

	pos := s.opts.Start + float64(s.frame)/s.opts.FPS
	s.frame++

	return rgbToImage(buf, w, h), pos, nil
}

// Close stops the decoder. It is safe to call more than once.
func (s *Stream) Close() error {
	s.cancel()
	_ = s.cmd.Wait()
	return nil
}

func rgbToImage(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i+2 < len(buf); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// lockedBuffer collects ffmpeg's stderr while frames are being read.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
