package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fedragon/go-sorty/internal/core"
	"github.com/fedragon/go-sorty/internal/media"
	"github.com/fedragon/go-sorty/internal/models"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// rows taken by the header, the details line and the key bar
const reservedRows = 3

type Options struct {
	StartPercent int
	SkipPercent  int
	FPS          float64
	MaxCols      int
	MaxRows      int
	Profile      termenv.Profile
}

// Outcome is what a preview ends with. Err carries a rendering failure; the
// decision is valid regardless.
type Outcome struct {
	Decision models.Decision
	Quit     bool
	Err      error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	detailStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barStyle    = lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("15")).Padding(0, 1)
)

type imageLoadedMsg struct {
	img     image.Image
	takenAt time.Time
	hasDate bool
	err     error
}

type probedMsg struct {
	info media.VideoInfo
	err  error
}

type streamOpenedMsg struct {
	stream *media.Stream
	gen    int
	err    error
}

type frameMsg struct {
	img *image.RGBA
	pos float64
	gen int
	err error
}

// streamSet tracks every decoder started for a preview, including those
// whose open message has not been delivered yet, so they can all be reaped.
type streamSet struct {
	mu     sync.Mutex
	open   map[io.Closer]struct{}
	closed bool
}

func newStreamSet() *streamSet {
	return &streamSet{open: make(map[io.Closer]struct{})}
}

// add registers c, or closes it right away when the set is already closed.
func (s *streamSet) add(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = c.Close()
		return false
	}
	s.open[c] = struct{}{}
	return true
}

func (s *streamSet) close(c io.Closer) {
	s.mu.Lock()
	delete(s.open, c)
	s.mu.Unlock()
	_ = c.Close()
}

func (s *streamSet) closeAll() {
	s.mu.Lock()
	s.closed = true
	open := s.open
	s.open = make(map[io.Closer]struct{})
	s.mu.Unlock()

	for c := range open {
		_ = c.Close()
	}
}

type previewModel struct {
	ctx  context.Context
	item core.Item
	opts Options
	keys keyMap
	help help.Model
	spin spinner.Model

	width  int
	height int

	// image state
	still   image.Image
	takenAt time.Time
	hasDate bool

	// video state
	info        media.VideoInfo
	probed      bool
	streams     *streamSet
	stream      *media.Stream
	gen         int
	pos         float64
	streamStart float64
	streamW     int
	streamH     int
	streamed    int

	frame   string
	loading bool
	err     error

	done    bool
	outcome Outcome
}

func newPreviewModel(ctx context.Context, item core.Item, opts Options) *previewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	return &previewModel{
		ctx:     ctx,
		item:    item,
		opts:    opts,
		keys:    newKeyMap(opts.SkipPercent, item.Media.Kind == models.Video),
		help:    h,
		spin:    sp,
		streams: newStreamSet(),
		loading: true,
	}
}

func (m *previewModel) isVideo() bool {
	return m.item.Media.Kind == models.Video
}

func (m *previewModel) Init() tea.Cmd {
	name := filepath.Base(m.item.Media.Path)
	if m.isVideo() {
		return tea.Batch(m.spin.Tick, tea.SetWindowTitle("Playing (Muted): "+name), probeCmd(m.ctx, m.item.Media.Path))
	}
	return tea.Batch(m.spin.Tick, tea.SetWindowTitle("Viewing: "+name), loadImageCmd(m.item.Media.Path))
}

func loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := media.LoadImage(path)
		if err != nil {
			return imageLoadedMsg{err: err}
		}
		t, ok := media.TakenAt(path)
		return imageLoadedMsg{img: img, takenAt: t, hasDate: ok}
	}
}

func probeCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		info, err := media.Probe(ctx, path)
		return probedMsg{info: info, err: err}
	}
}

func nextFrameCmd(s *media.Stream, gen int) tea.Cmd {
	return func() tea.Msg {
		img, pos, err := s.Next()
		return frameMsg{img: img, pos: pos, gen: gen, err: err}
	}
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.isVideo() {
			if m.probed && m.err == nil {
				if w, h := m.frameSize(); w != m.streamW || h != m.streamH {
					return m, m.open(m.pos)
				}
			}
			return m, nil
		}
		m.renderStill()
		return m, nil

	case imageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.still, m.takenAt, m.hasDate = msg.img, msg.takenAt, msg.hasDate
		m.renderStill()
		return m, nil

	case probedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.info = msg.info
		m.probed = true
		m.pos = media.StartOffset(m.info, m.opts.StartPercent)
		return m, m.open(m.pos)

	case streamOpenedMsg:
		if msg.gen != m.gen {
			if msg.stream != nil {
				m.streams.close(msg.stream)
			}
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.stream = msg.stream
		return m, nextFrameCmd(m.stream, m.gen)

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if errors.Is(msg.err, io.EOF) {
			if m.streamed == 0 && m.streamStart == 0 {
				m.closeStream()
				m.loading = false
				m.err = errors.New("no frames could be decoded")
				return m, nil
			}
			// loop back to the beginning
			m.pos = 0
			return m, m.open(0)
		}
		if msg.err != nil {
			m.closeStream()
			m.loading = false
			m.err = msg.err
			return m, nil
		}
		m.loading = false
		m.streamed++
		m.pos = msg.pos
		m.frame = Render(msg.img, m.opts.Profile)
		return m, nextFrameCmd(m.stream, m.gen)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.finish(Outcome{Quit: true})
		case key.Matches(msg, m.keys.Keep):
			return m, m.finish(Outcome{Decision: models.Kept})
		case key.Matches(msg, m.keys.Delete):
			return m, m.finish(Outcome{Decision: models.Deleted})
		case key.Matches(msg, m.keys.Skip):
			if !m.probed || m.err != nil {
				return m, nil
			}
			m.pos = media.SkipTarget(m.pos, m.info, m.opts.SkipPercent)
			return m, m.open(m.pos)
		}
	}

	return m, nil
}

func (m *previewModel) finish(o Outcome) tea.Cmd {
	m.closeStream()
	m.streams.closeAll()
	m.gen++
	o.Err = m.err
	m.outcome = o
	m.done = true
	return tea.Quit
}

func (m *previewModel) closeStream() {
	if m.stream != nil {
		m.streams.close(m.stream)
		m.stream = nil
	}
}

func (m *previewModel) playbackFPS() float64 {
	fps := m.opts.FPS
	if fps <= 0 {
		fps = 12
	}
	if m.info.FPS > 0 && m.info.FPS < fps {
		fps = m.info.FPS
	}
	return fps
}

func (m *previewModel) frameSize() (int, int) {
	pw, ph := viewport(m.width, m.height, reservedRows, m.opts.MaxCols, m.opts.MaxRows)
	return media.Fit(m.info.Width, m.info.Height, pw, ph)
}

// open replaces the running stream with one starting at start seconds.
// Nothing is started until the terminal size is known.
func (m *previewModel) open(start float64) tea.Cmd {
	m.closeStream()
	m.gen++

	w, h := m.frameSize()
	if w == 0 || h == 0 {
		return nil
	}

	m.streamW, m.streamH = w, h
	m.streamStart = start
	m.streamed = 0
	if m.frame == "" {
		m.loading = true
	}

	ctx, path, gen, streams := m.ctx, m.item.Media.Path, m.gen, m.streams
	opts := media.StreamOptions{Start: start, Width: w, Height: h, FPS: m.playbackFPS()}

	cmd := func() tea.Msg {
		s, err := media.OpenStream(ctx, path, opts)
		if err == nil && !streams.add(s) {
			return nil
		}
		return streamOpenedMsg{stream: s, gen: gen, err: err}
	}
	if m.loading {
		return tea.Batch(cmd, m.spin.Tick)
	}
	return cmd
}

func (m *previewModel) renderStill() {
	if m.still == nil {
		return
	}
	pw, ph := viewport(m.width, m.height, reservedRows, m.opts.MaxCols, m.opts.MaxRows)
	if pw == 0 || ph == 0 {
		return
	}
	m.frame = Render(media.Scale(m.still, pw, ph), m.opts.Profile)
}

func (m *previewModel) details() string {
	d := fmt.Sprintf("%.2f MB · %s", m.item.Media.SizeMB(), m.item.Media.Kind)
	switch {
	case m.isVideo() && m.probed:
		d += fmt.Sprintf(" · %s / %s", media.FormatTime(m.pos), media.FormatTime(m.info.Duration))
	case !m.isVideo() && m.hasDate:
		d += " · taken " + m.takenAt.Format("2006-01-02 15:04:05")
	}
	return d
}

func (m *previewModel) View() string {
	if m.done {
		return ""
	}

	header := titleStyle.Render(fmt.Sprintf("Reviewing file %d/%d: %s", m.item.Index, m.item.Total, m.item.Media.Path))

	var body string
	switch {
	case m.err != nil:
		body = errStyle.Render("Preview unavailable: " + m.err.Error())
	case m.loading:
		body = m.spin.View() + " Loading..."
	default:
		body = m.frame
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		detailStyle.Render(m.details()),
		body,
		barStyle.Render(m.help.View(m.keys)),
	)
}
