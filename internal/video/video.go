package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// Params describe the output video. Width and Height are the physical size
// of every frame written.
type Params struct {
	Width   int
	Height  int
	FPS     int
	Encoder string
	Quality int
	Output  string

	// Duration and Fade (seconds) enable fades at both ends.
	Duration float64
	Fade     float64
}

// StreamEncoder pipes raw RGBA frames into a single ffmpeg process.
type StreamEncoder struct {
	params Params
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	frames int
	closed bool
}

var ErrFrameSize = errors.New("frame size does not match the stream")

// Start launches ffmpeg reading rawvideo from stdin.
func Start(ctx context.Context, p Params) (*StreamEncoder, error) {
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 {
		return nil, fmt.Errorf("invalid stream %dx%d@%d", p.Width, p.Height, p.FPS)
	}
	if p.Output == "" {
		return nil, errors.New("no output path")
	}
	if p.Encoder == "" {
		p.Encoder = "libx264"
	}

	e := &StreamEncoder{params: p}
	e.cmd = exec.CommandContext(ctx, "ffmpeg", buildArgs(p)...)
	e.cmd.Stdout = &e.out
	e.cmd.Stderr = &e.out

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return e, nil
}

func buildArgs(p Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-vf", Filter(p),
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}

	// Качество в зависимости от энкодера
	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	args = append(args, p.Output)
	return args
}

// WriteFrame sends one frame. Frames must match the stream size.
func (e *StreamEncoder) WriteFrame(img *image.RGBA) error {
	if e.closed {
		return errors.New("stream closed")
	}
	if s := img.Bounds().Size(); s.X != e.params.Width || s.Y != e.params.Height {
		return fmt.Errorf("%w: %v, want %dx%d", ErrFrameSize, s, e.params.Width, e.params.Height)
	}
	if err := writeRawRGBA(e.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	e.frames++
	return nil
}

// Frames is the number of frames written so far.
func (e *StreamEncoder) Frames() int { return e.frames }

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *StreamEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, e.out.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
