// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/medibrief/internal/container"
	"github.com/pdiddy/medibrief/pkg/types"
)

// Job is one video to render.
type Job struct {
	Slides        []Slide
	AudioPath     string
	AudioDuration time.Duration
	WorkDir       string
	OutPath       string
}

// Renderer produces a video file from a Job.
type Renderer interface {
	Render(ctx context.Context, job Job) error
}

// glyphWidth approximates the average glyph advance as a fraction of the
// font size, for wrapping.
const glyphWidth = 0.55

// FFmpegRenderer renders each slide to a clip, concatenates the clips with
// a padding clip, and muxes the narration.
type FFmpegRenderer struct {
	Exec   container.Executor
	Config types.VideoConfig
	Logger *slog.Logger
}

// Render implements Renderer.
func (r *FFmpegRenderer) Render(ctx context.Context, job Job) error {
	if len(job.Slides) == 0 {
		return fmt.Errorf("no slides to render")
	}
	if err := os.MkdirAll(job.WorkDir, 0o755); err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}

	var clips []string
	for i, s := range job.Slides {
		clip := filepath.Join(job.WorkDir, fmt.Sprintf("slide_%03d.mp4", i))
		if err := r.renderSlide(ctx, i, s, job.WorkDir, clip); err != nil {
			return fmt.Errorf("rendering %s slide: %w", s.Kind, err)
		}
		clips = append(clips, clip)
	}

	if pad := PadDuration(job.AudioDuration, TotalDuration(job.Slides)); pad > 0 {
		clip := filepath.Join(job.WorkDir, "padding.mp4")
		blank := Slide{Kind: "padding", Duration: pad, Fade: job.Slides[0].Fade}
		if err := r.renderSlide(ctx, len(clips), blank, job.WorkDir, clip); err != nil {
			return fmt.Errorf("rendering padding: %w", err)
		}
		clips = append(clips, clip)
		r.Logger.Debug("padding video to narration length", "padding", pad)
	}

	// concat resolves entries against the list's directory, where the
	// clips also live.
	list := filepath.Join(job.WorkDir, "clips.txt")
	var sb strings.Builder
	for _, c := range clips {
		fmt.Fprintf(&sb, "file '%s'\n", filepath.Base(c))
	}
	if err := os.WriteFile(list, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing clip list: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(job.OutPath), 0o755); err != nil {
		return fmt.Errorf("creating video dir: %w", err)
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", list,
		"-i", job.AudioPath,
		"-map", "0:v", "-map", "1:a",
		"-c:v", "copy", "-c:a", "aac", "-b:a", "192k",
		job.OutPath,
	}
	if err := r.Exec.RunSilent(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("muxing video: %w", err)
	}
	r.Logger.Info("video assembled", "path", job.OutPath, "slides", len(job.Slides),
		"duration", max(TotalDuration(job.Slides), job.AudioDuration))
	return nil
}

func (r *FFmpegRenderer) renderSlide(ctx context.Context, n int, s Slide, workDir, out string) error {
	res := ParseResolution(r.Config.Output.Resolution)
	fps := r.Config.Output.FPS
	if fps <= 0 {
		fps = 30
	}
	st := r.Config.Style
	dur := fmtSeconds(s.Duration)

	args := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=%s:s=%dx%d:d=%s:r=%d", ffColor(st.BackgroundColor), res.Width, res.Height, dur, fps),
	}

	var filters []string
	src := "[0:v]"
	headingY := 50
	if s.Kind == SlideTitle || s.Kind == SlideOutro {
		headingY = res.Height / 4
	}
	if s.Image != "" {
		if _, err := os.Stat(s.Image); err == nil {
			args = append(args, "-i", s.Image)
			filters = append(filters,
				fmt.Sprintf("[1:v]scale=%d:%d:force_original_aspect_ratio=decrease[fig]", res.Width-200, res.Height-300),
				fmt.Sprintf("[0:v][fig]overlay=(W-w)/2:%d[bg]", headingY+st.TitleFontSize+40))
			src = "[bg]"
		} else {
			r.Logger.Warn("figure image missing, rendering caption only", "path", s.Image)
		}
	}

	var draw []string
	if s.Heading != "" {
		size := st.TitleFontSize
		if s.Kind == SlideFigure {
			size = size * 4 / 5
		}
		file := filepath.Join(workDir, fmt.Sprintf("slide_%03d_heading.txt", n))
		if err := os.WriteFile(file, []byte(strings.Join(Wrap(s.Heading, charsPerLine(res.Width, size)), "\n")), 0o644); err != nil {
			return err
		}
		draw = append(draw, drawtext(st.Font, file, st.HighlightColor, size, "(w-text_w)/2", strconv.Itoa(headingY)))
	}
	if len(s.Body) > 0 {
		var lines []string
		for i, p := range s.Body {
			if i > 0 && s.Kind == SlideTakeaways {
				lines = append(lines, "")
			}
			lines = append(lines, Wrap(p, charsPerLine(res.Width, st.BodyFontSize))...)
		}
		file := filepath.Join(workDir, fmt.Sprintf("slide_%03d_body.txt", n))
		if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return err
		}
		y := headingY + st.TitleFontSize + 100
		draw = append(draw, drawtext(st.Font, file, st.TextColor, st.BodyFontSize, "100", strconv.Itoa(y)))
	}
	if s.Fade > 0 {
		draw = append(draw,
			fmt.Sprintf("fade=t=in:st=0:d=%s", fmtSeconds(s.Fade)),
			fmt.Sprintf("fade=t=out:st=%s:d=%s", fmtSeconds(max(s.Duration-s.Fade, 0)), fmtSeconds(s.Fade)))
	}
	draw = append(draw, "format=yuv420p")
	filters = append(filters, src+strings.Join(draw, ",")+"[v]")

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[v]",
		"-c:v", "libx264", "-preset", "medium", "-t", dur,
		out)
	return r.Exec.RunSilent(ctx, "ffmpeg", args...)
}

func drawtext(font, textfile, color string, size int, x, y string) string {
	opts := []string{
		"textfile=" + quote(textfile),
		"expansion=none",
		"fontcolor=" + ffColor(color),
		"fontsize=" + strconv.Itoa(size),
		"line_spacing=10",
		"x=" + x,
		"y=" + y,
	}
	if font != "" {
		opts = append([]string{"fontfile=" + quote(font)}, opts...)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

func charsPerLine(width, fontSize int) int {
	if fontSize <= 0 {
		fontSize = 40
	}
	return max(int(float64(width-200)/(float64(fontSize)*glyphWidth)), 10)
}

// ffColor converts #RRGGBB to ffmpeg's 0xRRGGBB form.
func ffColor(c string) string {
	if c == "" {
		return "white"
	}
	if strings.HasPrefix(c, "#") {
		return "0x" + c[1:]
	}
	return c
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func fmtSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
