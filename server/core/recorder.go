package core

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/ksuid"
)

// FrameObject is one object's committed state in a Frame.
type FrameObject struct {
	NetworkID uint16     `json:"id"`
	Location  mgl64.Vec3 `json:"loc"`
	Velocity  mgl64.Vec3 `json:"vel"`
}

// Frame is the ground truth at the end of one server tick.
type Frame struct {
	Tick    uint32        `json:"tick"`
	Clients int           `json:"clients"`
	Objects []FrameObject `json:"objects"`
}

// Recorder writes one JSON line per tick into a zstd stream.
type Recorder struct {
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

// NewRecorder opens a new recording under dir, named by a fresh session id.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("session-%s.jsonl.zst", ksuid.New()))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("recorder: %w", err)
	}
	return &Recorder{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path is the file being written.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one frame.
func (r *Recorder) Record(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("recorder: encode tick %d: %w", f.Tick, err)
	}
	if _, err := r.w.Write(b); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return r.w.WriteByte('\n')
}

// Close flushes everything and closes the file.
func (r *Recorder) Close() error {
	var errs []error
	if r.w != nil {
		errs = append(errs, r.w.Flush())
		r.w = nil
	}
	if r.enc != nil {
		errs = append(errs, r.enc.Close())
		r.enc = nil
	}
	if r.f != nil {
		errs = append(errs, r.f.Close())
		r.f = nil
	}
	return errors.Join(errs...)
}

// ReadRecording decodes every frame from a recording file.
func ReadRecording(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", path, err)
	}
	defer dec.Close()

	var frames []Frame
	jd := json.NewDecoder(dec)
	for {
		var fr Frame
		if err := jd.Decode(&fr); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, fmt.Errorf("recording %s: frame %d: %w", path, len(frames), err)
		}
		frames = append(frames, fr)
	}
}
