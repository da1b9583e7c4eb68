package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/tubecontrol/internal/log"
	"gocv.io/x/gocv"
)

// ServiceScript is the file name of the MediaPipe service.
const ServiceScript = "mediapipe_service.py"

// ErrServiceNotFound is returned when no service script can be located.
var ErrServiceNotFound = errors.New("detector: " + ServiceScript + " not found")

// MediaPipeDetector implements Detector with a Python subprocess running the
// gesture recognizer and the face landmarker side by side. The process is
// started on the first frame, restarted after a broken exchange and stopped
// when idle.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	logger *slog.Logger

	mu   sync.Mutex
	svc  *service
	idle *time.Timer
}

// NewMediaPipeDetector locates the service script and interpreter. Nothing
// is started until the first Detect.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.ScriptPath
	if script == "" {
		script = locate(filepath.Join("scripts", ServiceScript), filepath.Join(".tubecontrol", "scripts", ServiceScript))
	} else if _, err := os.Stat(script); err != nil {
		script = ""
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}

	python := config.PythonPath
	if python == "" {
		python = locate(filepath.Join("venv", "bin", "python"), filepath.Join(".tubecontrol", "venv", "bin", "python"))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		logger: log.Component("detector"),
	}, nil
}

// Detect sends frame to the service and waits for its answer.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat, timestampMs int64) (Result, error) {
	if frame == nil || frame.Empty() {
		return Result{}, nil
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Result{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		svc, err := d.start()
		if err != nil {
			return Result{}, err
		}
		d.svc = svc
	}

	line, err := d.svc.roundTrip(timestampMs, buf.GetBytes())
	if err != nil {
		d.logger.Warn("mediapipe exchange failed, restarting on next frame", "error", err)
		d.stopLocked()
		return Result{}, err
	}
	d.touchLocked()

	return parseResponse(line)
}

// Close stops the service.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) start() (*service, error) {
	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--max-faces", strconv.Itoa(d.config.MaxFaces),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
	)
	svc, err := startService(cmd, d.logger)
	if err != nil {
		return nil, err
	}
	d.logger.Info("mediapipe service started", "script", d.script, "python", d.python, "pid", cmd.Process.Pid)
	return svc, nil
}

func (d *MediaPipeDetector) touchLocked() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.svc != nil {
			d.logger.Debug("mediapipe service idle, stopping")
			d.stopLocked()
		}
	})
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}
	err := d.svc.stop()
	d.svc = nil
	return err
}

// service is one running subprocess speaking the framed protocol.
type service struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

func startService(cmd *exec.Cmd, logger *slog.Logger) (*service, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			logger.Debug("mediapipe", "stderr", sc.Text())
		}
	}()

	return &service{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

func (s *service) roundTrip(timestampMs int64, jpeg []byte) ([]byte, error) {
	if err := writeRequest(s.stdin, timestampMs, jpeg); err != nil {
		return nil, err
	}
	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return line, nil
}

func (s *service) stop() error {
	s.stdin.Close()
	return s.cmd.Wait()
}

// writeRequest frames one request: timestamp (8 bytes big-endian), payload
// length (4 bytes big-endian), then the JPEG payload.
func writeRequest(w io.Writer, timestampMs int64, data []byte) error {
	var header [12]byte
	binary.BigEndian.PutUint64(header[:8], uint64(timestampMs))
	binary.BigEndian.PutUint32(header[8:], uint32(len(data)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

// wireResponse is one JSON line from the service.
type wireResponse struct {
	Hands []wireHand `json:"hands"`
	Faces []Face     `json:"faces"`
}

type wireHand struct {
	Points       []Point3D `json:"points"`
	Handedness   string    `json:"handedness"`
	Score        float64   `json:"score"`
	Gesture      string    `json:"gesture"`
	GestureScore float64   `json:"gesture_score"`
}

func parseResponse(line []byte) (Result, error) {
	var resp wireResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}

	result := Result{Faces: resp.Faces}
	if len(resp.Hands) > 0 {
		result.Hands = make([]HandLandmarks, len(resp.Hands))
		for i, h := range resp.Hands {
			result.Hands[i] = h.landmarks()
		}
	}
	return result, nil
}

// landmarks converts a wire hand, truncating extra points.
func (h wireHand) landmarks() HandLandmarks {
	n := min(len(h.Points), NumLandmarks)
	points := make([]Point3D, n)
	copy(points, h.Points[:n])

	return HandLandmarks{
		Points:       points,
		Handedness:   ParseHandedness(h.Handedness),
		Score:        h.Score,
		Gesture:      h.Gesture,
		GestureScore: h.GestureScore,
	}
}

// locate returns the first existing path among rel under the working
// directory, its parent, the executable's directory, and home relative to
// the user's home directory.
func locate(rel, home string) string {
	var candidates []string
	candidates = append(candidates, rel, filepath.Join("..", rel))
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), rel))
	}
	if dir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, home))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
