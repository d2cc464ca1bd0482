// Package audio owns the recordings directory: it records, plays and deletes
// voice answers. Callers only ever see bare filenames.
package audio

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultExt is the extension given to new recordings.
const DefaultExt = ".m4a"

// Session is a running recording or playback.
type Session interface {
	// Stop ends the session. For recordings it returns once the file is
	// finalised.
	Stop() error
	// Done is closed when the session ends on its own or after Stop.
	Done() <-chan struct{}
}

// Device talks to the platform's microphone and speakers.
type Device interface {
	Record(path string) (Session, error)
	Play(path string) (Session, error)
}

// Store manages the recordings directory. Recording and playback are
// independent channels, each with at most one active session.
type Store struct {
	dir    string
	ext    string
	device Device
	allow  func() bool
	log    *zap.Logger

	mu            sync.Mutex
	recording     Session
	recordingName string
	playback      Session
	playbackName  string
}

type Option func(*Store)

// WithExtension sets the extension of new recordings, e.g. ".wav".
func WithExtension(ext string) Option {
	return func(s *Store) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ext = ext
	}
}

// WithPermission installs the microphone permission check consulted by
// StartRecording.
func WithPermission(allow func() bool) Option {
	return func(s *Store) { s.allow = allow }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New opens (and creates) the recordings directory.
func New(dir string, device Device, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		ext:    DefaultExt,
		device: device,
		allow:  func() bool { return true },
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ext == "" {
		s.ext = DefaultExt
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir is the recordings directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a recording filename inside the directory. It returns ""
// for names that are not bare filenames.
func (s *Store) Path(name string) string {
	if !validName(name) {
		return ""
	}
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named recording is on disk.
func (s *Store) Exists(name string) bool {
	p := s.Path(name)
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// StartRecording begins a new recording under a fresh name. A recording
// already in progress is stopped and discarded first. It reports false when
// microphone access is denied or the device fails.
func (s *Store) StartRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != nil {
		s.log.Info("discarding unfinished recording", zap.String("file", s.recordingName))
		s.stopRecordingLocked()
		s.removeLocked(s.recordingName)
		s.recording, s.recordingName = nil, ""
	}

	if !s.allow() {
		s.log.Warn("microphone permission denied")
		return false
	}
	if s.device == nil {
		s.log.Warn("no audio device configured")
		return false
	}

	name := uuid.New().String() + s.ext
	session, err := s.device.Record(filepath.Join(s.dir, name))
	if err != nil {
		s.log.Warn("start recording failed", zap.Error(err))
		return false
	}
	s.recording, s.recordingName = session, name
	return true
}

// IsRecording reports whether a recording is in progress.
func (s *Store) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording != nil
}

// StopRecording finishes the active recording and returns its filename.
// ok is false when nothing was recording or no usable file was produced.
func (s *Store) StopRecording() (name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording == nil {
		return "", false
	}
	name = s.recordingName
	s.stopRecordingLocked()
	s.recording, s.recordingName = nil, ""

	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil || info.Size() == 0 {
		s.log.Warn("recording produced no audio", zap.String("file", name), zap.Error(err))
		s.removeLocked(name)
		return "", false
	}
	return name, true
}

func (s *Store) stopRecordingLocked() {
	if err := s.recording.Stop(); err != nil {
		s.log.Warn("stop recording failed", zap.String("file", s.recordingName), zap.Error(err))
	}
}

// Play starts playing a recording, stopping any playback already running.
func (s *Store) Play(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Exists(name) {
		s.log.Warn("play: no such recording", zap.String("file", name))
		return false
	}
	s.stopPlaybackLocked()

	if s.device == nil {
		s.log.Warn("no audio device configured")
		return false
	}
	session, err := s.device.Play(s.Path(name))
	if err != nil {
		s.log.Warn("start playback failed", zap.String("file", name), zap.Error(err))
		return false
	}
	s.playback, s.playbackName = session, name
	return true
}

// Playback returns the active playback session, if any, so callers can wait
// on Done.
func (s *Store) Playback() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback, s.playback != nil
}

// IsPlaying reports whether a playback is still running.
func (s *Store) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playback == nil {
		return false
	}
	select {
	case <-s.playback.Done():
		s.playback, s.playbackName = nil, ""
		return false
	default:
		return true
	}
}

// StopPlayback stops the active playback; it is a no-op when idle.
func (s *Store) StopPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPlaybackLocked()
}

func (s *Store) stopPlaybackLocked() {
	if s.playback == nil {
		return
	}
	if err := s.playback.Stop(); err != nil {
		s.log.Debug("stop playback", zap.String("file", s.playbackName), zap.Error(err))
	}
	s.playback, s.playbackName = nil, ""
}

// DeleteRecording removes a recording. Deleting a missing file is not an
// error; other failures are logged and swallowed.
func (s *Store) DeleteRecording(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playback != nil && s.playbackName == name {
		s.stopPlaybackLocked()
	}
	s.removeLocked(name)
}

func (s *Store) removeLocked(name string) {
	p := s.Path(name)
	if p == "" {
		s.log.Warn("refusing to delete invalid recording name", zap.String("file", name))
		return
	}
	err := os.Remove(p)
	switch {
	case err == nil:
		s.log.Debug("deleted recording", zap.String("file", name))
	case errors.Is(err, fs.ErrNotExist):
	default:
		s.log.Warn("delete recording failed", zap.String("file", name), zap.Error(err))
	}
}

// Import copies audio from r into a new recording and returns its name.
func (s *Store) Import(r io.Reader, ext string) (string, bool) {
	if ext == "" {
		ext = s.ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.New().String() + strings.ToLower(ext)
	p := filepath.Join(s.dir, name)

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		s.log.Warn("import recording failed", zap.Error(err))
		return "", false
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil || n == 0 {
		s.log.Warn("import recording failed", zap.Int64("bytes", n), zap.Error(err))
		os.Remove(p)
		return "", false
	}
	return name, true
}

// List returns the filenames of all recordings on disk, sorted.
func (s *Store) List() ([]string, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, item := range items {
		if item.Type().IsRegular() && !strings.HasPrefix(item.Name(), ".") {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close stops any active recording (discarding it) and playback.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording != nil {
		s.stopRecordingLocked()
		s.removeLocked(s.recordingName)
		s.recording, s.recordingName = nil, ""
	}
	s.stopPlaybackLocked()
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
