package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// FilePlaceholder is replaced by the recording path in command templates.
const FilePlaceholder = "{file}"

// stopTimeout is how long a stopped process gets to exit before it is killed.
const stopTimeout = 5 * time.Second

// CommandDevice records and plays through external programs such as ffmpeg
// and ffplay. Each template is an argv with FilePlaceholder in it.
type CommandDevice struct {
	RecordCommand []string
	PlayCommand   []string
}

// ParseCommand splits a command template on whitespace.
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// DefaultRecordCommand returns an ffmpeg capture command for the platform's
// default microphone.
func DefaultRecordCommand() string {
	input := "-f alsa -i default"
	switch runtime.GOOS {
	case "darwin":
		input = "-f avfoundation -i :0"
	case "windows":
		input = "-f dshow -i audio=default"
	}
	return "ffmpeg -hide_banner -loglevel error -nostdin " + input + " -y " + FilePlaceholder
}

// DefaultPlayCommand plays a file without opening a window.
func DefaultPlayCommand() string {
	return "ffplay -hide_banner -loglevel error -nodisp -autoexit " + FilePlaceholder
}

// MicrophoneAvailable stands in for a permission prompt: recording is
// allowed when the record program can be found.
func (d CommandDevice) MicrophoneAvailable() bool {
	if len(d.RecordCommand) == 0 {
		return false
	}
	_, err := exec.LookPath(d.RecordCommand[0])
	return err == nil
}

func (d CommandDevice) Record(path string) (Session, error) {
	return startProcess(d.RecordCommand, path)
}

func (d CommandDevice) Play(path string) (Session, error) {
	return startProcess(d.PlayCommand, path)
}

func startProcess(template []string, path string) (*processSession, error) {
	if len(template) == 0 {
		return nil, errors.New("no command configured")
	}
	args := make([]string, len(template))
	for i, a := range template {
		args[i] = strings.ReplaceAll(a, FilePlaceholder, path)
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	p := &processSession{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type processSession struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	stopOnce sync.Once
}

func (p *processSession) Done() <-chan struct{} {
	return p.done
}

// Stop interrupts the process so encoders can finalise the file, and kills
// it if it has not exited after stopTimeout.
func (p *processSession) Stop() error {
	var stopErr error
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
			p.cmd.Process.Kill()
		}
		select {
		case <-p.done:
		case <-time.After(stopTimeout):
			p.cmd.Process.Kill()
			<-p.done
			stopErr = fmt.Errorf("%s did not stop in %s", p.cmd.Path, stopTimeout)
		}
	})
	return stopErr
}
