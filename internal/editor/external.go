package editor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	logger "github.com/JinxCappa/SOPSie/internal/logging"
	"github.com/JinxCappa/SOPSie/internal/ui"
)

// saveDebounce coalesces the burst of fsnotify events most editors
// produce for a single save.
const saveDebounce = 100 * time.Millisecond

// External drives a terminal editor ($EDITOR) as the editing surface.
//
// Terminal editors have no notification API, so External synthesizes the
// event stream: a write to a watched document becomes EventSaved, the
// editor process exiting becomes EventClosed. View-column hints are
// accepted and ignored.
type External struct {
	Command string
	Logger  logger.Logger

	// Stdin/Stdout are the confirm prompt's terminal; overridable in tests.
	Stdin  io.Reader
	Stdout io.Writer

	watcher *fsnotify.Watcher
	events  chan Event

	mu       sync.Mutex
	open     map[string]*exec.Cmd // path -> running editor process
	watched  map[string]int       // directory -> tracked file count
	debounce map[string]*time.Timer
	closed   bool
}

// NewExternal creates an External surface. An empty command falls back to
// $EDITOR, then vi.
func NewExternal(command string, log logger.Logger) (*External, error) {
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = "vi"
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	e := &External{
		Command:  command,
		Logger:   log,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		watcher:  watcher,
		events:   make(chan Event, 32),
		open:     make(map[string]*exec.Cmd),
		watched:  make(map[string]int),
		debounce: make(map[string]*time.Timer),
	}

	go e.pump()

	return e, nil
}

// pump translates fsnotify events for tracked documents into EventSaved.
func (e *External) pump() {
	for {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := event.Name

			e.mu.Lock()
			_, tracked := e.open[path]
			if !tracked {
				e.mu.Unlock()
				continue
			}
			// Editors save in bursts (truncate+write, or write+rename);
			// debounce to a single EventSaved.
			if timer, ok := e.debounce[path]; ok {
				timer.Stop()
			}
			e.debounce[path] = time.AfterFunc(saveDebounce, func() {
				e.emit(Event{Type: EventSaved, Path: path})
			})
			e.mu.Unlock()

		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.Logger.Warnf("file watcher error: %v", err)
		}
	}
}

func (e *External) emit(event Event) {
	// The send stays under the lock so Close cannot close the channel
	// between the closed check and the send. The channel is buffered and
	// the send non-blocking, so the lock is never held for long.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	select {
	case e.events <- event:
	default:
		e.Logger.Warnf("dropping editor event %s for %s", event.Type, event.Path)
	}
}

// OpenDocument launches the editor on path and begins watching it for
// saves. The returned handle is the document path.
func (e *External) OpenDocument(ctx context.Context, path string, opts OpenOptions) (Handle, error) {
	fields := strings.Fields(e.Command)
	args := append(fields[1:], path)

	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	e.mu.Lock()
	if _, already := e.open[path]; already {
		e.mu.Unlock()
		return "", fmt.Errorf("document already open: %s", path)
	}

	dir := filepath.Dir(path)
	if e.watched[dir] == 0 {
		if err := e.watcher.Add(dir); err != nil {
			e.mu.Unlock()
			return "", fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	if err := cmd.Start(); err != nil {
		if e.watched[dir] == 0 {
			_ = e.watcher.Remove(dir)
		}
		e.mu.Unlock()
		return "", fmt.Errorf("failed to launch editor: %w", err)
	}

	e.open[path] = cmd
	e.watched[dir]++
	e.mu.Unlock()

	e.emit(Event{Type: EventOpened, Path: path})

	go func() {
		_ = cmd.Wait()
		e.forget(path)
		e.emit(Event{Type: EventClosed, Path: path})
	}()

	return Handle(path), nil
}

// forget stops tracking a document. Idempotent.
func (e *External) forget(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, tracked := e.open[path]; !tracked {
		return
	}
	delete(e.open, path)

	if timer, ok := e.debounce[path]; ok {
		timer.Stop()
		delete(e.debounce, path)
	}

	dir := filepath.Dir(path)
	e.watched[dir]--
	if e.watched[dir] <= 0 {
		delete(e.watched, dir)
		_ = e.watcher.Remove(dir)
	}
}

// CloseDocument asks the editor process for the document to exit. The
// EventClosed notification is emitted by the process-exit handler, so it
// fires exactly once whether the user or the manager closed the view.
func (e *External) CloseDocument(ctx context.Context, handle Handle) error {
	path := string(handle)

	e.mu.Lock()
	cmd, tracked := e.open[path]
	e.mu.Unlock()

	if !tracked {
		// Already gone; not an error.
		return nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal editor for %s: %w", path, err)
	}

	return nil
}

// Confirm presents a numbered choice on the terminal.
func (e *External) Confirm(ctx context.Context, prompt string, options []string) (string, error) {
	fmt.Fprintln(e.Stdout, prompt)
	for i, option := range options {
		fmt.Fprintf(e.Stdout, "  %d) %s\n", i+1, option)
	}
	fmt.Fprintf(e.Stdout, "Choice [1-%d]: ", len(options))

	reader := bufio.NewReader(e.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read choice: %w", err)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(options) {
		fmt.Fprintln(e.Stdout, ui.Error.Sprint("✗")+" Invalid choice")
		return "", fmt.Errorf("invalid choice %q", strings.TrimSpace(line))
	}

	return options[choice-1], nil
}

// Events returns the synthesized notification stream.
func (e *External) Events() <-chan Event {
	return e.events
}

// Close terminates any remaining editor processes and releases the watcher.
func (e *External) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.events)
	remaining := make([]*exec.Cmd, 0, len(e.open))
	for _, cmd := range e.open {
		remaining = append(remaining, cmd)
	}
	e.mu.Unlock()

	for _, cmd := range remaining {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	return e.watcher.Close()
}
