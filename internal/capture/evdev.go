package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/logging"
)

const (
	evKey = 0x01

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// struct input_event: a timeval (two native longs) then type u16, code u16, value s32.
var (
	timevalSize    = 2 * strconv.IntSize / 8
	inputEventSize = timevalSize + 8
)

var keyboardGlobs = []string{
	"/dev/input/by-path/*-event-kbd",
	"/dev/input/by-id/*-event-kbd",
}

// EvdevSource reads keyboard events from Linux evdev devices. The process
// needs read access to /dev/input (root or the input group).
type EvdevSource struct {
	// Devices lists device paths to read. Empty means autodetect.
	Devices []string
	Log     logrus.FieldLogger

	glob func(string) ([]string, error)
	open func(string) (io.ReadCloser, error)
}

// NewEvdevSource creates a source over the given devices, or over every
// detected keyboard when devices is empty.
func NewEvdevSource(devices []string, log logrus.FieldLogger) *EvdevSource {
	return &EvdevSource{
		Devices: devices,
		Log:     logging.OrDiscard(log),
		glob:    filepath.Glob,
		open:    func(p string) (io.ReadCloser, error) { return os.Open(p) },
	}
}

type deviceEvent struct {
	ev  InputEvent
	err error
}

func (s *EvdevSource) Listen(ctx context.Context, handle func(InputEvent)) error {
	paths, err := s.devices()
	if err != nil {
		return err
	}

	var files []io.ReadCloser
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, p := range paths {
		f, err := s.open(p)
		if err != nil {
			closeAll()
			return fmt.Errorf("open input device %s: %w", p, err)
		}
		files = append(files, f)
		s.Log.WithField("device", p).Info("reading keyboard device")
	}

	ch := make(chan deviceEvent)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(path string, r io.Reader) {
			defer wg.Done()
			readDevice(path, r, ch, stop)
		}(paths[i], f)
	}

	defer func() {
		close(stop)
		closeAll()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case de := <-ch:
			if de.err != nil {
				return de.err
			}
			handle(de.ev)
		}
	}
}

func (s *EvdevSource) devices() ([]string, error) {
	if len(s.Devices) > 0 {
		return s.Devices, nil
	}
	for _, pattern := range keyboardGlobs {
		matches, err := s.glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, errors.New("no keyboard devices found under /dev/input")
}

func readDevice(path string, r io.Reader, ch chan<- deviceEvent, stop <-chan struct{}) {
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			select {
			case ch <- deviceEvent{err: fmt.Errorf("read input device %s: %w", path, err)}:
			case <-stop:
			}
			return
		}
		ev, ok := decodeInputEvent(buf)
		if !ok {
			continue
		}
		select {
		case ch <- deviceEvent{ev: ev}:
		case <-stop:
			return
		}
	}
}

// decodeInputEvent converts one raw input_event record. Only key events
// are reported.
func decodeInputEvent(buf []byte) (InputEvent, bool) {
	typ := binary.LittleEndian.Uint16(buf[timevalSize:])
	if typ != evKey {
		return InputEvent{}, false
	}
	code := binary.LittleEndian.Uint16(buf[timevalSize+2:])
	value := int32(binary.LittleEndian.Uint32(buf[timevalSize+4:]))

	key := KeyFromEvdev(code)
	switch value {
	case keyPress, keyRepeat:
		return InputEvent{Kind: KeyDown, Key: key}, true
	case keyRelease:
		return InputEvent{Kind: KeyUp, Key: key}, true
	}
	return InputEvent{Kind: Other, Key: key}, true
}
