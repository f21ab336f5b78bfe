package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/flatstore/siser"

	"github.com/toon-format/toon-go"
)

var (
	log       *WriteDaily
	errorsLog *WriteDaily
	eventsLog *WriteDaily

	// if true, Verbosef() will log messages
	Verbose bool

	// Logf() also prints to Output, set to nil to silence
	Output io.Writer = os.Stdout

	onLog func(s string)
	mu    sync.Mutex
)

// WriteDaily appends to a file named after the current UTC day,
// e.g. 2025-01-31.txt, in Dir
type WriteDaily struct {
	Dir         string
	currentDate int // YYYYMMDD format
	file        *os.File
	mu          sync.Mutex
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{
		Dir: dir,
	}
}

// dayFromTime converts a time.Time to YYYYMMDD integer format
func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Path returns path of the file for a given time
func (w *WriteDaily) Path(t time.Time) string {
	return filepath.Join(w.Dir, t.UTC().Format("2006-01-02")+".txt")
}

func (w *WriteDaily) writer() (io.Writer, error) {
	now := time.Now().UTC()
	today := dayFromTime(now)

	if w.file != nil && w.currentDate != today {
		if err := w.close(); err != nil {
			return nil, err
		}
	}
	if w.file == nil {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(w.Path(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.currentDate = today
	}
	return w.file, nil
}

// Write writes data to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	wr, err := w.writer()
	if err != nil {
		return err
	}
	_, err = wr.Write(d)
	return err
}

// WriteString writes a string to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) WriteString(s string) error {
	return w.Write([]byte(s))
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.currentDate = 0
	return err
}

// Close closes the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.close()
}

// Sync flushes the daily log file to disk
// it's safe to call on nil receiver
func (w *WriteDaily) Sync() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

type Config struct {
	// directory where log files are stored
	// each log type (regular, errors, events) has its own subdirectory
	Dir string
	// called for every Logf() call
	// allows sending logs to other places
	OnLog func(s string)
}

// Init enables logging to files in config.Dir. Without Init
// messages are only printed to Output.
func Init(config *Config) {
	dir := config.Dir
	mu.Lock()
	defer mu.Unlock()
	log = NewWriteDaily(filepath.Join(dir, "log"))
	errorsLog = NewWriteDaily(filepath.Join(dir, "errors"))
	// this doesn't create files so if nothing emits events, it's a no-op
	eventsLog = NewWriteDaily(filepath.Join(dir, "events"))
	onLog = config.OnLog
}

// closeWriteDaily closes the WriteDaily and sets its pointer to nil
// it's safe to call with nil pointer
func closeWriteDaily(wd **WriteDaily) {
	if *wd == nil {
		return
	}
	(*wd).Sync()
	(*wd).Close()
	*wd = nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeWriteDaily(&log)
	closeWriteDaily(&errorsLog)
	closeWriteDaily(&eventsLog)
	onLog = nil
}

// EventsWriter returns the events log, nil before Init
func EventsWriter() *WriteDaily {
	mu.Lock()
	defer mu.Unlock()
	return eventsLog
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	mu.Lock()
	w, cb, out := log, onLog, Output
	mu.Unlock()
	if out != nil {
		fmt.Fprint(out, s)
	}
	w.WriteString(s)
	if cb != nil {
		cb(s)
	}
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		s := frame.File + ":" + strconv.Itoa(frame.Line)
		cs = append(cs, s)
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

// Errorf logs an error message along with the callstack
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	cs := GetCallstack(2)
	msg := s
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	msg += cs + "\n"
	Logf("%s", msg)
	mu.Lock()
	w := errorsLog
	mu.Unlock()
	w.WriteString(msg)
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "error is: %v", err) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		// shouldn't happen but just in case
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf("%s", s)
	return true
}

func panicIf(cond bool, msg string) {
	if cond {
		panic(msg)
	}
}

// simpleTypeToStr converts simple types to string
// panics if v is of complex type
func simpleTypeToStr(v any) string {
	rt := reflect.TypeOf(v)
	kind := rt.Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("toStr: value is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprintf("%v", v)
}

// Event logs an event with key/value pairs to the events log as
// a siser record whose data is the toon encoding of the values
func Event(name string, vals ...any) {
	n := len(vals)
	panicIf(n%2 != 0, "Event: odd number of key/value args")
	w := EventsWriter()
	if w == nil {
		return
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k := simpleTypeToStr(vals[i])
			m[k] = vals[i+1]
		}
		var err error
		d, err = toon.Marshal(m)
		if err != nil {
			Logf("Event: toon.Marshal() failed with '%s'\n", err)
			return
		}
	}
	d2 := siser.MarshalLine(name, time.Now().UTC(), d, nil)
	w.Write(d2)
}

func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}
