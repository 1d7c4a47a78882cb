// Package textlog implements the human-readable log service: it watches
// processed snapshots for configured trigger attributes and renders
// matching snapshots as text lines to a configurable output target.
//
// The service is glue around the trace core, not part of it: it consumes
// snapshots and the context tree, never the chunk internals. Unlike the
// core's single-owner structures, a Service may be driven from multiple
// application threads; it guards its trigger map and output stream with
// short mutex-held critical sections.
package textlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tracelens/tracelens/trace"
	"github.com/tracelens/tracelens/tree"
)

// Config configures the text log service.
type Config struct {
	// Trigger is a colon-separated list of attribute names for which to
	// write text log entries. Empty means every snapshot is logged.
	Trigger string `yaml:"trigger"`
	// FormatString describes the log line format. If empty, a default
	// one is generated from the trigger attribute names.
	FormatString string `yaml:"formatstring"`
	// Output selects the target: "stdout", "stderr", "none", or a file
	// path.
	Output string `yaml:"output"`
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{Output: "stdout"}
}

// Service renders triggered snapshots as text lines.
//
// Construct one per recording session and wire its AttributeCreated and
// Process methods to the host runtime's callbacks. The service has an
// explicit lifetime owned by the caller; there is no package-level
// instance.
type Service struct {
	tree      *tree.Tree
	formatter *Formatter
	log       logrus.FieldLogger

	triggerNames []string
	triggerMu    sync.Mutex
	triggers     map[uint64]tree.Attribute

	streamMu sync.Mutex
	out      io.Writer
	file     *os.File
}

// New creates a text log service on t. An output target that cannot be
// opened is reported once here via the log and degrades to no output;
// the service itself stays usable either way.
func New(cfg Config, t *tree.Tree) *Service {
	s := &Service{
		tree:     t,
		log:      logrus.WithField("service", "textlog"),
		triggers: make(map[uint64]tree.Attribute),
	}

	for _, name := range strings.Split(cfg.Trigger, ":") {
		if name = strings.TrimSpace(name); name != "" {
			s.triggerNames = append(s.triggerNames, name)
		}
	}

	formatStr := cfg.FormatString
	if formatStr == "" {
		formatStr = defaultFormatString(s.triggerNames)
	}
	s.formatter = NewFormatter(formatStr, t)

	s.initStream(cfg.Output)

	// Attributes registered before the service existed still count as
	// triggers.
	for _, name := range s.triggerNames {
		if attr, ok := t.Attribute(name); ok {
			s.triggers[attr.ID()] = attr
		}
	}

	s.log.Debug("Registered text log service")

	return s
}

func (s *Service) initStream(output string) {
	switch output {
	case "", "none":
		s.out = nil
	case "stdout":
		s.out = os.Stdout
	case "stderr":
		s.out = os.Stderr
	default:
		f, err := os.Create(output)
		if err != nil {
			s.log.WithError(err).Errorf("Could not open text log file %s", output)
			s.out = nil
			return
		}
		s.file = f
		s.out = f
	}
}

// defaultFormatString builds a one-line format from the trigger attribute
// names, dividing roughly 80 columns between them, with an inclusive
// duration column at the end.
func defaultFormatString(attrNames []string) string {
	if len(attrNames) < 1 {
		return "%time.inclusive.duration%"
	}

	nameSizes := 0
	for _, s := range attrNames {
		nameSizes += len(s)
	}

	w := (80 - 10 - nameSizes - 2*len(attrNames)) / len(attrNames)
	if w < 0 {
		w = 0
	}

	var sb strings.Builder
	for _, s := range attrNames {
		fmt.Fprintf(&sb, "%s=%%[%d]%s%% ", s, w, s)
	}
	sb.WriteString("%[8r]time.inclusive.duration%")

	return sb.String()
}

// AttributeCreated is the attribute creation callback: it keeps the
// formatter's field resolution current and registers trigger attributes.
func (s *Service) AttributeCreated(attr tree.Attribute) {
	s.formatter.UpdateAttribute(attr)

	for _, name := range s.triggerNames {
		if attr.Name() == name {
			s.triggerMu.Lock()
			s.triggers[attr.ID()] = attr
			s.triggerMu.Unlock()

			return
		}
	}
}

// Process renders snap to the output target when it carries one of the
// trigger attributes (or unconditionally when no triggers are
// configured). The line is formatted outside the stream lock; only the
// final write is serialized. Close may race with Process, so the target
// is re-checked under the lock before writing.
func (s *Service) Process(snap *trace.Snapshot) {
	s.streamMu.Lock()
	out := s.out
	s.streamMu.Unlock()

	if out == nil || !s.triggered(snap) {
		return
	}

	var line bytes.Buffer
	if err := s.formatter.Format(&line, s.tree, snap); err != nil {
		return
	}
	line.WriteByte('\n')

	s.streamMu.Lock()
	defer s.streamMu.Unlock()

	if s.out == nil {
		return // closed while the line was being formatted
	}
	if _, err := s.out.Write(line.Bytes()); err != nil {
		s.log.WithError(err).Warn("Text log write failed")
	}
}

func (s *Service) triggered(snap *trace.Snapshot) bool {
	if len(s.triggerNames) == 0 {
		return true
	}

	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()

	for id := range s.triggers {
		if _, ok := lookupValue(s.tree, snap, id); ok {
			return true
		}
	}

	return false
}

// Close releases the output file, if one was opened.
func (s *Service) Close() error {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.out = nil

		return err
	}

	return nil
}
