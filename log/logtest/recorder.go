/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-cachekit/log"
)

// RecordedEntry is a logged message together with its fields (own and derived via With).
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField returns the first field with the given key.
// For string fields the value is in Field.Bytes, for integer ones in Field.Int.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			field := re.Fields[i]
			return &field, true
		}
	}
	return nil, false
}

// StringField returns the value of the string field with the given key.
func (re *RecordedEntry) StringField(key string) (string, bool) {
	field, ok := re.FindField(key)
	if !ok || field.Type != logf.FieldTypeBytesToString {
		return "", false
	}
	return string(field.Bytes), true
}

// IntField returns the value of the integer field with the given key.
func (re *RecordedEntry) IntField(key string) (int64, bool) {
	field, ok := re.FindField(key)
	if !ok {
		return 0, false
	}
	switch field.Type {
	case logf.FieldTypeInt64, logf.FieldTypeInt32, logf.FieldTypeInt16, logf.FieldTypeInt8:
		return field.Int, true
	}
	return 0, false
}

// entryLog is shared by a Recorder and all loggers derived from it.
type entryLog struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic // logf passes entries by value
func (el *entryLog) WriteEntry(e logf.Entry) {
	fields := make([]log.Field, 0, len(e.Fields)+len(e.DerivedFields))
	fields = append(fields, e.Fields...)
	fields = append(fields, e.DerivedFields...)

	el.mu.Lock()
	el.entries = append(el.entries, RecordedEntry{
		LoggerName: e.LoggerName,
		Fields:     fields,
		Level:      levelFromLogf(e.Level),
		Time:       e.Time,
		Text:       e.Text,
	})
	el.mu.Unlock()
}

func (el *entryLog) filter(match func(entry *RecordedEntry) bool, limit int) []RecordedEntry {
	el.mu.RLock()
	defer el.mu.RUnlock()
	var res []RecordedEntry
	for i := range el.entries {
		if limit > 0 && len(res) == limit {
			break
		}
		if match(&el.entries[i]) {
			res = append(res, el.entries[i])
		}
	}
	return res
}

// Recorder is a log.FieldLogger that keeps every entry (debug level included) in memory.
type Recorder struct {
	*log.LogfAdapter
	log *entryLog
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	el := &entryLog{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, el)}, el}
}

// With returns a Recorder writing to the same entry log with the additional fields.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.log}
}

// WithLevel returns a Recorder writing to the same entry log that drops entries below level.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.log}
}

// Entries returns a copy of all recorded entries in logging order.
func (r *Recorder) Entries() []RecordedEntry {
	return r.log.filter(func(*RecordedEntry) bool { return true }, 0)
}

// FindEntry returns the first entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	return r.FindEntryByFilter(func(entry RecordedEntry) bool { return entry.Text == msg })
}

// FindEntryByFilter returns the first entry accepted by filter.
func (r *Recorder) FindEntryByFilter(filter func(entry RecordedEntry) bool) (RecordedEntry, bool) {
	found := r.log.filter(func(e *RecordedEntry) bool { return filter(*e) }, 1)
	if len(found) == 0 {
		return RecordedEntry{}, false
	}
	return found[0], true
}

// FindAllEntriesByFilter returns all entries accepted by filter.
func (r *Recorder) FindAllEntriesByFilter(filter func(entry RecordedEntry) bool) []RecordedEntry {
	return r.log.filter(func(e *RecordedEntry) bool { return filter(*e) }, 0)
}

// CountEntries returns the number of entries with the given message.
func (r *Recorder) CountEntries(msg string) int {
	return len(r.log.filter(func(e *RecordedEntry) bool { return e.Text == msg }, 0))
}

// Messages returns texts of the entries logged exactly at level.
func (r *Recorder) Messages(level log.Level) []string {
	var msgs []string
	for _, e := range r.log.filter(func(e *RecordedEntry) bool { return e.Level == level }, 0) {
		msgs = append(msgs, e.Text)
	}
	return msgs
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.log.mu.Lock()
	r.log.entries = nil
	r.log.mu.Unlock()
}

func levelFromLogf(level logf.Level) log.Level {
	switch level {
	case logf.LevelError:
		return log.LevelError
	case logf.LevelWarn:
		return log.LevelWarn
	case logf.LevelDebug:
		return log.LevelDebug
	default:
		return log.LevelInfo
	}
}
