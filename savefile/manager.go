package savefile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/stigctl/engine/apply"
	"github.com/stigctl/engine/store"
)

// Manager appends SaveEntry records to a JSONL file and replays them.
type Manager struct {
	path string
}

// New returns a Manager writing to path.
func New(path string) *Manager {
	return &Manager{path: path}
}

// Save appends one entry to the journal, opening it in append mode and
// flushing before returning.
func (m *Manager) Save(entry SaveEntry) error {
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("savefile: open %s: %w", m.path, err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("savefile: encode entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("savefile: write entry: %w", err)
	}
	return f.Sync()
}

// SaveOrLog appends entry and logs (rather than returns) any error, for
// call sites that must not let journal IO failure abort the caller's
// primary operation.
func (m *Manager) SaveOrLog(entry SaveEntry) {
	if err := m.Save(entry); err != nil {
		fmt.Fprintf(os.Stderr, "savefile: failed to write entry: %v\n", err)
	}
}

// LoadEntries reads every entry from the journal. A missing file is not
// an error; it is treated as an empty journal. A line that fails to parse
// is skipped with a message on stderr rather than aborting the load.
func (m *Manager) LoadEntries() ([]SaveEntry, error) {
	f, err := os.Open(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("savefile: open %s: %w", m.path, err)
	}
	defer f.Close()

	var entries []SaveEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry SaveEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fmt.Fprintf(os.Stderr, "savefile: failed to parse entry: %v - line: %s\n", err, line)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("savefile: scan %s: %w", m.path, err)
	}
	return entries, nil
}

// RestoreResult summarizes a replay pass over the journal.
type RestoreResult struct {
	Successful int
	Failed     int
	Skipped    int
	Errors     []string
}

// TotalProcessed is Successful+Failed; Skipped entries were never applied.
func (r RestoreResult) TotalProcessed() int { return r.Successful + r.Failed }

func (r RestoreResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "restore completed: %d successful, %d failed, %d skipped", r.Successful, r.Failed, r.Skipped)
	if len(r.Errors) > 0 {
		b.WriteString("\nerrors:\n")
		b.WriteString(strings.Join(r.Errors, "\n"))
	}
	return b.String()
}

// RestoreToStore replays every Success-status entry in the journal
// against beginner, one operation at a time. Entries whose metadata
// status is not Success are skipped, never applied. Every core operation
// is already idempotent at the store layer (create/delete report
// created/deleted rather than erroring on a missing or existing target),
// so replay only fails when the recorded operation itself is malformed.
func RestoreToStore(ctx context.Context, m *Manager, beginner store.Beginner) (RestoreResult, error) {
	entries, err := m.LoadEntries()
	if err != nil {
		return RestoreResult{}, err
	}

	var result RestoreResult
	for _, entry := range entries {
		if !entry.IsSuccess() {
			result.Skipped++
			continue
		}

		resp, err := apply.Run(ctx, beginner, apply.Request{Operations: []apply.Operation{entry.Operation}})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to restore %s: %v", entry.Operation.Type, err))
			continue
		}
		if !resp.Committed {
			result.Failed++
			msg := "unknown error"
			if len(resp.Results) > 0 {
				msg = resp.Results[0].Error
			}
			result.Errors = append(result.Errors, fmt.Sprintf("failed to restore %s: %s", entry.Operation.Type, msg))
			continue
		}
		result.Successful++
	}
	return result, nil
}
