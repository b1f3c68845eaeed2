package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"remindbot/internal/domain/registrant"
)

// File names inside the state directory. Three flat files, matching the
// shapes the decision engine needs: a set, a keyed list, and a keyed list.
const (
	registeredFile = "registered.json"
	remindersFile  = "reminders.json"
	upcomingFile   = "upcoming.json"
)

// JSONFileStore persists state as flat JSON files in one directory.
type JSONFileStore struct {
	dir string
}

// NewJSONFileStore creates a store rooted at dir. The directory is created
// on the first Save.
func NewJSONFileStore(dir string) *JSONFileStore {
	return &JSONFileStore{dir: dir}
}

// Load reads the three files and merges them into per-registrant states.
// PRE: none
// POST: Missing files contribute empty state; a file that exists but does
// not parse is an error (operator intervention, not silent reset)
func (s *JSONFileStore) Load(_ context.Context) (map[string]registrant.State, error) {
	var registered []string
	if err := s.readJSON(registeredFile, &registered); err != nil {
		return nil, err
	}
	reminders := make(map[string][]registrant.ReminderKey)
	if err := s.readJSON(remindersFile, &reminders); err != nil {
		return nil, err
	}
	upcoming := make(map[string][]string)
	if err := s.readJSON(upcomingFile, &upcoming); err != nil {
		return nil, err
	}

	states := make(map[string]registrant.State)
	for _, email := range registered {
		st := states[email]
		st.Registered = true
		states[email] = st
	}
	for email, keys := range reminders {
		st := states[email]
		st.RemindersSent = keys
		states[email] = st
	}
	for email, dates := range upcoming {
		st := states[email]
		st.Upcoming = dates
		states[email] = st
	}
	return states, nil
}

// Save writes the three files, each atomically via temp file + rename.
// PRE: states is the complete snapshot
// POST: All three files reflect states; a reader never sees a partial file
func (s *JSONFileStore) Save(_ context.Context, states map[string]registrant.State) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	registered := make([]string, 0, len(states))
	reminders := make(map[string][]registrant.ReminderKey)
	upcoming := make(map[string][]string)
	for email, st := range states {
		if st.Registered {
			registered = append(registered, email)
		}
		if len(st.RemindersSent) > 0 {
			reminders[email] = st.RemindersSent
		}
		if len(st.Upcoming) > 0 {
			upcoming[email] = st.Upcoming
		}
	}

	if err := s.writeJSON(registeredFile, registered); err != nil {
		return err
	}
	if err := s.writeJSON(remindersFile, reminders); err != nil {
		return err
	}
	return s.writeJSON(upcomingFile, upcoming)
}

func (s *JSONFileStore) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("state file %s is corrupt: %w", name, err)
	}
	return nil
}

// writeJSON writes atomically: temp file in the same directory, fsync,
// rename over the target.
func (s *JSONFileStore) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
