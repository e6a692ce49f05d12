package audio

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Selector picks a random track from a directory of audio files. The
// random source is injectable so tests can assert a deterministic
// selection.
type Selector struct {
	dir  string
	exts []string
	rnd  *rand.Rand
}

// NewSelector creates a Selector for the given directory. exts is the
// list of file extensions (with dot) that count as playable. A nil rnd
// gets a time-seeded source.
func NewSelector(dir string, exts []string, rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	lowered := make([]string, len(exts))
	for i, ext := range exts {
		lowered[i] = strings.ToLower(ext)
	}
	return &Selector{
		dir:  dir,
		exts: lowered,
		rnd:  rnd,
	}
}

// Tracks enumerates the playable files in the directory, sorted by
// name. The directory is re-read on every call so tracks can be added
// or removed while the installation is running. An empty result is not
// an error.
func (s *Selector) Tracks() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("can't read track directory %s: %w", s.dir, err)
	}

	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range s.exts {
			if ext == want {
				tracks = append(tracks, filepath.Join(s.dir, entry.Name()))
				break
			}
		}
	}
	return tracks, nil
}

// Pick returns one track chosen uniformly at random. It returns
// ErrNoTracks when the directory holds no playable file.
func (s *Selector) Pick() (string, error) {
	tracks, err := s.Tracks()
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoTracks, s.dir)
	}
	return tracks[s.rnd.Intn(len(tracks))], nil
}
