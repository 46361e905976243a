package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FilePermissions is the mode of manifest files.
const FilePermissions os.FileMode = 0o644

// Manifest describes one produced archive.
type Manifest struct {
	// ID is the module id.
	ID string `yaml:"id"`
	// Version is the module display version.
	Version string `yaml:"version"`
	// VersionCode is the module integer version.
	VersionCode string `yaml:"version_code"`
	// Archive is the archive filename, relative to the manifest.
	Archive string `yaml:"archive"`
	// Checksum is the base64 SHA-512 of the archive.
	Checksum string `yaml:"checksum"`
	// Size is the archive size in bytes.
	Size int64 `yaml:"size"`
	// Files maps archive entry names to base64 SHA-512 checksums.
	Files map[string]string `yaml:"files"`
	// Commit is the HEAD commit of the project repository, empty outside git.
	Commit string `yaml:"commit,omitempty"`
	// Builder is the modbuilder version that produced the archive.
	Builder string `yaml:"builder,omitempty"`
	// BuildID uniquely identifies the build run.
	BuildID string `yaml:"build_id"`
	// BuiltAt is the UTC time the manifest was produced.
	BuiltAt time.Time `yaml:"built_at"`
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("manifest not found")

// New returns a manifest with a fresh build id and an empty file map.
func New(capacity int) *Manifest {
	return &Manifest{
		Files:   make(map[string]string, capacity),
		BuildID: uuid.NewString(),
		BuiltAt: time.Now().UTC().Truncate(time.Second),
	}
}

// FileRepository persists a manifest as YAML at a fixed path.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// mu serialises access to the manifest file.
	mu sync.Mutex
}

// NewFileRepository creates a repository reading and writing YAML at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest %s: %w", r.path, err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", r.path, err)
	}

	return &m, nil
}

// Save writes the manifest to disk.
func (r *FileRepository) Save(_ context.Context, m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, FilePermissions); err != nil {
		return fmt.Errorf("write manifest %s: %w", r.path, err)
	}

	return nil
}

// SourceRevision returns the HEAD commit of the git repository containing dir.
// It returns an empty string when dir is not inside a repository or HEAD is unborn.
func SourceRevision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("open git repository at %s: %w", dir, err)
	}

	ref, err := repo.Head()
	if err != nil {
		// Fresh repository without commits.
		return "", nil //nolint:nilerr // No revision is a valid answer here.
	}

	return ref.Hash().String(), nil
}
