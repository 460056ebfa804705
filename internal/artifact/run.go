// Package artifact keeps the manifest of files produced by one analysis run.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/aerofit-cli/internal/utils"
)

// ManifestFileName is the manifest written at the root of every run directory.
const ManifestFileName = "run.json"

// Run represents an analysis run persisted on disk.
type Run struct {
	ID            string               `json:"id"`
	Dataset       string               `json:"dataset"`
	Source        string               `json:"source"`
	Rows          int                  `json:"rows"`
	IQRMultiplier float64              `json:"iqr_multiplier,omitempty"`
	Artifacts     map[string]*Artifact `json:"artifacts"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the run.json
	rootDir string `json:"-"`
}

// NewRun constructs an in-memory run for the dataset at source. Call Save() to persist.
func NewRun(source, rootDir string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Dataset:   filepath.Base(source),
		Source:    source,
		Artifacts: make(map[string]*Artifact),
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   rootDir,
	}
}

// LoadRun loads a run.json from the provided directory.
func LoadRun(dir string) (*Run, error) {
	path := filepath.Join(dir, ManifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run manifest: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run manifest: %w", err)
	}
	if r.Artifacts == nil {
		r.Artifacts = make(map[string]*Artifact)
	}
	r.rootDir = dir
	return &r, nil
}

// FindRun loads the manifest of the run containing start.
func FindRun(start string) (*Run, error) {
	dir, err := utils.FindUp(start, ManifestFileName)
	if err != nil {
		return nil, err
	}
	return LoadRun(dir)
}

// RootDir returns the on-disk run directory path.
func (r *Run) RootDir() string { return r.rootDir }

// Save writes run.json using atomic write.
func (r *Run) Save() error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	r.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(r.rootDir, ManifestFileName), data)
}

// WriteFile atomically writes data to name inside the run directory and records it.
func (r *Run) WriteFile(name string, data []byte, kind Kind, description string) (string, error) {
	if r.rootDir == "" {
		return "", errors.New("run directory not set")
	}
	path := filepath.Join(r.rootDir, name)
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, r.AddArtifact(path, kind, description)
}

// AddArtifact records an existing file. Paths inside the run directory are stored relative.
func (r *Run) AddArtifact(path string, kind Kind, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("artifact %s is a directory", path)
	}
	rel := path
	if r.rootDir != "" {
		if p, err := filepath.Rel(r.rootDir, path); err == nil && !strings.HasPrefix(p, "..") {
			rel = filepath.ToSlash(p)
		}
	}
	// rewriting the same file replaces its entry
	for id, a := range r.Artifacts {
		if a.Path == rel {
			delete(r.Artifacts, id)
		}
	}
	id := uuid.NewString()
	if r.Artifacts == nil {
		r.Artifacts = make(map[string]*Artifact)
	}
	r.Artifacts[id] = &Artifact{
		ID:          id,
		Path:        rel,
		Kind:        kind,
		Description: description,
		Bytes:       info.Size(),
		WrittenAt:   info.ModTime(),
	}
	r.UpdatedAt = time.Now()
	return nil
}

// List returns artifacts ordered by kind then path.
func (r *Run) List() []*Artifact {
	out := make([]*Artifact, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Summary renders the manifest in the report's bracketed-section style.
func (r *Run) Summary() string {
	var sb strings.Builder
	sb.WriteString("[RUN]\n")
	sb.WriteString(fmt.Sprintf("ID: %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Dataset: %s (%d rows)\n", r.Dataset, r.Rows))
	if r.IQRMultiplier > 0 {
		sb.WriteString(fmt.Sprintf("IQR multiplier: %g\n", r.IQRMultiplier))
	}
	sb.WriteString(fmt.Sprintf("Created: %s\n", r.CreatedAt.Format(time.RFC3339)))
	sb.WriteString("\n[ARTIFACTS]\n")
	if len(r.Artifacts) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, a := range r.List() {
		sb.WriteString(fmt.Sprintf("- %s: %s (%d bytes)", a.Kind, a.Path, a.Bytes))
		if a.Description != "" {
			sb.WriteString(" - ")
			sb.WriteString(a.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
