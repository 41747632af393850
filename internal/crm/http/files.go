package http

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/abodyssee/crm/pkg/slogx"
)

var (
	errEmptyPath   = errors.New("empty path")
	errPathEscapes = errors.New("path escapes the private directory")
)

// FileResolver serves files from the private directory. Every lookup goes
// through an os.Root, so nothing outside the directory can be opened.
type FileResolver struct {
	dir  string
	root *os.Root
}

// NewFileResolver opens dir as the private root.
func NewFileResolver(dir string) (*FileResolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, err
	}
	return &FileResolver{dir: abs, root: root}, nil
}

func (f *FileResolver) Close() error {
	return f.root.Close()
}

// ServeProtected writes the file at rel, relative to the private
// directory. Leading separators and "../" segments are dropped; a path
// that still leaves the directory (through a symlink) is refused with 400.
// A missing file, a directory or an empty path is 404.
func (f *FileResolver) ServeProtected(w http.ResponseWriter, r *http.Request, rel string) {
	f.serve(w, r, "", rel)
}

// ServeWithin is ServeProtected confined to the dir subtree: rel is taken
// relative to dir, and a path or symlink that resolves outside dir is
// refused with 400.
func (f *FileResolver) ServeWithin(w http.ResponseWriter, r *http.Request, dir, rel string) {
	f.serve(w, r, path.Clean(dir), path.Join(dir, rel))
}

func (f *FileResolver) serve(w http.ResponseWriter, r *http.Request, scope, rel string) {
	log := slogx.FromContext(r.Context())

	name, err := f.resolve(scope, rel)
	switch {
	case errors.Is(err, errEmptyPath):
		http.Error(w, "Fichier introuvable.", http.StatusNotFound)
		return
	case err != nil:
		log.Warn("refused private file path", "path", rel, "error", err)
		http.Error(w, "Chemin invalide.", http.StatusBadRequest)
		return
	}

	file, err := f.root.Open(name)
	if err != nil {
		f.openFailed(w, r, name, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		f.openFailed(w, r, name, err)
		return
	}
	if info.IsDir() {
		http.Error(w, "Fichier introuvable.", http.StatusNotFound)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (f *FileResolver) openFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "Fichier introuvable.", http.StatusNotFound)
		return
	}
	slogx.FromContext(r.Context()).Error("failed to open private file", "path", name, "error", err)
	http.Error(w, msgServerError, http.StatusInternalServerError)
}

// resolve cleans rel into a slash-separated name local to the root. A
// non-empty scope is a sub-directory the name must stay in.
func (f *FileResolver) resolve(scope, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", errPathEscapes
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	if strings.TrimSpace(rel) == "" {
		return "", errEmptyPath
	}

	name := path.Clean(rel)
	for {
		trimmed := strings.TrimPrefix(strings.TrimLeft(name, "/"), "../")
		if trimmed == name {
			break
		}
		name = trimmed
	}
	if name == "" || name == "." || name == ".." {
		return "", errEmptyPath
	}
	if !fs.ValidPath(name) {
		return "", errPathEscapes
	}
	if scope != "" && name != scope && !strings.HasPrefix(name, scope+"/") {
		return "", errPathEscapes
	}

	// os.Root refuses escaping symlinks too, but reports them like any
	// other I/O error; check here so they answer 400.
	target, err := filepath.EvalSymlinks(filepath.Join(f.dir, filepath.FromSlash(name)))
	if err != nil {
		return name, nil
	}
	bases := []string{f.dir}
	if scope != "" {
		if base, err := filepath.EvalSymlinks(filepath.Join(f.dir, filepath.FromSlash(scope))); err == nil {
			bases = append(bases, base)
		}
	}
	for _, base := range bases {
		if !within(base, target) {
			return "", errPathEscapes
		}
	}
	return name, nil
}

func within(base, target string) bool {
	inside, err := filepath.Rel(base, target)
	return err == nil && inside != ".." && !strings.HasPrefix(inside, ".."+string(filepath.Separator))
}
