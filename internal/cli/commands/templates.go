package commands

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// Embedded names that become dotfiles on disk. Dotfiles are awkward to
// keep inside an embed tree.
var dotfiles = map[string]string{
	"gitignore": ".gitignore",
}

// scaffoldFile is one embedded template file and where it lands relative
// to the project directory.
type scaffoldFile struct {
	src  string
	rel  string
	seed bool
}

// planTemplate lists the files of an embedded template in walk order.
func planTemplate(name string) ([]scaffoldFile, error) {
	root := path.Join("templates", name)
	if _, err := fs.Stat(templateFS, root); err != nil {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	var files []scaffoldFile
	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(p, root+"/")
		if to, ok := dotfiles[path.Base(rel)]; ok {
			rel = path.Join(path.Dir(rel), to)
		}
		files = append(files, scaffoldFile{
			src:  p,
			rel:  filepath.FromSlash(rel),
			seed: strings.HasPrefix(rel, "seeds/"),
		})
		return nil
	})
	return files, err
}

// writeScaffold copies files under dir. Existing files are kept unless
// force is set; the returned slices say which happened to each file.
func writeScaffold(files []scaffoldFile, dir string, force bool) (written, kept []string, err error) {
	for _, f := range files {
		dest := filepath.Join(dir, f.rel)
		if !force {
			if _, statErr := os.Stat(dest); statErr == nil {
				kept = append(kept, f.rel)
				continue
			} else if !errors.Is(statErr, fs.ErrNotExist) {
				return written, kept, statErr
			}
		}

		content, err := templateFS.ReadFile(f.src)
		if err != nil {
			return written, kept, err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return written, kept, err
		}
		if err := os.WriteFile(dest, content, 0o600); err != nil {
			return written, kept, fmt.Errorf("write %s: %w", f.rel, err)
		}
		written = append(written, f.rel)
	}
	return written, kept, nil
}
