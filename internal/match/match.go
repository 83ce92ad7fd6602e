// Package match reconciles roster filename references against the image
// files actually present under a root folder. Roster cells are hand-edited:
// extensions may be wrong, batch prefixes may or may not be present, and one
// subject may reference several images, so lookups are fuzzy and every
// unresolved token is a recoverable failure rather than an error.
package match

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"photojobs/internal/logging"
	"photojobs/internal/roster"
)

// Status classifies how completely a roster record resolved to files.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusPartial   Status = "partially-matched"
	StatusUnmatched Status = "unmatched"
)

// UnknownBatch labels files whose stem carries no recognizable batch prefix.
const UnknownBatch = "UNKNOWN"

// File is one indexed image file under the root.
type File struct {
	Path    string // absolute or root-joined path
	RelPath string // path relative to the index root
	Stem    string // filename without extension
	Ext     string // extension including the dot, original case
	Batch   string // derived batch label, or UnknownBatch
}

// Result pairs a roster record with the files resolved for it.
type Result struct {
	Record     roster.Record
	Files      []File
	Unresolved []string // tokens that matched nothing
	Status     Status
}

var (
	batchPrefix    = regexp.MustCompile(`^[A-Za-z]+\d{2}`)
	imageExtension = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".tif": {}, ".tiff": {},
	}
)

// fold applies Unicode case folding; a Caser is stateful, so construct one
// per call rather than sharing an instance across goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

// IsImage reports whether the file name carries a recognized image extension.
func IsImage(name string) bool {
	_, ok := imageExtension[strings.ToLower(filepath.Ext(name))]
	return ok
}

// BatchOf derives the batch label from a filename stem: the leading
// alphabetic prefix plus two digits, or UnknownBatch.
func BatchOf(stem string) string {
	if m := batchPrefix.FindString(stem); m != "" {
		return m
	}
	return UnknownBatch
}

// Index is an immutable snapshot of the image files under a root, keyed by
// case-folded stem. Building it twice over an unchanged tree yields an
// identical index.
type Index struct {
	root   string
	byStem map[string][]File
	count  int
}

// BuildIndex walks root recursively and indexes every regular image file.
func BuildIndex(root string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "matcher"))

	ix := &Index{root: root, byStem: make(map[string][]File)}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if _, ok := imageExtension[strings.ToLower(ext)]; !ok {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = d.Name()
		}
		stem := strings.TrimSuffix(d.Name(), ext)
		file := File{
			Path:    path,
			RelPath: rel,
			Stem:    stem,
			Ext:     ext,
			Batch:   BatchOf(stem),
		}
		key := fold(stem)
		ix.byStem[key] = append(ix.byStem[key], file)
		ix.count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	for key := range ix.byStem {
		sortFiles(ix.byStem[key])
	}

	logger.Info("indexed root",
		logging.String("root", root),
		logging.Int("files", ix.count))
	return ix, nil
}

// Len reports how many image files the index holds.
func (ix *Index) Len() int { return ix.count }

// Lookup resolves one roster filename token to candidate files. The token's
// extension is ignored; every file sharing the stem is returned so JPG+PNG
// pairs from one capture stay together. Tokens carrying a batch prefix also
// try the stem with the prefix stripped, both as an exact stem and as a
// trailing "_<stem>" suffix, to cover trees renamed under legacy naming.
func (ix *Index) Lookup(token string) []File {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	stem := token
	if ext := filepath.Ext(token); ext != "" {
		if _, ok := imageExtension[strings.ToLower(ext)]; ok {
			stem = strings.TrimSuffix(token, ext)
		}
	}
	// Roster cells sometimes carry a path; match on the base name only.
	stem = filepath.Base(stem)

	seen := make(map[string]struct{})
	var found []File
	add := func(files []File) {
		for _, f := range files {
			if _, dup := seen[f.Path]; dup {
				continue
			}
			seen[f.Path] = struct{}{}
			found = append(found, f)
		}
	}

	add(ix.byStem[fold(stem)])

	if prefix := batchPrefix.FindString(stem); prefix != "" && len(found) == 0 {
		bare := strings.TrimPrefix(strings.TrimPrefix(stem, prefix), "_")
		if bare != "" {
			add(ix.byStem[fold(bare)])
			suffix := fold("_" + bare)
			for _, files := range ix.byStem {
				for _, f := range files {
					if strings.HasSuffix(fold(f.Stem), suffix) {
						add([]File{f})
					}
				}
			}
		}
	}

	sortFiles(found)
	return found
}

// Reconcile resolves every roster record against the index, preserving
// record order. It never fails: records that resolve nothing are reported as
// unmatched.
func Reconcile(records []roster.Record, ix *Index, logger *slog.Logger) []Result {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "matcher"))

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		res := Result{Record: rec}
		seen := make(map[string]struct{})
		for _, token := range rec.RawFilenames {
			files := ix.Lookup(token)
			if len(files) == 0 {
				res.Unresolved = append(res.Unresolved, token)
				logger.Warn("no files found for roster token",
					logging.Int(logging.FieldRow, rec.Row),
					logging.String("identity", rec.Identity),
					logging.String("token", token))
				continue
			}
			for _, f := range files {
				if _, dup := seen[f.Path]; dup {
					continue
				}
				seen[f.Path] = struct{}{}
				res.Files = append(res.Files, f)
			}
		}
		sortFiles(res.Files)

		switch {
		case len(rec.RawFilenames) == 0 || len(res.Files) == 0:
			res.Status = StatusUnmatched
		case len(res.Unresolved) > 0:
			res.Status = StatusPartial
		default:
			res.Status = StatusMatched
		}
		results = append(results, res)
	}
	return results
}

// Tally summarizes reconcile results by status.
func Tally(results []Result) (matched, partial, unmatched int) {
	for _, res := range results {
		switch res.Status {
		case StatusMatched:
			matched++
		case StatusPartial:
			partial++
		default:
			unmatched++
		}
	}
	return matched, partial, unmatched
}

func sortFiles(files []File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
