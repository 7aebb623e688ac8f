// Package epub prepares conversion input files for the Previewer: filename
// sanitization, lightweight OPF inspection for book-type flags, and a
// container cleanup pass that removes junk entries the Previewer chokes on.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// The Previewer mishandles input paths containing shell-unfriendly
// characters, so cleaned inputs get a reduced name inside the job workspace.
var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9 :/\\_+-]`)
	leadingLetter   = regexp.MustCompile(`^[a-zA-Z]`)
)

// SanitizeBaseName reduces a file base name (without extension) to the
// character set the Previewer accepts, forcing a leading letter.
func SanitizeBaseName(name string) string {
	simple := unsafeNameChars.ReplaceAllString(name, "")
	if !leadingLetter.MatchString(simple) {
		simple = "f" + simple
	}
	return simple
}

// Source is an opened EPUB input with the book-type flags the conversion
// pipeline cares about.
type Source struct {
	Path string
	// IsKIM marks Kindle-in-Motion titles (animated covers/art).
	IsKIM bool
	// IsDictionary marks dictionary books; lookup degrades after conversion.
	IsDictionary bool
	// FullBookType is the declared book type ("comic", "children", ...) or "".
	FullBookType string
}

// Open inspects the EPUB's package document for book-type markers. The file
// is not validated beyond being a readable zip with an OPF entry; the
// Previewer is the authority on whether it converts.
func Open(path string) (*Source, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open epub %s: %w", path, err)
	}
	defer r.Close()

	src := &Source{Path: path}
	for _, f := range r.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read opf %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read opf %s: %w", f.Name, err)
		}
		src.inspectOPF(string(data))
		break
	}
	return src, nil
}

var bookTypeMeta = regexp.MustCompile(`(?i)<meta\s+name="book-type"\s+content="([^"]*)"`)

func (s *Source) inspectOPF(opf string) {
	lower := strings.ToLower(opf)
	if strings.Contains(lower, "<dictionaryinlanguage") {
		s.IsDictionary = true
	}
	if strings.Contains(lower, "amzn:kindle-illustrated") {
		s.IsKIM = true
	}
	if m := bookTypeMeta.FindStringSubmatch(opf); m != nil {
		s.FullBookType = m[1]
		if strings.EqualFold(m[1], "dictionary") {
			s.IsDictionary = true
		}
	}
}

// junk entries some authoring tools leave behind; the Previewer rejects
// containers carrying them.
func isJunkEntry(name string) bool {
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	return strings.HasPrefix(name, "__MACOSX/") ||
		base == ".DS_Store" ||
		base == "Thumbs.db" ||
		strings.HasSuffix(name, "/")
}

// PrepareForPreviewer writes a cleaned copy of the EPUB to dst: the mimetype
// entry first and stored uncompressed (OCF requirement), junk entries
// dropped, everything else carried over unchanged.
func (s *Source) PrepareForPreviewer(dst string) error {
	r, err := zip.OpenReader(s.Path)
	if err != nil {
		return fmt.Errorf("open epub %s: %w", s.Path, err)
	}
	defer r.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create cleaned epub: %w", err)
	}
	w := zip.NewWriter(out)

	writeEntry := func(f *zip.File, method uint16) error {
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		hdr := &zip.FileHeader{Name: f.Name, Method: method, Modified: f.Modified}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = io.Copy(fw, rc)
		return err
	}

	// mimetype must be the first entry and stored uncompressed.
	for _, f := range r.File {
		if f.Name == "mimetype" {
			if err := writeEntry(f, zip.Store); err != nil {
				return s.closeCleaned(w, out, err)
			}
			break
		}
	}
	for _, f := range r.File {
		if f.Name == "mimetype" || isJunkEntry(f.Name) {
			continue
		}
		if err := writeEntry(f, zip.Deflate); err != nil {
			return s.closeCleaned(w, out, err)
		}
	}
	return s.closeCleaned(w, out, nil)
}

func (s *Source) closeCleaned(w *zip.Writer, out *os.File, err error) error {
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write cleaned epub: %w", err)
	}
	return nil
}

// CopyFile copies src to dst without modification (NoPrep path).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
