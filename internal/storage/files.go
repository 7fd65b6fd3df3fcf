package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
)

// FileManager stores uploaded attachments under opaque uuid-based names.
// The returned reference is the on-disk filename; it is what goes into a
// doubt's or reply's FilesAttached and what /uploads/:ref serves.
type FileManager struct {
	uploadDir      string
	maxUploadBytes int64
}

func NewFileManager(baseDir string, maxUploadBytes int64) (*FileManager, error) {
	fm := &FileManager{
		uploadDir:      filepath.Join(baseDir, "uploads"),
		maxUploadBytes: maxUploadBytes,
	}

	if err := os.MkdirAll(fm.uploadDir, 0o755); err != nil {
		return nil, domain.Transport(fmt.Sprintf("create dir %s", fm.uploadDir), err)
	}

	return fm, nil
}

// UploadDir is the directory attachments are served from.
func (fm *FileManager) UploadDir() string {
	return fm.uploadDir
}

// SaveAttachment writes one uploaded file and returns its reference.
// On any failure the partial file is removed, so a reference is only
// ever handed out for a fully written blob.
func (fm *FileManager) SaveAttachment(file multipart.File, filename string) (string, error) {
	ext := normalizeExtension(filename)
	if ext == "" {
		ext = ".bin"
	}

	ref := uuid.NewString() + ext
	path := filepath.Join(fm.uploadDir, ref)

	if err := fm.writeWithLimit(path, file); err != nil {
		return "", err
	}

	return ref, nil
}

// SaveAll stores every file of a multipart upload, returning their
// references in form order. If any file fails, the ones already written
// are removed and no references are returned.
func (fm *FileManager) SaveAll(headers []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(headers))
	for _, header := range headers {
		upload, err := header.Open()
		if err != nil {
			fm.Discard(refs)
			return nil, domain.Transport("open uploaded file", err)
		}

		ref, err := fm.SaveAttachment(upload, header.Filename)
		upload.Close()
		if err != nil {
			fm.Discard(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Discard removes stored attachments whose owning mutation failed, so a
// rejected request leaves no orphaned blobs behind.
func (fm *FileManager) Discard(refs []string) {
	for _, ref := range refs {
		_ = os.Remove(filepath.Join(fm.uploadDir, ref))
	}
}

// Resolve maps a stored reference back to its path, rejecting anything
// that would escape the upload directory.
func (fm *FileManager) Resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("attachment %q: %w", ref, domain.ErrNotFound)
	}

	path := filepath.Join(fm.uploadDir, ref)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("attachment %q: %w", ref, domain.ErrNotFound)
	}
	return path, nil
}

func (fm *FileManager) writeWithLimit(path string, file multipart.File) error {
	out, err := os.Create(path)
	if err != nil {
		return domain.Transport("create attachment file", err)
	}

	cleanup := func(err error) error {
		out.Close()
		os.Remove(path)
		return err
	}

	total := int64(0)
	buf := make([]byte, 32*1024)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			total += int64(n)
			if fm.maxUploadBytes > 0 && total > fm.maxUploadBytes {
				return cleanup(domain.Validation("files", "attachment exceeds maximum size"))
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return cleanup(domain.Transport("write attachment file", werr))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return cleanup(domain.Transport("read attachment content", err))
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return domain.Transport("close attachment file", err)
	}

	return nil
}

func normalizeExtension(filename string) string {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(filename)))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	// Extensions the stdlib mime table does not recognize stay opaque.
	if mediaType := mime.TypeByExtension(ext); mediaType == "" && len(ext) > 8 {
		return ""
	}
	return ext
}
