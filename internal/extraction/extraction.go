// Package extraction reads image files out of uploaded archives.
package extraction

import (
	"context"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"

	"listing-service/internal/models"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// skipEntry reports whether an archive entry is metadata rather than a photo.
func skipEntry(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") || part == "__MACOSX" {
			return true
		}
	}
	return !imageExtensions[strings.ToLower(path.Ext(p))]
}

// ExtractImages returns the image entries of a ZIP, TAR, 7z or RAR archive as
// upload files, in archive walk order. Entries larger than maxEntryBytes are
// rejected.
func ExtractImages(ctx context.Context, archive io.Reader, maxEntryBytes int64) ([]models.UploadFile, error) {
	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to buffer archive")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, archive); err != nil {
		return nil, errors.Wrap(err, "failed to buffer archive")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to buffer archive")
	}

	fsys, err := archives.FileSystem(ctx, tmp.Name(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "unsupported archive")
	}

	var files []models.UploadFile
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && (strings.HasPrefix(d.Name(), ".") || d.Name() == "__MACOSX") {
				return fs.SkipDir
			}
			return nil
		}
		if skipEntry(p) {
			return nil
		}
		reader, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer reader.Close()

		data, err := io.ReadAll(io.LimitReader(reader, maxEntryBytes+1))
		if err != nil {
			return err
		}
		if int64(len(data)) > maxEntryBytes {
			return errors.Errorf("archive entry %s exceeds %d bytes", p, maxEntryBytes)
		}

		files = append(files, models.UploadFile{
			Filename: path.Base(p),
			MimeType: mime.TypeByExtension(strings.ToLower(path.Ext(p))),
			Data:     data,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read archive")
	}
	return files, nil
}
