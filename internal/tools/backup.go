package tools

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/cabewaldrop/rowdb/internal/logging"
)

const (
	// manifestName and dataName are the entries of a backup archive, in
	// the order they are written.
	manifestName = "manifest.json"
	dataName     = "table.db"

	// FormatVersion identifies the backup archive layout.
	FormatVersion = 1
)

var (
	// ErrExists is returned when a destination file already exists.
	ErrExists = errors.New("destination already exists")

	// ErrBadArchive is returned for archives that are not rowdb backups or
	// whose contents do not match their manifest.
	ErrBadArchive = errors.New("invalid backup archive")
)

// Manifest is stored first in every backup archive.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	Created       time.Time `json:"created"`
	Source        string    `json:"source"`
	Rows          uint32    `json:"rows"`
	Length        int64     `json:"length"`
	BLAKE3        string    `json:"blake3"`
}

// Backup writes an xz-compressed tar archive of the database file at src to
// dst. The archive holds a manifest followed by the raw file.
func Backup(src, dst string) (*Manifest, error) {
	data, err := readDatabase(src)
	if err != nil {
		return nil, err
	}
	report, err := describe(src, data)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		FormatVersion: FormatVersion,
		Created:       time.Now().UTC(),
		Source:        src,
		Rows:          report.Rows,
		Length:        report.Length,
		BLAKE3:        report.BLAKE3,
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}

	file, err := createExclusive(dst)
	if err != nil {
		return nil, err
	}

	if err := writeArchive(file, manifestData, data); err != nil {
		file.Close()
		os.Remove(dst)
		return nil, err
	}
	if err := file.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}

	logging.Info("backup written", "source", src, "archive", dst, "rows", manifest.Rows)
	return manifest, nil
}

func writeArchive(w io.Writer, manifestData, data []byte) error {
	compressWriter, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	tarWriter := tar.NewWriter(compressWriter)

	if err := writeToTar(tarWriter, manifestName, manifestData); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := writeToTar(tarWriter, dataName, data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish tar: %w", err)
	}
	if err := compressWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return nil
}

func writeToTar(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// Restore unpacks the backup archive at archivePath into a new database
// file at dst. The restored bytes must match the manifest's length and
// digest. An existing dst is never overwritten.
func Restore(archivePath, dst string) (*Manifest, error) {
	if _, err := os.Stat(dst); err == nil {
		return nil, fmt.Errorf("%s: %w", dst, ErrExists)
	}

	manifest, data, err := readArchive(archivePath)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) != manifest.Length {
		return nil, fmt.Errorf("%w: length %d, manifest says %d", ErrBadArchive, len(data), manifest.Length)
	}
	if sum := digest(data); sum != manifest.BLAKE3 {
		return nil, fmt.Errorf("%w: blake3 %s, manifest says %s", ErrBadArchive, sum, manifest.BLAKE3)
	}
	if _, err := decodeRows(archivePath, data); err != nil {
		return nil, err
	}

	file, err := createExclusive(dst)
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("failed to close %s: %w", dst, err)
	}

	logging.Info("backup restored", "archive", archivePath, "path", dst, "rows", manifest.Rows)
	return manifest, nil
}

func readArchive(archivePath string) (*Manifest, []byte, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	tarReader := tar.NewReader(xzReader)

	var manifest *Manifest
	var data []byte
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}

		switch header.Name {
		case manifestName:
			manifest = &Manifest{}
			if err := json.NewDecoder(tarReader).Decode(manifest); err != nil {
				return nil, nil, fmt.Errorf("%w: manifest: %v", ErrBadArchive, err)
			}
		case dataName:
			data, err = io.ReadAll(tarReader)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
			}
		default:
			logging.Warn("skipping unknown archive entry", "archive", archivePath, "name", header.Name)
		}
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("%w: missing %s", ErrBadArchive, manifestName)
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported format version %d", ErrBadArchive, manifest.FormatVersion)
	}
	if data == nil {
		data = []byte{}
		if manifest.Length != 0 {
			return nil, nil, fmt.Errorf("%w: missing %s", ErrBadArchive, dataName)
		}
	}
	return manifest, data, nil
}

func createExclusive(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrExists)
		}
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return file, nil
}
