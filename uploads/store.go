package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	imgpkg "report-logger/image"
	"report-logger/metrics"
	"report-logger/models"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 5 << 20

const (
	fileDateLayout   = "02012006"
	compressedExt    = ".jpg"
	tempUploadPrefix = ".upload-"
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif"}

// Store keeps uploaded images in one directory and hands out their public
// paths (urlPrefix + "/" + filename).
type Store struct {
	dir       string
	urlPrefix string
	compress  func([]byte) ([]byte, error)
}

// NewStore creates the upload directory if needed.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		compress:  imgpkg.CompressImage,
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Validate rejects uploads over MaxUploadSize, with an extension outside
// jpeg/jpg/png/gif, or whose content is not one of those formats. The
// client-declared MIME type is ignored.
func (s *Store) Validate(file *multipart.FileHeader) error {
	if err := s.validate(file); err != nil {
		metrics.ImagesProcessedTotal.WithLabelValues("rejected").Inc()
		return err
	}
	return nil
}

func (s *Store) validate(file *multipart.FileHeader) error {
	if file == nil {
		return models.NewValidationError("no file uploaded")
	}
	if file.Size > MaxUploadSize {
		return models.NewValidationError("file %s is larger than %s", file.Filename, humanize.IBytes(MaxUploadSize))
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return models.NewValidationError("only jpeg, jpg, png and gif images are allowed")
	}

	f, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", file.Filename, err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("failed to inspect upload %s: %w", file.Filename, err)
	}
	if !mtype.Is(allowedMIMETypes[0]) && !mtype.Is(allowedMIMETypes[1]) && !mtype.Is(allowedMIMETypes[2]) {
		return models.NewValidationError("file %s is %s, not an image", file.Filename, mtype.String())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload %s: %w", file.Filename, err)
	}
	// An unreadable header is left to the compression fallback.
	width, height, err := imgpkg.CheckDimensions(f)
	if errors.Is(err, imgpkg.ErrTooManyPixels) {
		return models.NewValidationError("image %s is %dx%d, more than %s pixels",
			file.Filename, width, height, humanize.Comma(imgpkg.MaxImagePixels))
	}
	return nil
}

// ReportImageName is the deterministic base name (without extension) of a
// report picture: {reportId}_{slot}_{ddMMyyyy}.
func ReportImageName(reportID int64, slot string, now time.Time) string {
	return fmt.Sprintf("%d_%s_%s", reportID, slot, now.Format(fileDateLayout))
}

// SaveReportImage stores a report picture and returns its public path.
// Uploading the same slot twice on one day overwrites the earlier file.
func (s *Store) SaveReportImage(reportID int64, slot string, file *multipart.FileHeader, now time.Time) (string, error) {
	filename, err := s.save(file, ReportImageName(reportID, slot, now))
	if err != nil {
		return "", err
	}
	return s.PublicPath(filename), nil
}

// SaveUpload stores an image that is not yet bound to a report.
func (s *Store) SaveUpload(file *multipart.FileHeader, now time.Time) (*models.UploadResponse, error) {
	if err := s.Validate(file); err != nil {
		return nil, err
	}
	filename, err := s.save(file, fmt.Sprintf("img_%s_%s", now.Format(fileDateLayout), strings.ToLower(ulid.Make().String())))
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to stat stored upload %s: %w", filename, err)
	}
	return &models.UploadResponse{
		Filename: filename,
		Path:     s.PublicPath(filename),
		Size:     info.Size(),
	}, nil
}

// save copies the upload to a temporary file, compresses it into
// base+".jpg" and removes the temporary file. When compression fails the
// original is moved to base + its own extension instead, so nothing is lost.
func (s *Store) save(file *multipart.FileHeader, base string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	tmpPath, err := s.writeTemp(file, ext)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnf("Failed to remove temporary upload %s: %v", tmpPath, err)
		}
	}()

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read temporary upload: %w", err)
	}

	compressed, err := s.compress(data)
	if err == nil {
		filename := base + compressedExt
		if err := os.WriteFile(filepath.Join(s.dir, filename), compressed, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", filename, err)
		}
		metrics.ImagesProcessedTotal.WithLabelValues("compressed").Inc()
		return filename, nil
	}

	log.Warnf("Compression of %s failed, keeping the original: %v", file.Filename, err)
	filename := base + ext
	if err := os.Rename(tmpPath, filepath.Join(s.dir, filename)); err != nil {
		return "", fmt.Errorf("failed to move original upload to %s: %w", filename, err)
	}
	metrics.ImagesProcessedTotal.WithLabelValues("fallback").Inc()
	return filename, nil
}

func (s *Store) writeTemp(file *multipart.FileHeader, ext string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", file.Filename, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.dir, tempUploadPrefix+"*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary upload: %w", err)
	}
	if _, err := io.Copy(tmp, io.LimitReader(src, MaxUploadSize+1)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temporary upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temporary upload: %w", err)
	}
	return tmp.Name(), nil
}

// PublicPath is the path a stored file is served under.
func (s *Store) PublicPath(filename string) string {
	return s.urlPrefix + "/" + filename
}

// Remove deletes the file behind a public path. Failures are logged only.
func (s *Store) Remove(path string) {
	filename, ok := s.filenameFromPath(path)
	if !ok {
		log.Warnf("Refusing to remove %q: not under %s", path, s.urlPrefix)
		return
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Infof("Image %s already gone", filename)
			return
		}
		metrics.ImageFileRemovalErrorsTotal.Inc()
		log.Errorf("Failed to remove image %s: %v", filename, err)
		return
	}
	log.Infof("Removed image %s", filename)
}

func (s *Store) filenameFromPath(path string) (string, bool) {
	name := strings.TrimPrefix(path, s.urlPrefix+"/")
	if name == path || !validFilename(name) {
		return "", false
	}
	return name, true
}

func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Delete removes a stored file by name.
func (s *Store) Delete(filename string) error {
	if !validFilename(filename) || strings.HasPrefix(filename, tempUploadPrefix) {
		return models.NewValidationError("invalid file name %q", filename)
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file %s: %w", filename, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	log.Infof("Deleted image %s", filename)
	return nil
}

// List returns the stored files, largest first, with their total size.
func (s *Store) List() (*models.FileSizesResponse, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	resp := &models.FileSizesResponse{Files: []models.StoredFile{}}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempUploadPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		resp.Files = append(resp.Files, models.StoredFile{
			Filename:   entry.Name(),
			Size:       info.Size(),
			HumanSize:  humanize.Bytes(uint64(info.Size())),
			ModifiedAt: info.ModTime(),
		})
		resp.Total += info.Size()
	}
	sort.Slice(resp.Files, func(i, j int) bool {
		if resp.Files[i].Size != resp.Files[j].Size {
			return resp.Files[i].Size > resp.Files[j].Size
		}
		return resp.Files[i].Filename < resp.Files[j].Filename
	})
	resp.TotalHuman = humanize.Bytes(uint64(resp.Total))
	return resp, nil
}
