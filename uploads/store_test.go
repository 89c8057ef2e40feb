package uploads

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"report-logger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// pngWithHeaderSize encodes a 1x1 PNG and rewrites its IHDR to claim
// width x height, leaving a tiny file whose header asks for a huge bitmap.
func pngWithHeaderSize(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	// 8-byte signature, 4-byte length, "IHDR", then width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// fileHeader builds a multipart.FileHeader the way gin hands it to handlers.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), "/uploads/")
	require.NoError(t, err)
	return store
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

var day = time.Date(2024, time.March, 7, 15, 4, 5, 0, time.UTC)

func TestValidate(t *testing.T) {
	store := newTestStore(t)
	pic := jpegBytes(t, 20, 10)

	testCases := []struct {
		name    string
		file    *multipart.FileHeader
		wantErr bool
	}{
		{"jpeg", fileHeader(t, "a.jpg", pic), false},
		{"upper case extension", fileHeader(t, "a.JPEG", pic), false},
		{"disallowed extension", fileHeader(t, "a.bmp", pic), true},
		{"text disguised as image", fileHeader(t, "a.png", []byte("just some text, not pixels")), true},
		{"too large", &multipart.FileHeader{Filename: "big.jpg", Size: MaxUploadSize + 1}, true},
		{"small file with huge dimensions", fileHeader(t, "bomb.png", pngWithHeaderSize(t, 14000, 14000)), true},
		{"dimensions at the pixel budget", fileHeader(t, "wide.png", pngWithHeaderSize(t, 10000, 5000)), false},
		{"missing", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Validate(tc.file)
			if tc.wantErr {
				assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Empty(t, dirNames(t, store.Dir()), "validation must not write files")
}

func TestSaveUploadRejectsHugeDimensions(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveUpload(fileHeader(t, "bomb.png", pngWithHeaderSize(t, 40000, 40000)), day)
	require.Error(t, err)
	assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
	assert.Contains(t, err.Error(), "40000x40000")
	assert.Empty(t, dirNames(t, store.Dir()))
}

func TestSaveReportImageCompresses(t *testing.T) {
	store := newTestStore(t)

	path, err := store.SaveReportImage(42, "pic_name2", fileHeader(t, "photo.png", jpegBytes(t, 2400, 1200)), day)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/42_pic_name2_07032024.jpg", path)
	assert.Equal(t, []string{"42_pic_name2_07032024.jpg"}, dirNames(t, store.Dir()))

	f, err := os.Open(filepath.Join(store.Dir(), "42_pic_name2_07032024.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 960, cfg.Height)
}

func TestSaveReportImageFallsBackToOriginal(t *testing.T) {
	store := newTestStore(t)
	store.compress = func([]byte) ([]byte, error) { return nil, errors.New("decoder exploded") }
	original := jpegBytes(t, 30, 30)

	path, err := store.SaveReportImage(7, "pic_name1", fileHeader(t, "shot.jpeg", original), day)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/7_pic_name1_07032024.jpeg", path)
	assert.Equal(t, []string{"7_pic_name1_07032024.jpeg"}, dirNames(t, store.Dir()))

	stored, err := os.ReadFile(filepath.Join(store.Dir(), "7_pic_name1_07032024.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, original, stored)
}

func TestSaveUpload(t *testing.T) {
	store := newTestStore(t)

	resp, err := store.SaveUpload(fileHeader(t, "x.jpg", jpegBytes(t, 40, 40)), day)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Filename, "img_07032024_"), resp.Filename)
	assert.True(t, strings.HasSuffix(resp.Filename, ".jpg"), resp.Filename)
	assert.Equal(t, "/uploads/"+resp.Filename, resp.Path)
	assert.Positive(t, resp.Size)

	_, err = store.SaveUpload(fileHeader(t, "x.txt", []byte("hello")), day)
	assert.True(t, models.IsValidation(err))
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "1_pic_name1_01012024.jpg"), []byte("x"), 0o644))
	outside := filepath.Join(filepath.Dir(store.Dir()), "keep.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	store.Remove("/uploads/1_pic_name1_01012024.jpg")
	store.Remove("/uploads/missing.jpg")
	store.Remove("/uploads/../keep.jpg")
	store.Remove("/elsewhere/keep.jpg")

	assert.Empty(t, dirNames(t, store.Dir()))
	_, err := os.Stat(outside)
	assert.NoError(t, err, "files outside the upload dir must survive")
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "img_a.jpg"), []byte("x"), 0o644))

	require.NoError(t, store.Delete("img_a.jpg"))
	assert.ErrorIs(t, store.Delete("img_a.jpg"), models.ErrNotFound)
	assert.True(t, models.IsValidation(store.Delete("../etc/passwd")))
	assert.True(t, models.IsValidation(store.Delete("..")))
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "small.jpg"), make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "big.jpg"), make([]byte, 2000), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), tempUploadPrefix+"123.jpg"), make([]byte, 5), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "nested"), 0o755))

	resp, err := store.List()
	require.NoError(t, err)
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "big.jpg", resp.Files[0].Filename)
	assert.Equal(t, "2.0 kB", resp.Files[0].HumanSize)
	assert.Equal(t, "small.jpg", resp.Files[1].Filename)
	assert.Equal(t, int64(2010), resp.Total)
	assert.Equal(t, "2.0 kB", resp.TotalHuman)
}
