package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxPhotoBytes is the largest photo an update may carry.
const MaxPhotoBytes = 10 << 20

// MaxProfilePictureBytes is the largest profile picture.
const MaxProfilePictureBytes = 5 << 20

var photoExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
}

// Photos stores update photos and profile pictures under <base>/photos/<user>/.
type Photos struct {
	base string
}

// NewPhotos returns a photo store rooted at base.
func NewPhotos(base string) *Photos {
	return &Photos{base: filepath.Join(base, "photos")}
}

// CheckPhoto reports whether the file at src may be attached to an update.
func CheckPhoto(src string) error {
	return checkImage(src, MaxPhotoBytes)
}

// CheckProfilePicture reports whether the file at src may be used as a
// profile picture.
func CheckProfilePicture(src string) error {
	return checkImage(src, MaxProfilePictureBytes)
}

func checkImage(src string, limit int64) error {
	ext := strings.ToLower(filepath.Ext(src))
	if !photoExtensions[ext] {
		return fmt.Errorf("photo %s: unsupported file type %q", filepath.Base(src), ext)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("photo %s: %w", filepath.Base(src), err)
	}
	if info.IsDir() {
		return fmt.Errorf("photo %s: is a directory", filepath.Base(src))
	}
	if info.Size() > limit {
		return fmt.Errorf("photo %s: %d bytes exceeds the %d MB limit", filepath.Base(src), info.Size(), limit>>20)
	}
	return nil
}

// Save copies src into the user's photo directory under a fresh name and
// returns the stored path.
func (p *Photos) Save(userID, src string) (string, error) {
	if err := CheckPhoto(src); err != nil {
		return "", err
	}
	return p.copy(userID, src, "", MaxPhotoBytes)
}

// SaveProfilePicture copies src into the user's photo directory as a profile
// picture and returns the stored path.
func (p *Photos) SaveProfilePicture(userID, src string) (string, error) {
	if err := CheckProfilePicture(src); err != nil {
		return "", err
	}
	return p.copy(userID, src, "profile-", MaxProfilePictureBytes)
}

// Remove deletes a stored photo. Paths outside the store are refused and a
// missing file is not an error.
func (p *Photos) Remove(path string) error {
	rel, err := filepath.Rel(p.base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("storage error: %s is not a stored photo", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage error removing photo: %w", err)
	}
	return nil
}

func (p *Photos) copy(userID, src, prefix string, limit int64) (string, error) {
	dir := filepath.Join(p.base, userID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("storage error creating photo directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("storage error reading photo: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(dir, prefix+uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("storage error writing photo: %w", err)
	}
	if _, err := io.Copy(out, io.LimitReader(in, limit+1)); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("storage error writing photo: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("storage error writing photo: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("storage error writing photo: %w", err)
	}
	return dst, nil
}
