package libs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog/log"
)

var ErrFileTooLarge = errors.New("file size exceeds maximum allowed size")

var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func ValidateImage(fh *multipart.FileHeader, maxSize int64) error {
	if maxSize > 0 && fh.Size > maxSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !ImageExtensions[ext] {
		return errors.New("invalid file type. Only jpg, jpeg, png, gif, webp allowed")
	}
	return nil
}

// Storage persists uploaded files. Save returns a public reference (URL or
// served path) that Delete accepts back.
type Storage interface {
	Save(ctx context.Context, fh *multipart.FileHeader, dir string) (string, error)
	Delete(ctx context.Context, ref string) error
}

type LocalStorage struct {
	root      string
	urlPrefix string
	maxSize   int64
}

func NewLocalStorage(root, urlPrefix string, maxSize int64) *LocalStorage {
	return &LocalStorage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/"), maxSize: maxSize}
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, " ", "_"))
	if len(name) > 200 {
		name = fmt.Sprintf("%d%s", time.Now().UnixNano(), strings.ToLower(filepath.Ext(name)))
	}
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), name)
}

func (s *LocalStorage) Save(_ context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	targetDir := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(targetDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	filename := sanitizeFilename(fh.Filename)
	dst, err := os.Create(filepath.Join(targetDir, filename))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + strings.Trim(filepath.ToSlash(dir), "/") + "/" + filename, nil
}

func (s *LocalStorage) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	rel := strings.TrimPrefix(ref, s.urlPrefix+"/")
	fullPath := filepath.Join(s.root, filepath.FromSlash(rel))
	if _, err := os.Stat(fullPath); err == nil {
		return os.Remove(fullPath)
	}
	return nil
}

type CloudinaryStorage struct {
	cld     *cloudinary.Cloudinary
	maxSize int64
}

// NewCloudinaryStorage prefers explicit credentials and falls back to CLOUDINARY_URL.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret, cloudinaryURL string, maxSize int64) (*CloudinaryStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cloudName != "" && apiKey != "" && apiSecret != "":
		cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	case cloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(cloudinaryURL)
	default:
		return nil, errors.New("cloudinary credentials not configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, maxSize: maxSize}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	if s.maxSize > 0 && fh.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	base := strings.TrimSuffix(strings.ReplaceAll(fh.Filename, " ", "_"), filepath.Ext(fh.Filename))
	publicID := fmt.Sprintf("%d_%s", time.Now().Unix(), base)

	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       dir,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	if res.URL != "" {
		return res.URL, nil
	}
	return "", errors.New("cloudinary returned no url")
}

func (s *CloudinaryStorage) Delete(ctx context.Context, ref string) error {
	publicID := cloudinaryPublicID(ref)
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete from cloudinary: %w", err)
	}
	if res.Result != "ok" {
		log.Warn().Str("public_id", publicID).Str("result", res.Result).Msg("cloudinary delete not ok")
	}
	return nil
}

// cloudinaryPublicID extracts "folder/name" from
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg.
func cloudinaryPublicID(url string) string {
	_, after, found := strings.Cut(url, "/upload/")
	if !found {
		return ""
	}
	if strings.HasPrefix(after, "v") {
		if i := strings.Index(after, "/"); i > 0 {
			after = after[i+1:]
		}
	}
	return strings.TrimSuffix(after, filepath.Ext(after))
}
