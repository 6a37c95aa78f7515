package storage

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

	"meeting-copilot-backend/internal/config"
)

var (
	// ErrExtensionNotAllowed 허용되지 않은 파일 확장자
	ErrExtensionNotAllowed = errors.New("storage: file extension not allowed")
	// ErrFileTooLarge 파일 크기 초과
	ErrFileTooLarge = errors.New("storage: file too large")
	// ErrEmptyFile 빈 파일
	ErrEmptyFile = errors.New("storage: empty file")
	// ErrContentTypeNotAllowed 허용되지 않은 Content-Type
	ErrContentTypeNotAllowed = errors.New("storage: content type not allowed")
)

// allowedContentTypePrefixes 업로드가 허용되는 Content-Type 접두사
var allowedContentTypePrefixes = []string{
	"audio/",
	"video/",
	"text/",
	"application/octet-stream",
}

// recordingExtensions 녹음 폴더 스캔 시 인식하는 확장자
var recordingExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".m4a": true,
	".mp4": true,
	".mov": true,
	".avi": true,
}

// LocalStore 로컬 디스크 업로드 저장소
type LocalStore struct {
	dir         string
	maxFileSize int64
	allowedExts map[string]bool
}

// NewLocalStore 업로드 디렉토리를 생성하고 저장소 초기화
func NewLocalStore(cfg config.Upload) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir: %w", err)
	}

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = true
	}

	return &LocalStore{
		dir:         cfg.Dir,
		maxFileSize: cfg.MaxFileSize,
		allowedExts: allowed,
	}, nil
}

// Dir 업로드 디렉토리 경로 반환
func (s *LocalStore) Dir() string {
	return s.dir
}

// Validate 저장 전 파일 이름/크기/Content-Type 검증
func (s *LocalStore) Validate(filename string, size int64, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExts[ext] {
		return fmt.Errorf("%w: %s", ErrExtensionNotAllowed, ext)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, s.maxFileSize)
	}
	// Content-Type 미지정 클라이언트는 통과
	if contentType != "" && !contentTypeAllowed(contentType) {
		return fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}
	return nil
}

func contentTypeAllowed(contentType string) bool {
	for _, prefix := range allowedContentTypePrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// Save 업로드 파일을 {id}_{원본파일명} 형식으로 저장하고 경로 반환
func (s *LocalStore) Save(file *multipart.FileHeader, id string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer src.Close()

	// 경로 조작 방지를 위해 파일명만 사용
	name := id + "_" + filepath.Base(file.Filename)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: write file: %w", err)
	}

	return path, nil
}

// Remove 저장된 파일 삭제 (없는 파일은 에러 아님)
func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RecordingFile 녹음 폴더 스캔 결과 항목
type RecordingFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ScanRecordings 지정 폴더에서 녹음 파일 목록 조회 (최신순 정렬)
func ScanRecordings(dir string) ([]RecordingFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]RecordingFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !recordingExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, RecordingFile{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	return files, nil
}
