package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

type FileStorage interface {
	UploadFile(file multipart.File, fileName string) (string, error)
	UploadFileFromReader(src io.Reader, fileName string) (string, error)
	DownloadFile(filePath string) (io.ReadCloser, error)
	DeleteFile(filePath string) error
	FileExists(filePath string) (bool, error)
}

type LocalFileStorage struct {
	uploadPath string
}

func NewLocalFileStorage(uploadPath string) *LocalFileStorage {
	return &LocalFileStorage{uploadPath: uploadPath}
}

// UploadFile handles multipart file uploads
func (s *LocalFileStorage) UploadFile(file multipart.File, fileName string) (string, error) {
	return s.UploadFileFromReader(file, fileName)
}

// UploadFileFromReader writes src to uploadPath/fileName and returns the path.
func (s *LocalFileStorage) UploadFileFromReader(src io.Reader, fileName string) (string, error) {
	if err := EnsureDirectoryExists(s.uploadPath); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filePath := filepath.Join(s.uploadPath, filepath.Base(fileName))

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	return filePath, nil
}

// DownloadFile retrieves a file for reading
func (s *LocalFileStorage) DownloadFile(fileName string) (io.ReadCloser, error) {
	file, err := os.Open(s.resolve(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// DeleteFile removes a file from storage
func (s *LocalFileStorage) DeleteFile(fileName string) error {
	fullPath := s.resolve(fileName)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// FileExists checks if a file exists in storage
func (s *LocalFileStorage) FileExists(fileName string) (bool, error) {
	_, err := os.Stat(s.resolve(fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// resolve accepts either a bare file name or a path previously returned by
// UploadFileFromReader.
func (s *LocalFileStorage) resolve(fileName string) string {
	return filepath.Join(s.uploadPath, filepath.Base(fileName))
}
