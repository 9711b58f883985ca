package util

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// SniffUpload 打开上传文件并校验类型、大小
func SniffUpload(header *multipart.FileHeader, allowedTypes []string, maxBytes int64) (string, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return "", NewValidationError("file")
	}
	f, err := header.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mimeType, err := ValidateMimeType(f, allowedTypes)
	if err != nil {
		return mimeType, NewValidationError("file")
	}
	return mimeType, nil
}

// IsImage 检测是否为图片
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeImage)
}

// IsVideoFile 按扩展名判断
func IsVideoFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
