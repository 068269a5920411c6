package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	exportDirMode  = 0o700
	exportFileMode = 0o600
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// fileName builds "<prefix>_<tenant>_<stamp><ext>" with the tenant reduced
// to characters that are safe in a file name.
func fileName(prefix, tenant, stamp, ext string) (string, error) {
	safe := strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(tenant)), "_"), "_")
	if safe == "" {
		return "", errors.New("tenant id is empty")
	}
	return fmt.Sprintf("%s_%s_%s%s", prefix, safe, stamp, ext), nil
}

// pathIn joins name under root/sub and makes sure the directory exists.
func pathIn(root, sub, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, string(filepath.Separator)) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid export file name %q", name)
	}

	dir := filepath.Join(root, sub)
	if err := os.MkdirAll(dir, exportDirMode); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	return filepath.Join(dir, cleaned), nil
}

// writeFile writes data through a temp file so readers never see a partial
// artifact.
func writeFile(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}

	tempName := temp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := temp.Chmod(exportFileMode); err != nil {
		_ = temp.Close()
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace export file: %w", err)
	}

	cleanup = false
	return nil
}

func tenantLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil && name != "" {
		return loc
	}
	return time.UTC
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
