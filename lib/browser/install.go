package browser

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"tbnreports/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// last-known-good metadata published for Chrome for Testing
const cftMetadataURL = "https://googlechromelabs.github.io/chrome-for-testing/last-known-good-versions-with-downloads.json"

var downloadClient = resty.New().SetTimeout(time.Minute * 5)

func init() {
	telemetry.InstrumentResty(downloadClient, "tbnreports/lib/browser/download")
}

func platformTag() string {
	switch runtime.GOOS {
	case "linux":
		return "linux64"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "mac-arm64"
		}
		return "mac-x64"
	case "windows":
		if runtime.GOARCH == "386" {
			return "win32"
		}
		return "win64"
	}
	return "linux64"
}

type cftDownload struct {
	Platform string `json:"platform"`
	Url      string `json:"url"`
}

type cftMetadata struct {
	Channels map[string]struct {
		Version   string                   `json:"version"`
		Downloads map[string][]cftDownload `json:"downloads"`
	} `json:"channels"`
}

func cacheRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "cft"), nil
}

// scanFor recursively looks for a file whose name (case-insensitive)
// matches one of names, handling the nested folders the archives
// extract to. The hit gets its exec bit fixed.
func scanFor(root string, names []string) string {
	lower := make([]string, len(names))
	for i, n := range names {
		lower[i] = strings.ToLower(n)
	}

	var found string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, n := range lower {
			if name == n {
				found = path
				return filepath.SkipAll
			}
		}
		return nil
	})

	if found != "" {
		chmodExecutable(found)
	}
	return found
}

func chmodExecutable(path string) {
	if runtime.GOOS == "windows" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(path, info.Mode()|0o111)
	}
}

// best effort, cosmetic: lets Gatekeeper run freshly extracted
// binaries on macOS
func unquarantine(path string) {
	if runtime.GOOS != "darwin" {
		return
	}
	exec.Command("xattr", "-dr", "com.apple.quarantine", path).Run()
}

// best effort smoke check that the binary actually runs
func verifyRuns(bin string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, "--version").CombinedOutput()
	if err != nil {
		slog.Warn("browser binary smoke check failed", "bin", bin, "err", err)
		return
	}
	slog.Debug("browser binary verified", "bin", bin, "version", strings.TrimSpace(string(out)))
}

// treeString lists a directory up to `depth` levels deep, for the
// diagnostics attached to a failed install.
func treeString(root string, depth int) string {
	if _, err := os.Stat(root); err != nil {
		return fmt.Sprintf("%s (missing)", root)
	}

	var lines []string
	base := filepath.Dir(root)
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || len(lines) >= 400 {
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return nil
		}
		if strings.Count(rel, string(os.PathSeparator)) >= depth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			rel += "/"
		}
		lines = append(lines, rel)
		return nil
	})
	return strings.Join(lines, "\n")
}

func download(ctx context.Context, url, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	res, err := downloadClient.R().
		SetContext(ctx).
		SetOutput(dst).
		Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("download %s: status %s", url, res.Status())
	}
	return nil
}

func extractZip(archive, dst string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dst, f.Name)
		// zip-slip guard
		if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		src, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

var chromeBinaryNames = []string{"chrome", "chrome.exe", "Google Chrome for Testing"}

// cachedChromeForTesting reports a previously installed binary without
// touching the network.
func cachedChromeForTesting() (string, bool) {
	root, err := cacheRoot()
	if err != nil {
		return "", false
	}
	bin := scanFor(root, chromeBinaryNames)
	return bin, bin != ""
}

// EnsureChromeForTesting makes sure a Chrome for Testing binary exists
// for this platform, downloading and unpacking the stable archive into
// a per-(version, platform) cache on first use. The acquisition is
// idempotent: a second call with the same version reuses the cache.
// Failures are hard errors carrying a listing of what was searched.
func EnsureChromeForTesting(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "EnsureChromeForTesting")
	defer span.End()

	tag := platformTag()
	root, err := cacheRoot()
	if err != nil {
		return "", err
	}

	var meta cftMetadata
	res, err := downloadClient.R().
		SetContext(ctx).
		SetResult(&meta).
		Get(cftMetadataURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch chrome-for-testing metadata (%s): %w", cftMetadataURL, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("failed to fetch chrome-for-testing metadata (%s): status %s", cftMetadataURL, res.Status())
	}

	stable, ok := meta.Channels["Stable"]
	if !ok {
		return "", fmt.Errorf("chrome-for-testing metadata has no Stable channel")
	}

	archiveUrl := ""
	for _, d := range stable.Downloads["chrome"] {
		if d.Platform == tag {
			archiveUrl = d.Url
			break
		}
	}
	if archiveUrl == "" {
		var avail []string
		for _, d := range stable.Downloads["chrome"] {
			avail = append(avail, d.Platform)
		}
		return "", fmt.Errorf("no chrome-for-testing download for platform %q (available: %v)", tag, avail)
	}

	versionDir := filepath.Join(root, stable.Version, tag)
	chromeDir := filepath.Join(versionDir, "chrome")

	// fast path: already extracted by a previous run
	if bin := scanFor(chromeDir, chromeBinaryNames); bin != "" {
		slog.DebugContext(ctx, "chrome-for-testing cache hit", "bin", bin)
		return bin, nil
	}

	slog.InfoContext(ctx, "downloading chrome-for-testing",
		"version", stable.Version, "platform", tag)

	os.RemoveAll(versionDir)
	if err := os.MkdirAll(chromeDir, 0o755); err != nil {
		return "", err
	}

	archivePath := filepath.Join(versionDir, "chrome.zip")
	if err := download(ctx, archiveUrl, archivePath); err != nil {
		return "", fmt.Errorf("downloading chrome-for-testing archive failed, check proxy/firewall: %w", err)
	}
	if err := extractZip(archivePath, chromeDir); err != nil {
		return "", fmt.Errorf("extracting chrome-for-testing archive failed: %w", err)
	}
	os.Remove(archivePath)

	unquarantine(chromeDir)

	bin := scanFor(chromeDir, chromeBinaryNames)
	if bin == "" {
		return "", fmt.Errorf(
			"chrome-for-testing binary not found after install\nversion dir: %s\n\nchrome/ tree (depth 3):\n%s",
			versionDir, treeString(chromeDir, 3),
		)
	}
	unquarantine(bin)
	verifyRuns(bin)

	return bin, nil
}
