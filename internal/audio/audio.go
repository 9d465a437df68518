// Package audio fetches voice clips and converts them to a format the
// extractor accepts.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxClipSize = 20 << 20

type Fetcher struct {
	client  *http.Client
	baseURL string
}

// NewFetcher downloads clips; relative paths are resolved against baseURL.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	url := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		url = f.baseURL + "/" + strings.TrimLeft(ref, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxClipSize {
		return nil, fmt.Errorf("voice clip exceeds %d bytes", maxClipSize)
	}
	return data, nil
}

// Transcoder converts ogg/opus voice notes to mp3 with ffmpeg.
type Transcoder struct {
	ffmpegPath string
	tempDir    string
}

func NewTranscoder(ffmpegPath, tempDir string) *Transcoder {
	return &Transcoder{ffmpegPath: ffmpegPath, tempDir: tempDir}
}

// ToMP3 returns the clip as mp3 and its mime type. Temporary files are
// removed before returning.
func (t *Transcoder) ToMP3(ctx context.Context, ogg []byte) ([]byte, string, error) {
	base := filepath.Join(t.tempDir, uuid.New().String())
	in, out := base+".ogg", base+".mp3"
	defer os.Remove(in)
	defer os.Remove(out)

	if err := os.WriteFile(in, ogg, 0o600); err != nil {
		return nil, "", err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, "-y", "-loglevel", "error", "-i", in, "-f", "mp3", out)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, "", err
	}
	return data, "audio/mp3", nil
}
