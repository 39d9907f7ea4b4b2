// flowup uploads captured deck pages from disk as chunked multipart
// uploads, either through a coordinator service or straight to S3.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/gabriel-vasile/mimetype"
	"github.com/schollz/progressbar/v3"

	"github.com/emergent-lab/flow-extension/cmd/flowup/cliconfig"
	"github.com/emergent-lab/flow-extension/cmd/flowup/cliflags"
	"github.com/emergent-lab/flow-extension/upload"
	"github.com/emergent-lab/flow-extension/upload/s3direct"
	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

func main() {
	switch cliflags.Parse() {
	case cliflags.ModeAPI:
		runUpload(false)
	case cliflags.ModeDirect:
		runUpload(true)
	case cliflags.ModeInvalid:
		os.Exit(3)
	}
}

func runUpload(direct bool) {
	env := cliconfig.Load()
	params := cliflags.GetUploadParameters()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := collectCaptures(params.Paths)
	if err != nil {
		fail(err)
	}
	if len(files) == 0 {
		fmt.Println("ERROR: no capture files found")
		os.Exit(2)
	}

	encoded := make([]string, len(files))
	filenames := make([]string, len(files))
	var totalBytes int64
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fail(err)
		}
		encoded[i] = toDataURL(data)
		filenames[i] = filepath.Base(path)
		totalBytes += int64(len(data))
	}

	client, err := buildClient(ctx, env, direct)
	if err != nil {
		fail(err)
	}

	batchOpts := []uploadtypes.BatchOption{upload.WithFilenames(filenames)}
	if params.Concurrency > 0 {
		batchOpts = append(batchOpts, upload.WithBatchConcurrency(params.Concurrency))
	}
	if !params.Quiet && !params.JSONOutput {
		bar := progressbar.NewOptions64(totalBytes,
			progressbar.OptionSetDescription(fmt.Sprintf("Uploading %d pages", len(files))),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		batchOpts = append(batchOpts, upload.WithProgress(func(p uploadtypes.BatchProgress) {
			_ = bar.Set64(p.UploadedBytes)
		}))
	}

	outcomes, err := client.UploadAll(ctx, encoded, batchOpts...)
	if err != nil {
		fmt.Println()
		fmt.Println("ERROR: upload failed")
		fmt.Println(err)
		os.Exit(1)
	}

	if params.JSONOutput {
		result, _ := json.Marshal(outcomes)
		fmt.Println(string(result))
		return
	}
	fmt.Println("Upload successful")
	for _, outcome := range outcomes {
		fmt.Println(outcome.Filename, "->", outcome.StorageKey)
	}
}

func buildClient(ctx context.Context, env cliconfig.Environment, direct bool) (*upload.Client, error) {
	opts := make([]uploadtypes.Option, 0, 4)
	if env.Concurrency > 0 {
		opts = append(opts, upload.WithConcurrency(env.Concurrency))
	}
	if env.BandwidthLimit > 0 {
		opts = append(opts, upload.WithBandwidthLimit(env.BandwidthLimit))
	}
	if env.Verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, upload.WithLogger(logger))
	}

	if direct {
		s3cfg, err := cliconfig.LoadS3(env)
		if err != nil {
			return nil, err
		}
		directCfg := s3direct.Config{
			Bucket:        s3cfg.Bucket,
			KeyPrefix:     s3cfg.KeyPrefix,
			PartSize:      s3cfg.PartSizeMB * 1024 * 1024,
			PresignExpiry: time.Duration(s3cfg.PresignExpiryMinutes) * time.Minute,
			Region:        s3cfg.Region,
			Endpoint:      s3cfg.Endpoint,
			UsePathStyle:  s3cfg.PathStyle,
		}
		if s3cfg.AccessKey != "" {
			directCfg.Credentials = awscredentials.NewStaticCredentialsProvider(s3cfg.AccessKey, s3cfg.SecretKey, "")
		}
		coordinator, err := s3direct.New(ctx, directCfg)
		if err != nil {
			return nil, err
		}
		return upload.NewWithCoordinator(coordinator, opts...), nil
	}

	if env.BaseURL == "" {
		return nil, fmt.Errorf("FLOWUP_BASE_URL is not set")
	}
	var credentials uploadtypes.CredentialProvider
	switch {
	case env.Token != "":
		credentials = upload.NewStaticTokenCredentials(env.Token)
	case env.APIKey != "":
		credentials = upload.NewAPIKeyCredentials(env.APIKey)
	default:
		return nil, fmt.Errorf("neither FLOWUP_TOKEN nor FLOWUP_API_KEY is set")
	}
	opts = append(opts, upload.WithBaseURL(env.BaseURL), upload.WithCredentials(credentials))
	return upload.New(opts...)
}

// collectCaptures expands the given paths into a flat list of capture
// files. Directories contribute their image files in name order, so
// zero-padded page numbering uploads in page order.
func collectCaptures(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isCaptureFile(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}

func isCaptureFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

func toDataURL(data []byte) string {
	mime := mimetype.Detect(data).String()
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func fail(err error) {
	fmt.Println("ERROR:", err)
	os.Exit(1)
}
