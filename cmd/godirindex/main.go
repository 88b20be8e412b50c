package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kbaer/opendirindex/internal/config"
	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/indexer"
	"github.com/kbaer/opendirindex/pkg/reporter"
	"github.com/kbaer/opendirindex/pkg/speedtest"
	"github.com/kbaer/opendirindex/pkg/upload"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "godirindex",
	Short: "godirindex - recursive open-directory indexer",
	Long: `godirindex crawls HTTP/HTTPS/FTP/FTPS open directory listings
(and a few provider-specific listing formats) and reports the files and
subdirectories it finds beneath a seed URL.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Crawl a seed URL and report the resulting session",
	RunE:  runIndex,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Load a previously written JSON snapshot and reprint its summary",
	RunE:  runResume,
}

func init() {
	indexCmd.Flags().StringP("url", "u", "", "seed URL (required)")
	indexCmd.Flags().IntP("threads", "t", 5, "worker count for both pools")
	indexCmd.Flags().DurationP("timeout", "o", 100*time.Second, "per-request timeout")
	indexCmd.Flags().BoolP("quit", "q", false, "exit immediately on finish")
	indexCmd.Flags().BoolP("json", "j", false, "write session snapshot")
	indexCmd.Flags().BoolP("no-urls", "f", false, "suppress URL list file")
	indexCmd.Flags().BoolP("no-reddit", "r", false, "suppress the markdown stats block on stdout")
	indexCmd.Flags().BoolP("exact-file-sizes", "e", false, "HEAD every file regardless of listing-provided size")
	indexCmd.Flags().Bool("determine-size-by-download", false, "resolve file sizes with a streamed GET instead of HEAD, for servers with unreliable Content-Length")
	indexCmd.Flags().BoolP("upload-urls", "l", false, "upload the URL list to a paste host")
	indexCmd.Flags().BoolP("speedtest", "s", false, "download the largest file briefly to measure throughput")
	indexCmd.Flags().StringP("user-agent", "a", "", "override default user agent")
	indexCmd.Flags().String("username", "", "HTTP Basic or FTP username")
	indexCmd.Flags().String("password", "", "HTTP Basic or FTP password")
	indexCmd.Flags().String("of", "", "override URL-list filename")
	indexCmd.Flags().Bool("no-robots", false, "ignore robots.txt disallow rules")
	_ = indexCmd.MarkFlagRequired("url")

	resumeCmd.Flags().String("file", "", "path to a previously written JSON snapshot (required)")
	_ = resumeCmd.MarkFlagRequired("file")

	rootCmd.PersistentFlags().String("config", "", "config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resumeCmd)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func runIndex(cmd *cobra.Command, args []string) error {
	seedURL, _ := cmd.Flags().GetString("url")
	threads, _ := cmd.Flags().GetInt("threads")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	quit, _ := cmd.Flags().GetBool("quit")
	writeJSON, _ := cmd.Flags().GetBool("json")
	noURLs, _ := cmd.Flags().GetBool("no-urls")
	noReddit, _ := cmd.Flags().GetBool("no-reddit")
	exactSizes, _ := cmd.Flags().GetBool("exact-file-sizes")
	determineSizeByDownload, _ := cmd.Flags().GetBool("determine-size-by-download")
	uploadURLs, _ := cmd.Flags().GetBool("upload-urls")
	runSpeedtest, _ := cmd.Flags().GetBool("speedtest")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	outputFile, _ := cmd.Flags().GetString("of")
	noRobots, _ := cmd.Flags().GetBool("no-robots")
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(verbose)
	fmt.Printf("godirindex %s starting against %s\n", version, seedURL)

	engineCfg := indexer.DefaultConfig()
	engineCfg.Threads = threads
	engineCfg.RequestTimeout = timeout
	engineCfg.UserAgent = userAgent
	engineCfg.Username = username
	engineCfg.Password = password
	engineCfg.ExactFileSizes = exactSizes
	engineCfg.DetermineSizeByDownload = determineSizeByDownload
	engineCfg.RespectRobotsTxt = !noRobots
	engineCfg.MaxFTPConnections = cfg.Indexer.MaxFTPConnections
	if engineCfg.MaxFTPConnections == 0 {
		engineCfg.MaxFTPConnections = 3
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := indexer.New(engineCfg, logger)
	session, runErr := engine.Run(ctx, seedURL)
	if runErr != nil && ctx.Err() == nil {
		logger.Warn().Err(runErr).Msg("crawl finished with an error")
	}

	rep := reporter.New()
	base := sanitizeFilename(seedURL)

	if !noURLs {
		listPath := outputFile
		if listPath == "" {
			listPath = base + ".txt"
		}
		if err := os.WriteFile(listPath, []byte(rep.URLList(session)), 0o644); err != nil {
			return fmt.Errorf("write url list: %w", err)
		}
		fmt.Printf("URL list written to %s\n", listPath)
	}

	if writeJSON {
		jsonPath := base + ".json"
		data, err := rep.JSON(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		if err := os.WriteFile(jsonPath, []byte(data), 0o644); err != nil {
			return fmt.Errorf("write session snapshot: %w", err)
		}
		fmt.Printf("Session snapshot written to %s\n", jsonPath)
	}

	if !noReddit {
		fmt.Println(rep.Markdown(session))
	}

	if uploadURLs {
		client := upload.New()
		pasteURL, err := client.Upload(ctx, base+".txt", []byte(rep.URLList(session)))
		if err != nil {
			logger.Warn().Err(err).Msg("upload failed")
		} else {
			fmt.Printf("URL list uploaded: %s\n", pasteURL)
		}
	}

	if runSpeedtest {
		if largest := speedtest.LargestFile(session.Root); largest != nil {
			result, err := speedtest.Run(ctx, engine.HTTPFetcher.Client, largest.URL, speedtest.DefaultDuration)
			if err != nil {
				logger.Warn().Err(err).Msg("speedtest failed")
			} else {
				fmt.Printf("Speedtest: %.2f MB/s against %s\n", result.BytesPerSec/1e6, result.URL)
			}
		} else {
			fmt.Println("Speedtest: no file with a known size was found")
		}
	}

	if !quit {
		fmt.Println("Press Enter to exit.")
		fmt.Scanln()
	}

	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	rep := reporter.New()
	fmt.Println(rep.Markdown(&session))
	return nil
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeFilename(seedURL string) string {
	return filenameSanitizer.ReplaceAllString(seedURL, "_")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
