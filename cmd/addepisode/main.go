package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alessio/shellescape"
	"github.com/sa6mwa/addepisode/internal/app/appender"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/app/ports"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/asker"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/configurator"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/editor"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/locker"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/parser"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/prober"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/uploader"
	"github.com/sa6mwa/id3v24"
	"github.com/urfave/cli/v2"
)

var version = "dev"

const argsUsage = "<rss_file_path> <mp3_file_path> <episode_name> <episode_subtitle> <episode_description> <season_number> <episode_number> <true|false>"

const numberOfArgs = 8

var errUsage = errors.New("usage error")

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitUsage
	exitFeed
	exitAudioMissing
	exitUnsupportedAudio
	exitWrite
	exitLocked
	exitPublish
)

// adapters are the outside-facing ports the commands are wired with,
// replaced in tests.
type adapters struct {
	prober      ports.ForProbing
	newUploader func(cfg *model.AwsConfig, out io.Writer) (ports.ForUploading, error)
}

func defaultAdapters() *adapters {
	return &adapters{
		prober:      prober.New(),
		newUploader: uploader.New,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr, defaultAdapters())
	stop()
	os.Exit(code)
}

// run executes the command line in args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, a *adapters) int {
	app := newApp(stdout, stderr, a)
	err := app.RunContext(ctx, args)
	if err != nil {
		logger.New(stderr, false).Error("addepisode failed", "error", err)
	}
	return exitCode(err)
}

// exitCode maps err to the exit code of the process.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, model.ErrInvalidExplicit):
		return exitUsage
	case errors.Is(err, model.ErrMalformedFeed), errors.Is(err, model.ErrFeedMissing):
		return exitFeed
	case errors.Is(err, model.ErrAudioFileMissing):
		return exitAudioMissing
	case errors.Is(err, model.ErrUnsupportedAudioFormat):
		return exitUnsupportedAudio
	case errors.Is(err, model.ErrWriteFailure):
		return exitWrite
	case errors.Is(err, model.ErrFeedLocked):
		return exitLocked
	case errors.Is(err, model.ErrPublishFailure):
		return exitPublish
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) && exitCoder.ExitCode() != 0 {
		return exitCoder.ExitCode()
	}
	return exitFailure
}

func newApp(stdout, stderr io.Writer, a *adapters) *cli.App {
	// -v is taken by --verbose.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
	return &cli.App{
		Name:      "addepisode",
		Usage:     "Append a new episode to an existing podcast RSS feed, taking length and duration from the audio file.",
		ArgsUsage: argsUsage,
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// Errors are mapped to exit codes by run.
		ExitErrHandler: func(*cli.Context, error) {},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			return fmt.Errorf("%w: %w", errUsage, err)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   fmt.Sprintf("Configuration file, %s in the current directory is used if it exists", configurator.DefaultConfigFile),
				EnvVars: []string{"ADDEPISODE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "server-base",
				Usage:   "Base URL the audio files are served from, the file name is appended path-escaped (a space becomes %20)",
				EnvVars: []string{"ADDEPISODE_SERVER_BASE"},
			},
			&cli.StringFlag{
				Name:    "author",
				Usage:   "Author of the episode",
				EnvVars: []string{"ADDEPISODE_AUTHOR"},
			},
			&cli.StringFlag{
				Name:    "logo",
				Usage:   "URL of the episode image",
				EnvVars: []string{"ADDEPISODE_LOGO"},
			},
			&cli.BoolFlag{
				Name:    "markdown",
				Usage:   "Render the description from markdown to HTML",
				EnvVars: []string{"ADDEPISODE_MARKDOWN"},
			},
			&cli.StringSliceFlag{
				Name:  "chapter",
				Usage: `Chapter as "HH:MM:SS[.mmm] Title", repeat for each chapter. Listed after the description`,
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Do not write the feed, print a diff of what would change to stdout",
			},
			&cli.BoolFlag{
				Name:    "confirm",
				Aliases: []string{"i"},
				Usage:   "Ask before writing the feed",
			},
			&cli.BoolFlag{
				Name:    "no-lock",
				Usage:   "Do not lock the feed while appending",
				EnvVars: []string{"ADDEPISODE_NO_LOCK"},
			},
			&cli.DurationFlag{
				Name:    "lock-timeout",
				Value:   locker.DefaultTimeout,
				Usage:   "How long to wait for another process holding the feed lock",
				EnvVars: []string{"ADDEPISODE_LOCK_TIMEOUT"},
			},
			&cli.BoolFlag{
				Name:    "upload",
				Aliases: []string{"u"},
				Usage:   "Upload the audio file and the feed to the output S3 bucket in the configuration",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug messages",
				EnvVars: []string{"ADDEPISODE_VERBOSE"},
			},
		},
		Action: func(c *cli.Context) error {
			return addEpisode(c, a)
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List the episodes of a feed",
				ArgsUsage: "<rss_file_path>",
				Action:    listEpisodes,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults and any server-base, author or logo given",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing configuration file",
					},
				},
				Action: initConfig,
			},
		},
	}
}

// withLogger returns the context of c carrying a logger writing to the
// app's ErrWriter.
func withLogger(c *cli.Context) context.Context {
	return logger.WithLogger(c.Context, logger.New(c.App.ErrWriter, c.Bool("verbose")))
}

// loadConfig loads the configuration file and applies the flags on
// top of it.
func loadConfig(ctx context.Context, c *cli.Context) (*model.Config, error) {
	cfg, err := configurator.New(c.String("config")).Load(ctx)
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	return cfg, nil
}

// applyFlags overrides cfg with the configuration flags given on the
// command line or in the environment.
func applyFlags(c *cli.Context, cfg *model.Config) {
	if c.IsSet("server-base") {
		cfg.ServerBase = c.String("server-base")
	}
	if c.IsSet("author") {
		cfg.Author = c.String("author")
	}
	if c.IsSet("logo") {
		cfg.Logo = c.String("logo")
	}
	if c.IsSet("markdown") {
		cfg.Markdown = c.Bool("markdown")
	}
}

// parseChapters parses "HH:MM:SS[.mmm] Title" values.
func parseChapters(values []string) ([]id3v24.Chapter, error) {
	var chapters []id3v24.Chapter
	for _, v := range values {
		start, title, ok := strings.Cut(strings.TrimSpace(v), " ")
		if !ok || strings.TrimSpace(title) == "" {
			return nil, fmt.Errorf("%w: chapter %q must be \"HH:MM:SS[.mmm] Title\"", errUsage, v)
		}
		if !strings.Contains(start, ".") {
			start += ".000"
		}
		if _, err := id3v24.StringTimeToTime(start); err != nil {
			return nil, fmt.Errorf("%w: chapter %q: %w", errUsage, v, err)
		}
		chapters = append(chapters, id3v24.Chapter{
			Title: strings.TrimSpace(title),
			Start: start,
		})
	}
	return chapters, nil
}

func addEpisode(c *cli.Context, a *adapters) error {
	if c.NArg() != numberOfArgs {
		cli.ShowAppHelp(c)
		return fmt.Errorf("%w: expected %d arguments, got %d", errUsage, numberOfArgs, c.NArg())
	}
	ctx := withLogger(c)
	l := logger.FromContext(ctx)
	l.Debug("Invoked", "command", shellescape.QuoteCommand(append([]string{c.App.Name}, c.Args().Slice()...)))

	args := c.Args()
	explicit, err := model.ParseExplicit(args.Get(7))
	if err != nil {
		return err
	}
	chapters, err := parseChapters(c.StringSlice("chapter"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	for _, field := range cfg.Placeholders() {
		l.Warn("Using placeholder, set it in the configuration file or with a flag", "field", field)
	}

	dryRun := c.Bool("dry-run")
	svc := &appender.Service{
		Config:   cfg,
		Editor:   editor.New(),
		Prober:   a.prober,
		Renderer: parser.New(),
	}
	if !c.Bool("no-lock") {
		svc.Locker = locker.New(c.Duration("lock-timeout"))
	}
	if c.Bool("confirm") {
		svc.Asker = asker.New(dryRun, false)
	}
	publish := c.Bool("upload") && !dryRun
	if publish {
		svc.Uploader, err = a.newUploader(&cfg.Aws, c.App.Writer)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrPublishFailure, err)
		}
	}

	result, err := svc.Append(ctx, &appender.Request{
		FeedPath: model.ResolveTilde(args.Get(0)),
		Episode: &model.Episode{
			Name:        args.Get(2),
			Subtitle:    args.Get(3),
			Description: args.Get(4),
			Season:      args.Get(5),
			Number:      args.Get(6),
			Explicit:    explicit,
			AudioPath:   model.ResolveTilde(args.Get(1)),
			Chapters:    chapters,
		},
		DryRun:  dryRun,
		Publish: publish,
	})
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprint(c.App.Writer, result.Diff)
	}
	return nil
}
