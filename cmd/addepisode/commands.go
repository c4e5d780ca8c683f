package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/sa6mwa/addepisode/internal/app/humanreadable"
	"github.com/sa6mwa/addepisode/internal/app/model"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/configurator"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/logger"
	"github.com/sa6mwa/addepisode/internal/infra/adapters/parser"
	"github.com/urfave/cli/v2"
)

func listEpisodes(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: expected 1 argument, got %d", errUsage, c.NArg())
	}
	ctx := withLogger(c)
	summary, err := parser.New().ReadFeed(ctx, model.ResolveTilde(c.Args().First()))
	if err != nil {
		return err
	}
	headers := []string{"#", "Title", "Season", "Episode", "Duration", "Size", "Explicit", "Published"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(summary.Items))
	for i, item := range summary.Items {
		size := ""
		if item.Enclosure.Length > 0 {
			size = humanreadable.IEC(item.Enclosure.Length)
		}
		published := ""
		if item.PubDate != nil {
			published = model.ItunesTime{Time: *item.PubDate}.String()
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.Title,
			item.Season,
			item.Episode,
			item.Duration.String(),
			size,
			item.Explicit,
			published,
		})
	}
	fmt.Fprintf(c.App.Writer, "%s (%d episodes)\n", summary.Title, len(summary.Items))
	if len(rows) > 0 {
		fmt.Fprintln(c.App.Writer, renderTable(headers, rows, aligns))
	}
	return nil
}

func initConfig(c *cli.Context) error {
	ctx := withLogger(c)
	configFile := c.String("config")
	if configFile == "" {
		configFile = configurator.DefaultConfigFile
	}
	configFile = model.ResolveTilde(configFile)
	if _, err := os.Stat(configFile); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite it", configFile)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg := model.DefaultConfig()
	applyFlags(c, cfg)
	if err := configurator.New(configFile).Save(ctx, cfg); err != nil {
		return err
	}
	for _, field := range cfg.Placeholders() {
		logger.FromContext(ctx).Warn("Placeholder in configuration, edit before use", "file", configFile, "field", field)
	}
	return nil
}
