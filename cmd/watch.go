package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the data directories and print item changes",
	Long: `Watch the features and bugs directories for file changes and print one
line per event. Useful while another tool or teammate script is writing
items. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		watched := 0
		for _, dir := range []string{featuresDir(), bugsDir()} {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			watched++
			if verbose {
				fmt.Fprintln(os.Stderr, "Watching", dir)
			}
		}
		if watched == 0 {
			return fmt.Errorf("nothing to watch: no data directories exist yet")
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				// Skip the temp files the atomic writer leaves in flight.
				if strings.HasSuffix(event.Name, ".tmp") {
					continue
				}
				fmt.Printf("%s %s\n", ui.StyleSubtle.Render(event.Op.String()), event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintln(os.Stderr, ui.StyleError.Render("watch error:"), err)
			case <-sig:
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
