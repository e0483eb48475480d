package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rill-lang/rill/internal/limits"
	"github.com/rill-lang/rill/internal/log"
	"github.com/rill-lang/rill/rill"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check ./folder|file.rill",
	Short:        "Type-check a rill program",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	checkWatch    *bool
	limitsPath    *string
	manifestPath  *string
	checkLogLevel *int
)

func init() {
	checkWatch = CheckCmd.Flags().BoolP("watch", "w", false, "re-check on file changes")
	limitsPath = CheckCmd.Flags().String("limits", "", "path to a resource limits YAML file")
	manifestPath = CheckCmd.Flags().String("manifest", "", "path to a capability manifest YAML file")
	checkLogLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*checkLogLevel))

	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("could not get absolute path of target: %w", err)
	}

	settings := rill.PkgLoadSettings{}
	if *limitsPath != "" {
		lim, err := limits.Load(*limitsPath)
		if err != nil {
			return err
		}
		settings.Limits = &lim
	}

	if !*checkWatch {
		return checkOnce(target, settings)
	}
	return watchLoop(cmd, target, settings)
}

func checkOnce(target string, settings rill.PkgLoadSettings) error {
	stat, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("could not stat target: %w", err)
	}
	dir := target
	if !stat.IsDir() {
		dir = filepath.Dir(target)
	}
	folderFS, ok := os.DirFS(dir).(rill.ReadFileDirFS)
	if !ok {
		return fmt.Errorf("unsupported filesystem for %s", dir)
	}

	pkg, err := rill.LoadPackage(folderFS, settings)
	if err != nil {
		return fmt.Errorf("could not load package (this is a bug and not a compile error): %w", err)
	}

	if pkg.Errors().HasError() {
		sb := &strings.Builder{}
		for _, diag := range pkg.Diagnostics() {
			sb.WriteString("\n")
			sb.WriteString(diag)
		}
		return fmt.Errorf("errors found during checking:\n%s", sb.String())
	}
	for _, diag := range pkg.Diagnostics() {
		// advisory diagnostics, e.g. redundant match arms
		fmt.Fprint(os.Stderr, diag)
	}

	if *manifestPath != "" {
		manifest, err := rill.LoadManifest(*manifestPath)
		if err != nil {
			return err
		}
		required, ok := pkg.EntryCapabilities(manifest.Entry)
		if !ok {
			return fmt.Errorf("entry function %q not found", manifest.Entry)
		}
		if missing := manifest.Missing(required); len(missing) > 0 {
			names := make([]string, len(missing))
			for i, k := range missing {
				names[i] = k.String()
			}
			return fmt.Errorf("manifest does not grant capabilities required by %q: %s",
				manifest.Entry, strings.Join(names, ", "))
		}
	}

	fmt.Printf("ok\t%s\n", pkg.Name())
	return nil
}

// watchLoop re-runs the check whenever a .rill file under the target
// changes. Check failures are printed, not returned, so the loop keeps
// going.
func watchLoop(cmd *cobra.Command, target string, settings rill.PkgLoadSettings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watchDir := target
	if stat, err := os.Stat(target); err == nil && !stat.IsDir() {
		watchDir = filepath.Dir(target)
	}
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("could not watch %s: %w", watchDir, err)
	}

	report := func() {
		if err := checkOnce(target, settings); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	report()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".rill") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			report()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}
