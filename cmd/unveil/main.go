package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/unveil/chapter"
	"github.com/lixenwraith/unveil/clock"
	"github.com/lixenwraith/unveil/config"
	"github.com/lixenwraith/unveil/navigation"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/shell"
	"github.com/lixenwraith/unveil/status"
)

const (
	logDir      = "logs"
	logFileName = "unveil.log"
	maxLogSize  = 10 * 1024 * 1024
)

type flags struct {
	address  string
	debug    bool
	mute     bool
	schedule string
	content  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "unveil",
		Short:         "Date-gated chapters in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(f)
		},
	}
	root.PersistentFlags().StringVar(&f.schedule, "schedule", "", "unlock schedule YAML (default: built-in)")
	root.Flags().StringVar(&f.address, "url", "", "address with date, chapter and fast parameters, e.g. '?date=2026-02-10&chapter=3'")
	root.Flags().BoolVar(&f.debug, "debug", false, "write logs to "+filepath.Join(logDir, logFileName))
	root.Flags().BoolVar(&f.mute, "mute", false, "start muted")
	root.Flags().StringVar(&f.content, "content", "", "chapter content YAML (default: built-in)")

	root.AddCommand(newScheduleCmd(&f))
	return root
}

func newScheduleCmd(f *flags) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the unlock schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadConfigFromEnv()
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			s, err := loadSchedule(f.schedule, cfg, loc)
			if err != nil {
				return err
			}
			now := clock.NewSimulatedClock(clock.NewSystemProvider(), at, loc).Now()
			printSchedule(cmd.OutOrStdout(), s, now)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate at this date instead of now")
	return cmd
}

func run(f flags) error {
	cfg := config.LoadConfigFromEnv()
	logFile := setupLogging(f.debug || cfg.Debug)
	if logFile != nil {
		defer logFile.Close()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	schedule, err := loadSchedule(f.schedule, cfg, loc)
	if err != nil {
		return err
	}
	if err := schedule.Validate(); err != nil {
		log.Printf("[main] schedule: %v", err)
	}

	content, err := loadContent(f.content)
	if err != nil {
		return err
	}

	address, err := navigation.ParseAddress(f.address)
	if err != nil {
		return err
	}
	params := navigation.ParseParams(address)

	opts := shell.Options{
		Schedule:      schedule,
		Clock:         clock.NewSimulatedClock(clock.NewSystemProvider(), params.Date, loc),
		Address:       address,
		History:       cfg.History(),
		Content:       content,
		Registry:      status.NewRegistry(),
		FrameInterval: cfg.FrameInterval(),
		Muted:         f.mute,
	}
	return shell.Run(opts, cfg.Audio(f.mute))
}

func loadSchedule(path string, cfg config.Config, loc *time.Location) (*policy.Schedule, error) {
	if path == "" {
		path = cfg.ScheduleFile
	}
	if path == "" {
		return policy.DefaultSchedule(loc), nil
	}
	return policy.LoadScheduleFile(path, loc)
}

func loadContent(path string) (*chapter.Content, error) {
	if path == "" {
		return chapter.DefaultContent()
	}
	return chapter.LoadContentFile(path)
}

func printSchedule(w io.Writer, s *policy.Schedule, now time.Time) {
	fmt.Fprintf(w, "event %s .. %s (%s)\n",
		s.Start().Format("2006-01-02 15:04"), s.End().Format("2006-01-02 15:04"), s.EventPhase(now))
	for _, rule := range s.Rules() {
		state := "open"
		if !s.IsChapterUnlocked(rule.Chapter, now) {
			state = "unlocks " + humanize.RelTime(rule.At, now, "ago", "from now")
		}
		fmt.Fprintf(w, "%2s  %-12s %s  %s\n", rule.Chapter, rule.Title, rule.At.Format("Mon Jan 2 15:04"), state)
	}
}

// setupLogging routes the log package to a rotated file in debug mode and discards it otherwise
// The terminal belongs to the shell, so stdout and stderr never receive log output
func setupLogging(debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("unveil_%s.log", time.Now().Format("20060102_150405")))
		_ = os.Rename(logPath, rotated)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[main] logging started")
	return f
}
