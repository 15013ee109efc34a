package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"pointer/internal/client"
	"pointer/internal/fileutil"
	"pointer/internal/highlight"
	"pointer/internal/logging"
	"pointer/internal/snapshot"
	"pointer/internal/watcher"
	"pointer/internal/workspace"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

type askOptions struct {
	root      string
	file      string
	write     bool
	copy      bool
	reasoning bool
	plain     bool
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run one chat turn against a project on disk",
		Long: `Ask loads the project under --root, sends the message with --file as the
current file, and prints the reply. The edit is applied in memory; --write
saves the edited file back to disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.root, "root", ".", "project directory")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "current file, relative to --root")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the edited file back to disk")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the first code block to the clipboard")
	cmd.Flags().BoolVar(&opts.reasoning, "reasoning", false, "request and print the model's reasoning")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colors and markdown rendering")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *askOptions, message string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Discard()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	snap := snapshot.New()
	watchCfg := watcher.ConfigFrom(cfg.Watcher)
	watchCfg.Enabled = false
	mirror, err := watcher.NewMirror(opts.root, snap, watchCfg)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	if _, err := mirror.Import(); err != nil {
		return fmt.Errorf("failed to read project: %w", err)
	}

	ws := workspace.New(snap, workspace.Options{
		Gateway: client.NewGatewayFromConfig(cfg, nil),
		Config:  cfg,
	})
	res, err := ws.Turn(ctx, workspace.TurnRequest{
		Text:        message,
		CurrentFile: opts.file,
		Reasoning:   opts.reasoning,
	})
	if err != nil {
		return err
	}

	r := highlight.New("", opts.plain)
	out := cmd.OutOrStdout()
	if res.Reply.Reasoning != "" {
		fmt.Fprintln(out, r.Status("reasoning", ""))
		fmt.Fprintln(out, res.Reply.Reasoning)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, r.Markdown(res.Reply.Content))
	if res.Err != nil {
		return res.Err
	}

	if opts.copy && len(res.Reply.CodeBlocks) > 0 {
		if err := clipboard.WriteAll(res.Reply.CodeBlocks[0].Code); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "failed to copy to clipboard:", err)
		}
	}

	if res.File == nil {
		fmt.Fprintln(out, r.Status(res.Outcome, res.Strategy))
		return nil
	}
	detail := fmt.Sprintf("%s (%s, +%d -%d)", res.File.Path, res.Strategy, res.Summary.LinesAdded, res.Summary.LinesRemoved)
	if res.Verification != "" {
		detail += " verification: " + res.Verification
	}
	fmt.Fprintln(out, r.Status(res.Outcome, detail))

	if !opts.write {
		fmt.Fprintln(out, "dry run; pass --write to save")
		return nil
	}
	return writeFile(filepath.Join(opts.root, filepath.FromSlash(res.File.Path)), res.File.Content)
}

// writeFile replaces target, keeping its existing file mode.
func writeFile(target, content string) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := fileutil.AtomicWrite(target, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
