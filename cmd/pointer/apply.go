package main

import (
	"fmt"
	"io"
	"os"

	"pointer/internal/apply"
	"pointer/internal/highlight"
	"pointer/internal/postprocess"
	"pointer/internal/verify"

	"github.com/spf13/cobra"
)

type applyOptions struct {
	write bool
	plain bool
}

func newApplyCmd() *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply <file> [response]",
		Short: "Apply a saved model response to a file",
		Long: `Apply reads a model response from the given file, or stdin when it is
omitted or "-", and applies the edit it asks for to <file> the same way the
server does. Without --write the patch is printed and nothing is saved.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 2 {
				source = args[1]
			}
			return runApply(cmd, opts, args[0], source)
		},
	}
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the result to the file")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colors")
	return cmd
}

func runApply(cmd *cobra.Command, opts *applyOptions, path, source string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	response, err := readSource(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	processed := postprocess.Process(response)
	ins := apply.ParseInstruction(processed.OriginalText, processed.CodeBlocks, true)
	r := highlight.New("", opts.plain)
	out := cmd.OutOrStdout()

	if ins.Kind == apply.KindNoOp {
		fmt.Fprintln(out, r.Status("noop", "the response asks for no edit"))
		return nil
	}
	applied, err := apply.Apply(string(content), ins)
	if err != nil {
		fmt.Fprintln(out, r.Status("invalid", err.Error()))
		return err
	}

	result := applied.Content
	if ins.Kind == apply.KindReplaceRange && cfg.Verify.Enabled {
		check := verify.VerifyAndRepair(result, ins.Start, ins.End, ins.Body, verify.ParseRepairMode(cfg.Verify.Repair))
		fmt.Fprintln(out, r.Status(check.Label(), fmt.Sprintf("lines %d-%d", ins.Start, ins.End)))
		result = check.Content
	}

	summary := apply.Summarize(string(content), result)
	fmt.Fprintln(out, r.Status("applied", fmt.Sprintf("%s (%s, +%d -%d)", path, ins.Kind, summary.LinesAdded, summary.LinesRemoved)))
	if !opts.write {
		fmt.Fprintln(out, r.Diff(summary.Patch))
		return nil
	}
	return writeFile(path, result)
}

func readSource(stdin io.Reader, source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(source)
	return string(data), err
}
