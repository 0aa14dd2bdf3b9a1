/*
Package cli provides the output and process helpers shared by the bastion
commands.

Output Formatting:

Results render as text or JSON. Report types implement TextRenderer for their
text layout and marshal directly for JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	report := cli.NewValidationReport("user", results)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}
	if !report.OK() {
		return cli.ErrChecksFailed
	}

Exit Codes:

ExitCode maps a command error to the process status: 0 on success, 1 when
payloads or documents failed their checks, 2 for usage and runtime errors.

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr, "Validating")
	progress.Start(int64(len(files)))
	// workers call progress.Increment()
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
