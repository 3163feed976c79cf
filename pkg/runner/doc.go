/*
Package runner implements the cashier console: a read-execute-reply loop that
drives one return session from a stream of commands.

The runner manages the session through a session.Manager and talks to the
outside world through pluggable handlers.

# Key Components

  - Runner: executes commands against one session until input ends.
  - IOHandler: decouples how commands arrive and replies leave.
  - TextHandler: short words for interactive terminal use ("qty 1122 2").
  - JSONHandler: JSON Lines for scripts and other processes.

# Usage

	r := runner.NewRunner(sessions,
		runner.WithSessionID("register-1"),
		runner.WithInvoices(invoices),
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
