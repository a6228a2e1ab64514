/*
main.go - Application entry point

PURPOSE:
  Runs the attendance CLI. All wiring lives in the cli package; this
  file only hands control to cobra.

EXAMPLES:
  # Add an employee and record a point
  attendance employee add 100 Doe Jane
  attendance point add 100 --date 01-05-2025 --reason "Absence"

  # Expire points and export the audit trail
  attendance rolloff run

  # Keep the scheduler running
  attendance watch

  # Everything against a specific database
  attendance --db ./data/points.db report dashboard

SEE ALSO:
  - cli/root.go: Command tree and shared plumbing
  - points/: The engine underneath
*/
package main

import "github.com/warp/points-engine/cli"

func main() {
	cli.Execute()
}
