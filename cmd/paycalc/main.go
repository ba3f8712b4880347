/*
paycalc - Command-line pay calculator

PURPOSE:
  Prices a single shift or resolves a pay period without a server or
  database. Guides come from files or the built-in award presets and are
  held in an in-memory store.

COMMANDS:
  calculate  Price one shift
  period     Resolve the pay period(s) containing an instant

EXAMPLES:
  # Saturday shift under the retail preset
  paycalc calculate --preset retail --rate 26.55 --fy 2024 \
      --start 2024-07-06T09:00 --end 2024-07-06T17:00 --break 12:00/12:30

  # Pick the guide in force from several files
  paycalc calculate --guide fy2024.yaml --guide fy2025.yaml \
      --start 2024-06-30T22:00 --end 2024-07-01T06:00 -o json

  # Next three fortnights from today in Perth
  paycalc period --type fortnightly --tz Australia/Perth --count 3

SEE ALSO:
  - payroll/calculate.go: Calculate
  - payroll/period.go: ResolvePayPeriodRange
*/
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
