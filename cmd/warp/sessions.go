// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warpcore/warp/pkg/trajectory"
)

var sessionsListLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists recorded sessions from the trajectory index",
	RunE:  runSessionsList,
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsListLimit, "limit", 20, "maximum sessions to show (0 = unlimited)")
	sessionsCmd.AddCommand(sessionsListCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	dd := resolvedDataDir()
	dbPath := filepath.Join(dd, "trajectory.db")

	ix, err := trajectory.Open(dbPath)
	if err != nil {
		return fmt.Errorf("warp sessions list: %w", err)
	}
	defer ix.Close()

	ctx := context.Background()
	if n, err := ix.Rebuild(ctx, dd); err != nil {
		fmt.Fprintf(os.Stderr, "warning: trajectory rebuild: %v\n", err)
	} else if n > 0 {
		// Rebuild is cheap and idempotent (Upsert), so it is always safe to
		// run before listing: it picks up sessions written by a process
		// that never called into pkg/trajectory itself.
	}

	recs, err := ix.List(ctx, sessionsListLimit)
	if err != nil {
		return fmt.Errorf("warp sessions list: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTARTED\tOUTCOME\tTASK")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.SessionID, r.StartedAt.Format("2006-01-02 15:04"), orDash(r.OutcomeKind), orDash(r.TaskDescription))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
