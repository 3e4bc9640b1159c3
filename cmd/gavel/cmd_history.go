// Copyright 2026 Teradata
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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/gavel/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored verdicts",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent verdicts",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete verdicts older than a retention window",
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().String("kind", "", "filter by kind (evaluation, comparison)")
	historyListCmd.Flags().Int("limit", 20, "maximum rows")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "retention window")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	if config.Database.Path == "" {
		return nil, errors.New("history is disabled: set database.path or --db")
	}
	return history.Open(config.Database.Path, nil)
}

// historyRow is the list view: the payload stays behind `show`.
type historyRow struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Provider  string    `json:"provider,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := store.List(cmd.Context(), history.Kind(kind), limit)
	if err != nil {
		return err
	}

	rows := make([]historyRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, historyRow{
			ID:        rec.ID,
			Kind:      string(rec.Kind),
			Provider:  rec.Provider,
			Mode:      rec.Mode,
			CreatedAt: rec.CreatedAt,
		})
	}
	return render(cmd, rows)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var payload interface{}
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		payload = string(rec.Payload)
	}
	return render(cmd, map[string]interface{}{
		"id":         rec.ID,
		"kind":       string(rec.Kind),
		"provider":   rec.Provider,
		"mode":       rec.Mode,
		"created_at": rec.CreatedAt,
		"verdict":    payload,
	})
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d verdicts\n", removed)
	return nil
}
