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
	"github.com/spf13/cobra"

	"github.com/teradata-labs/gavel/pkg/judge"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two responses to the same prompt",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().String("prompt", "", "the prompt both responses answer (required)")
	compareCmd.Flags().String("response-a", "", "first response (required)")
	compareCmd.Flags().String("response-b", "", "second response (required)")
	_ = compareCmd.MarkFlagRequired("prompt")
	_ = compareCmd.MarkFlagRequired("response-a")
	_ = compareCmd.MarkFlagRequired("response-b")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	prompt, _ := cmd.Flags().GetString("prompt")
	responseA, _ := cmd.Flags().GetString("response-a")
	responseB, _ := cmd.Flags().GetString("response-b")
	preferred, _ := cmd.Flags().GetString("provider")

	svc, logger, err := buildService(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = svc.Close()
		_ = logger.Sync()
	}()

	result, err := svc.CompareResponses(cmd.Context(), &judge.CompareRequest{
		Prompt:            prompt,
		ResponseA:         responseA,
		ResponseB:         responseB,
		PreferredProvider: preferred,
	})
	if err != nil {
		return err
	}
	return render(cmd, result)
}
