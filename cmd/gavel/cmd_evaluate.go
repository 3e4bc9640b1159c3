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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/gavel/pkg/judge"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a response with the judge",
	Long: `Score one response against a criteria profile (or a single legacy
criterion) and print the verdict.

The response comes from --response, --response-file, or stdin.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("prompt", "", "the prompt the response answers (required)")
	evaluateCmd.Flags().String("response", "", "the response text to score")
	evaluateCmd.Flags().String("response-file", "", "read the response from a file")
	evaluateCmd.Flags().String("profile", "", "builtin criteria profile (balanced, basic, technical, creative, default)")
	evaluateCmd.Flags().String("criteria-file", "", "JSON criteria document")
	evaluateCmd.Flags().String("criterion", "", "legacy single-criterion mode (skips multi-criteria scoring)")
	_ = evaluateCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	prompt, _ := cmd.Flags().GetString("prompt")
	response, err := readResponseArg(cmd, "response", "response-file")
	if err != nil {
		return err
	}

	req := &judge.EvaluateRequest{
		Prompt:   prompt,
		Response: response,
	}
	if criterion, _ := cmd.Flags().GetString("criterion"); criterion != "" {
		req.Criterion = criterion
	} else {
		file, _ := cmd.Flags().GetString("criteria-file")
		profile, _ := cmd.Flags().GetString("profile")
		crit, err := resolveCriteria(file, profile)
		if err != nil {
			return err
		}
		req.Criteria = crit
	}
	req.PreferredProvider, _ = cmd.Flags().GetString("provider")

	svc, logger, err := buildService(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = svc.Close()
		_ = logger.Sync()
	}()

	result, err := svc.EvaluateResponse(cmd.Context(), req)
	if err != nil {
		return err
	}
	return render(cmd, result)
}

// readResponseArg resolves text from a flag, a file flag, or stdin.
func readResponseArg(cmd *cobra.Command, textFlag, fileFlag string) (string, error) {
	if text, _ := cmd.Flags().GetString(textFlag); text != "" {
		return text, nil
	}
	if path, _ := cmd.Flags().GetString(fileFlag); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		var sb strings.Builder
		buf := make([]byte, 32*1024)
		for {
			n, rerr := os.Stdin.Read(buf)
			sb.Write(buf[:n])
			if rerr != nil {
				break
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("no response given: use --%s, --%s, or stdin", textFlag, fileFlag)
}
