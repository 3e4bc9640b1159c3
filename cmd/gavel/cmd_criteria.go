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

	"github.com/teradata-labs/gavel/pkg/criteria"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Inspect evaluation criteria profiles",
}

var criteriaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builtin criteria profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return render(cmd, criteria.ProfileNames())
	},
}

var criteriaShowCmd = &cobra.Command{
	Use:   "show <profile>",
	Short: "Show a builtin profile or a criteria file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crit, err := criteria.Profile(args[0])
		if err != nil {
			// Fall through to treating the argument as a file path.
			if fileCrit, ferr := criteria.LoadFile(args[0]); ferr == nil {
				crit = fileCrit
			} else {
				return err
			}
		}
		return render(cmd, crit)
	},
}

var criteriaValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a JSON criteria document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crit, err := criteria.LoadFile(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s: valid (%d criteria)\n", args[0], len(crit.Criteria))
		return nil
	},
}

func init() {
	criteriaCmd.AddCommand(criteriaListCmd, criteriaShowCmd, criteriaValidateCmd)
	rootCmd.AddCommand(criteriaCmd)
}
