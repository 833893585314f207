package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coresched/coresched/sched"
)

var validateBundle string // Policy bundle to validate instead of listing

// policiesCmd lists the selectable scheduling policies or validates a bundle
var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List selectable scheduling policies or validate a policy bundle",
	Run: func(cmd *cobra.Command, args []string) {
		if validateBundle != "" {
			bundle, err := sched.LoadPolicyBundle(validateBundle)
			if err != nil {
				logrus.Fatalf("Unable to load policy bundle: %v", err)
			}
			if err := bundle.Validate(); err != nil {
				logrus.Fatalf("Invalid policy bundle: %v", err)
			}
			name := bundle.Policy
			if name == "" {
				name = string(sched.PolicyRoundRobin)
			}
			fmt.Printf("%s: valid (policy=%s)\n", validateBundle, name)
			return
		}
		for _, p := range sched.Policies() {
			fmt.Println(p)
		}
	},
}

func init() {
	policiesCmd.Flags().StringVar(&validateBundle, "validate", "", "Validate this YAML policy bundle and exit")
	rootCmd.AddCommand(policiesCmd)
}
