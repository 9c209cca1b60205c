package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "westerlines",
	Short: "Westergaardian line and counterpoint analysis",
	Long:  `westerlines evaluates species-counterpoint exercises against Westergaard's line-construction and voice-leading rules.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
