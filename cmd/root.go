package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "etf-screener",
	Short: "Screens ETF price histories for oversold bounce candidates",
}

func Execute() error {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(scheduleCmd)
	return rootCmd.Execute()
}
