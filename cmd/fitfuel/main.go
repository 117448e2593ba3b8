package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "fitfuel",
	Short:         "Meal-to-workout coach",
	Long:          "fitfuel estimates the macros of a meal, keeps your daily progress and suggests a workout to match.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rouletteCmd)
	rootCmd.AddCommand(cheatCmd)
	rootCmd.AddCommand(burnCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(workoutsCmd)
	rootCmd.AddCommand(foodsCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
