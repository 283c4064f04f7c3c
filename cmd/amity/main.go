package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/malonaz/amity/cli/chat"
	"github.com/malonaz/amity/internal/configuration"
	"github.com/malonaz/amity/internal/debug"
)

var configFilepath string

func main() {
	// Filled in once flags are parsed.
	config := &configuration.Config{}

	rootCmd := &cobra.Command{
		Use:     "amity",
		Short:   "Chat with Amity, a friendly Gemini assistant",
		Version: "1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := configuration.Parse(configFilepath)
			if err != nil {
				return err
			}
			*config = *parsed
			debug.SetPath(config.UI.DebugLog)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFilepath, "config", configuration.DefaultPath, "Path to the configuration file")

	chatCmd := chat.NewCmd(config)
	rootCmd.AddCommand(chatCmd)
	// Without a subcommand, chat.
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		chatCmd.SetContext(cmd.Context())
		return chatCmd.RunE(chatCmd, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
