package main

import (
	"fmt"
	"os"

	"github.com/brizzai/social-connect/internal/apidoc"
	"github.com/brizzai/social-connect/internal/auth"
	"github.com/brizzai/social-connect/internal/config"
	"github.com/brizzai/social-connect/internal/instagram"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/brizzai/social-connect/internal/server"
	"github.com/brizzai/social-connect/internal/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"
)

func main() {
	Execute()
}

// rootCmd represents the base command, which serves by default
var rootCmd = &cobra.Command{
	Use:   "social-connect",
	Short: "Connect social media accounts and publish to them",
	Long: `social-connect links an owner's Instagram business account through Facebook Login
and publishes image posts to it, over REST and optionally over MCP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for an owner, for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		svc, err := auth.NewService(cfg)
		if err != nil {
			return err
		}
		token, err := svc.IssueToken(email)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	tokenCmd.Flags().String("email", "", "Owner email to issue the token for")

	rootCmd.AddCommand(serveCmd, configCmd, tokenCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		apidoc.Module,
		store.Module,
		auth.Module,
		instagram.Module,
		server.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}
