package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"research_article_generator/config"
	"research_article_generator/credential"
	"research_article_generator/generator"
	"research_article_generator/research"
	"research_article_generator/server"
	"research_article_generator/store"
)

var (
	configPath string
	verbose    bool
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:           "research-article",
		Short:         "Automated research article generator",
		Long:          "Turns interview transcripts into an industry insights article and a Word document.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newRunsCommand())
	rootCmd.AddCommand(newHashPasswordCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// buildRunner wires the runner for cfg. st may be nil.
func buildRunner(cfg config.Config, st *store.Store) *research.Runner {
	var verifier research.Verifier
	if cfg.LLM.Provider == "mock" {
		verifier = credential.Skip{}
	} else {
		verifier = credential.New(cfg.LLM.BaseURL, nil, cfg.Verify.Timeout, cfg.Verbose, log.Default())
	}

	opts := research.Options{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		BaseURL:        cfg.LLM.BaseURL,
		RequestTimeout: cfg.LLM.RequestTimeout,
		MarginPt:       cfg.Document.MarginPt,
		Verifier:       verifier,
		NewLLM:         generator.NewLLM,
		Verbose:        cfg.Verbose,
		Logger:         log.Default(),
	}
	// A nil *store.Store must not become a non-nil Ledger.
	if st != nil {
		opts.Ledger = st
	}
	return research.NewRunner(opts)
}

func openStore(cfg config.Config) *store.Store {
	st, err := store.New(cfg.Store)
	if err != nil {
		log.Printf("[WARN] run ledger disabled: %v", err)
		return nil
	}
	return st
}

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ServerAddr = addr
			}

			st := openStore(cfg)
			var runs server.RunLister
			if st != nil {
				defer st.Close()
				runs = st
			}

			srv, err := server.New(buildRunner(cfg, st), cfg, runs, log.Default())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx, cfg.ServerAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides server_addr)")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for web.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := server.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
