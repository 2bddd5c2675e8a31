package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"similarity-lab/config"
	"similarity-lab/report"
)

var (
	cfg *config.Config

	configPath string
	logLevel   string
	dims       int
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "simlab",
	Short: "Similarity search demos: word vectors, shop recommendations and collaborative filtering",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("dims") {
			applyDims(cfg, dims)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = log.WarnLevel
		}
		log.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (default ./config.json if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().IntVar(&dims, "dims", 384, "Embedding dimensions of the hash encoder and the default collection")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(wordsCmd, analogyCmd, sentencesCmd, sampleCmd)
	rootCmd.AddCommand(productsCmd, recipesCmd)
	rootCmd.AddCommand(cfCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	// load the environment variables
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

/*
loadConfig reads path, or ./config.json when path is empty and the file
exists, then applies SIMLAB_* environment overrides
*/
func loadConfig(path string) (*config.Config, error) {
	c := config.DefaultConfig()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	if err := config.ApplyEnv(c); err != nil {
		return nil, err
	}
	return c, nil
}

// applyDims resizes the hash encoder and the default collection.
func applyDims(c *config.Config, n int) {
	c.Embedding.Dimensions = n
	if def, ok := c.Collections["default"]; ok {
		def.HNSW.Dimensions = n
		c.Collections["default"] = def
	}
}

func newPrinter() *report.Printer {
	return report.NewPrinter(os.Stdout, !noColor)
}

func printWelcome() {
	au := aurora.NewAurora(!noColor)
	fmt.Println(au.BrightCyan(" ___ ___ __  __ _      _   ___ "))
	fmt.Println(au.BrightCyan("/ __|_ _|  \\/  | |    /_\\ | _ )"))
	fmt.Println(au.BrightCyan("\\__ \\| || |\\/| | |__ / _ \\| _ \\"))
	fmt.Println(au.BrightCyan("|___/___|_|  |_|____/_/ \\_\\___/"))
}
