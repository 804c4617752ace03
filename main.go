// Package main provides the entry point for the signspeak CLI application.
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/mitchellh/go-homedir"
	"github.com/signspeak/signspeak/internal/lang"
	"github.com/signspeak/signspeak/internal/speech"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string

	rootCmd = &cobra.Command{
		Use:   "signspeak",
		Short: "Turn recognized sign language gestures into spoken sentences",
		Long: paragraph(
			fmt.Sprintf("\nCollects gestures from a prediction server into a sentence, %s after a pause and speaks the result.",
				keyword("translates it")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("config") {
				viper.SetConfigFile(configFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("unable to read config file: %w", err)
				}
			}
			return loadDotEnv()
		},
		RunE: execute,
	}
)

// settings is the validated configuration shared by all commands.
type settings struct {
	server    string
	language  string
	languages []lang.Language
	pause     time.Duration
	headless  bool
	debug     bool

	translator  string
	openAIModel string

	speechEngine string
	speechRate   float64
	speechVolume float64
	cacheDir     string
	cacheMaxSize int64 // bytes
}

const (
	translatorBackend = "backend"
	translatorOpenAI  = "openai"
)

func loadSettings() (settings, error) {
	s := settings{
		server:       strings.TrimRight(viper.GetString("server"), "/"),
		pause:        viper.GetDuration("pause"),
		headless:     viper.GetBool("headless"),
		debug:        viper.GetBool("debug"),
		translator:   strings.ToLower(viper.GetString("translator")),
		openAIModel:  viper.GetString("openai.model"),
		speechEngine: strings.ToLower(viper.GetString("speech.engine")),
		speechRate:   viper.GetFloat64("speech.rate"),
		speechVolume: viper.GetFloat64("speech.volume"),
		cacheDir:     viper.GetString("speech.cache.dir"),
	}

	u, err := url.Parse(s.server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return s, fmt.Errorf("server must be an http(s) URL, got %q", s.server)
	}

	if err := validatePause(s.pause); err != nil {
		return s, err
	}

	languages, err := lang.Catalogue(viper.GetStringSlice("languages"))
	if err != nil {
		return s, fmt.Errorf("invalid languages: %w", err)
	}
	current, err := lang.Parse(viper.GetString("language"))
	if err != nil {
		return s, fmt.Errorf("invalid language: %w", err)
	}
	if lang.Index(languages, current.Code) < 0 {
		languages = append(languages, current)
	}
	s.language = current.Code
	s.languages = languages

	switch s.translator {
	case translatorBackend, translatorOpenAI:
	default:
		return s, fmt.Errorf("translator must be %q or %q, got %q", translatorBackend, translatorOpenAI, s.translator)
	}

	switch s.speechEngine {
	case speech.EngineAuto, speech.EngineESpeak, speech.EngineGTTS, speech.EngineNone:
	default:
		return s, fmt.Errorf("unknown speech engine %q", s.speechEngine)
	}

	if s.speechRate < 0.1 || s.speechRate > 3.0 {
		return s, fmt.Errorf("speech rate must be between 0.1 and 3.0, got %.2f", s.speechRate)
	}

	if s.speechVolume <= 0 || s.speechVolume > 1.0 {
		return s, fmt.Errorf("speech volume must be above 0 and at most 1.0, got %.2f", s.speechVolume)
	}

	maxSize := viper.GetInt64("speech.cache.max_size")
	if maxSize < 1 || maxSize > 10000 {
		return s, fmt.Errorf("speech cache max_size must be between 1 and 10000 MB, got %d", maxSize)
	}
	s.cacheMaxSize = maxSize << 20

	if s.cacheDir == "" {
		dir, err := gap.NewScope(gap.User, "signspeak").CacheDir()
		if err != nil {
			return s, fmt.Errorf("unable to find cache directory: %w", err)
		}
		s.cacheDir = filepath.Join(dir, "audio")
	}
	s.cacheDir = expandPath(s.cacheDir)

	if !s.headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		s.headless = true
	}

	return s, nil
}

// Bounds for the quiet period before translating.
const (
	minPause = 100 * time.Millisecond
	maxPause = time.Minute
)

func validatePause(d time.Duration) error {
	if d < minPause || d > maxPause {
		return fmt.Errorf("pause must be between %s and %s, got %s", minPause, maxPause, d)
	}
	return nil
}

// expandPath expands ~ and environment variables.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return path
	}
	return expanded
}

// loadDotEnv reads .env from the working directory, if present.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to load .env: %w", err)
	}
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	return run(cmd.Context(), s)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringP("server", "s", "http://127.0.0.1:5000", "prediction server URL")
	flags.StringP("lang", "l", "en", "target language code")
	flags.String("translator", translatorBackend, "translator: backend or openai")
	flags.String("speech", speech.EngineAuto, "speech engine: auto, espeak, gtts or none")
	flags.Bool("debug", false, "debug logging")
	rootCmd.Flags().Duration("pause", 2500*time.Millisecond, "quiet period before translating")
	rootCmd.Flags().Bool("headless", false, "log to stderr instead of starting the TUI")

	// Config bindings
	_ = viper.BindPFlag("server", flags.Lookup("server"))
	_ = viper.BindPFlag("language", flags.Lookup("lang"))
	_ = viper.BindPFlag("translator", flags.Lookup("translator"))
	_ = viper.BindPFlag("speech.engine", flags.Lookup("speech"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("pause", rootCmd.Flags().Lookup("pause"))
	_ = viper.BindPFlag("headless", rootCmd.Flags().Lookup("headless"))

	viper.SetDefault("server", "http://127.0.0.1:5000")
	viper.SetDefault("language", "en")
	viper.SetDefault("languages", lang.DefaultCodes)
	viper.SetDefault("pause", 2500*time.Millisecond)
	viper.SetDefault("translator", translatorBackend)
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("speech.engine", speech.EngineAuto)
	viper.SetDefault("speech.rate", 1.0)
	viper.SetDefault("speech.volume", 1.0)
	viper.SetDefault("speech.cache.dir", "")
	viper.SetDefault("speech.cache.max_size", 100)

	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(configCmd, manCmd, speakCmd, voicesCmd, translateCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "signspeak")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "signspeak")}, dirs...)
	}

	if c := os.Getenv("SIGNSPEAK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("signspeak")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("signspeak")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	configFile = filepath.Join(dirs[0], "signspeak.yml")
	if err := initDefaultConfig(viper.GetViper()); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

// initDefaultConfig writes the default config file and loads it into v so
// the running process uses and watches it.
func initDefaultConfig(v *viper.Viper) error {
	if err := ensureConfigFile(); err != nil {
		return err
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}
	return nil
}
