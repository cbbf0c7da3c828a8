package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leynos/claude-q/internal/app"
	"github.com/leynos/claude-q/internal/config"
	"github.com/leynos/claude-q/internal/editor"
	"github.com/leynos/claude-q/internal/gitinfo"
	"github.com/leynos/claude-q/internal/hook"
	"github.com/leynos/claude-q/internal/installer"
	"github.com/leynos/claude-q/internal/queue"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// hookExit carries the exit status of hook commands, which never surface
// errors to the caller.
var hookExit int

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			os.Exit(1)
		case errors.Is(err, app.ErrEditConflict):
			fmt.Fprintf(os.Stderr, "q edit: %v\n", err)
			os.Exit(1)
		case errors.Is(err, gitinfo.ErrNoTopic):
			fmt.Fprintf(os.Stderr, "git q: %v\n", err)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "q: %v\n", err)
			os.Exit(2)
		}
	}
	os.Exit(hookExit)
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "put", "hook stop").
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	dir, _ := cmd.Flags().GetString("dir")
	a, err := app.New(cfg, dir, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func pollInterval(cmd *cobra.Command) time.Duration {
	poll, _ := cmd.Flags().GetFloat64("poll")
	return time.Duration(poll * float64(time.Second))
}

var rootCmd = &cobra.Command{
	Use:           "q",
	Short:         "Topic-based queues (file-backed, flock-locked)",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var putCmd = &cobra.Command{
	Use:   "put [TOPIC]",
	Short: "Open $EDITOR, enqueue message",
	Long:  "Open $EDITOR, enqueue message.\n\nIf TOPIC is omitted, the first line of the editor content is the topic.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !editor.StdinIsTerminal() {
			return errors.New("stdin is not a terminal; use 'q readto' to enqueue from a pipe")
		}

		a, err := newApp(cmd, "put")
		if err != nil {
			return err
		}
		defer a.Close()

		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}

		uid, err := a.Put(topic)
		if err != nil {
			return err
		}
		fmt.Println(uid)
		return nil
	},
}

var readtoCmd = &cobra.Command{
	Use:   "readto [TOPIC]",
	Short: "Read stdin, enqueue message",
	Long:  "Read stdin, enqueue message.\n\nIf TOPIC is omitted, the first line of stdin is the topic.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "readto")
		if err != nil {
			return err
		}
		defer a.Close()

		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}

		text, err := readStdin()
		if err != nil {
			return err
		}

		uid, err := a.ReadTo(topic, text)
		if err != nil {
			return err
		}
		fmt.Println(uid)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get TOPIC",
	Short: "Dequeue first message to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		block, _ := cmd.Flags().GetBool("block")

		a, err := newApp(cmd, "get")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.Get(args[0], block, pollInterval(cmd))
		if err != nil {
			return err
		}
		fmt.Print(msg.Content)
		return nil
	},
}

var peekCmd = &cobra.Command{
	Use:   "peek TOPIC [UUID]",
	Short: "Print message without removing it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "peek")
		if err != nil {
			return err
		}
		defer a.Close()

		uid := ""
		if len(args) > 1 {
			uid = args[1]
		}

		msg, err := a.Peek(args[0], uid)
		if err != nil {
			return err
		}
		fmt.Print(msg.Content)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list TOPIC",
	Short: "List messages with UUID and a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		a, err := newApp(cmd, "list")
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.List(args[0])
		if err != nil {
			return err
		}

		for _, m := range msgs {
			if quiet {
				fmt.Println(m.UUID)
			} else {
				fmt.Printf("%s %s\n", m.UUID, app.Summarize(m.Content, 80))
			}
		}
		return nil
	},
}

var delCmd = &cobra.Command{
	Use:   "del TOPIC UUID",
	Short: "Delete message by UUID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "del")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Delete(args[0], args[1])
	},
}

var editCmd = &cobra.Command{
	Use:   "edit TOPIC UUID",
	Short: "Open message in $EDITOR, then replace it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !editor.StdinIsTerminal() {
			return errors.New("stdin is not a terminal; use 'q replace' to set content from a pipe")
		}

		a, err := newApp(cmd, "edit")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Edit(args[0], args[1])
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace TOPIC UUID",
	Short: "Replace message content from stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "replace")
		if err != nil {
			return err
		}
		defer a.Close()

		body, err := readStdin()
		if err != nil {
			return err
		}

		return a.Replace(args[0], args[1], body)
	},
}

// git command: topic derived from remote:branch of the current repository.
var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Git-aware queue operations (derives topic from remote:branch)",
}

var gitPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Open $EDITOR, enqueue into git-derived topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !editor.StdinIsTerminal() {
			return errors.New("stdin is not a terminal; use 'q git readto' to enqueue from a pipe")
		}

		topic, err := gitinfo.DeriveTopic()
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "git put")
		if err != nil {
			return err
		}
		defer a.Close()

		uid, err := a.Put(topic)
		if err != nil {
			return err
		}
		fmt.Println(uid)
		return nil
	},
}

var gitReadtoCmd = &cobra.Command{
	Use:   "readto",
	Short: "Read stdin, enqueue into git-derived topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := gitinfo.DeriveTopic()
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "git readto")
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := readStdin()
		if err != nil {
			return err
		}

		uid, err := a.ReadTo(topic, text)
		if err != nil {
			return err
		}
		fmt.Println(uid)
		return nil
	},
}

var gitGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Dequeue from git-derived topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		block, _ := cmd.Flags().GetBool("block")

		topic, err := gitinfo.DeriveTopic()
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "git get")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.Get(topic, block, pollInterval(cmd))
		if err != nil {
			return err
		}
		fmt.Print(msg.Content)
		return nil
	},
}

// hook command: Claude Code hook entry points. These always exit 0 unless
// explicitly configured otherwise, so a broken queue never blocks the agent.
var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Claude Code hook entry points",
}

var hookPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "UserPromptSubmit hook: intercept =qput prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "hook prompt")
		if err != nil {
			return err
		}
		defer a.Close()

		h := hook.New(a.Store(), gitinfo.New(gitinfo.ExecRunner{}))
		hookExit = h.RunPrompt(os.Stdin, os.Stdout, os.Stderr)
		return nil
	},
}

var hookStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop hook: feed the next queued message back to the agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "hook stop")
		if err != nil {
			return err
		}
		defer a.Close()

		h := hook.New(a.Store(), gitinfo.New(gitinfo.ExecRunner{}))
		hookExit = h.RunStop(os.Stdout)
		return nil
	},
}

var installHooksCmd = &cobra.Command{
	Use:   "install-hooks",
	Short: "Register the q hooks in Claude Code settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _ := cmd.Flags().GetString("settings")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")

		return installer.Install(installer.Options{
			SettingsPath: settings,
			DryRun:       dryRun,
			Force:        force,
		}, os.Stdout)
	},
}

var uninstallHooksCmd = &cobra.Command{
	Use:   "uninstall-hooks",
	Short: "Remove the q hooks from Claude Code settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _ := cmd.Flags().GetString("settings")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		return installer.Uninstall(installer.Options{
			SettingsPath: settings,
			DryRun:       dryRun,
		}, os.Stdout)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		baseDir, err := app.ResolveBaseDir("", cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", baseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Editor:   %s\n", cfg.Editor)
		return nil
	},
}

// topicCmd shows how a topic maps onto a storage filename, which helps when
// poking at the queue directory by hand.
var topicCmd = &cobra.Command{
	Use:   "topic TOPIC",
	Short: "Print the encoded storage filename for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded, err := queue.EncodeTopic(args[0])
		if err != nil {
			return err
		}
		fmt.Println(encoded + ".json")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "Storage directory (overrides Q_DIR and XDG_STATE_HOME)")

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(readtoCmd)
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("block", false, "Block (poll) until a message exists")
	getCmd.Flags().Float64("poll", 0.2, "Polling interval in seconds when --block is used")
	rootCmd.AddCommand(peekCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolP("quiet", "q", false, "Only print UUIDs (no summaries)")
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(replaceCmd)

	// git subcommands
	gitCmd.AddCommand(gitPutCmd)
	gitCmd.AddCommand(gitReadtoCmd)
	gitCmd.AddCommand(gitGetCmd)
	gitGetCmd.Flags().Bool("block", false, "Block (poll) until a message exists")
	gitGetCmd.Flags().Float64("poll", 0.2, "Polling interval in seconds when --block is used")
	rootCmd.AddCommand(gitCmd)

	// hook subcommands
	hookCmd.AddCommand(hookPromptCmd)
	hookCmd.AddCommand(hookStopCmd)
	rootCmd.AddCommand(hookCmd)

	rootCmd.AddCommand(installHooksCmd)
	installHooksCmd.Flags().String("settings", "", "Path to the Claude Code settings file")
	installHooksCmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	installHooksCmd.Flags().Bool("force", false, "Overwrite existing hook entries")
	rootCmd.AddCommand(uninstallHooksCmd)
	uninstallHooksCmd.Flags().String("settings", "", "Path to the Claude Code settings file")
	uninstallHooksCmd.Flags().Bool("dry-run", false, "Show what would change without writing")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(topicCmd)
}
