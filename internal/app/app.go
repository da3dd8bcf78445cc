// Package app wires the cobra command, ambient config, bookmark catalog,
// and the chosen remote backend together and runs the bubbletea program.
package app

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gateway/internal/appconfig"
	"gateway/internal/backend/ftpfs"
	"gateway/internal/backend/scpfs"
	"gateway/internal/backend/sftpfs"
	"gateway/internal/bookmarks"
	"gateway/internal/orchestrator"
	"gateway/internal/pathutil"
	"gateway/internal/remotefs"
	"gateway/internal/seal"
	"gateway/internal/ui"
)

const version = "0.1.0"

var (
	flagPassword string
	flagBookmark string
)

// exitCode carries runGateway's result out of cobra's RunE, since
// Execute only reports whether an error occurred, not a process code.
var exitCode int

// Run parses args, connects, runs the TUI, and returns a process exit code.
func Run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cmd := newRootCmd(logger)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		return 1
	}
	return exitCode
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gateway [protocol://][username@]host[:port]",
		Short:         "Dual-pane terminal file manager for SFTP, SCP, FTP, and FTPS",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runGateway(args, logger)
			exitCode = code
			return err
		},
	}
	cmd.Flags().StringVarP(&flagPassword, "password", "P", "", "password for the remote connection")
	cmd.Flags().StringVar(&flagBookmark, "bookmark", "", "connect using a saved bookmark by name")
	return cmd
}

func runGateway(args []string, logger *slog.Logger) (int, error) {
	uiCfg, err := appconfig.Load()
	if err != nil {
		logger.Warn("config load failed, using defaults", "error", err)
		uiCfg = appconfig.Default()
	}

	keyPath, catalogPath, err := persistedStatePaths()
	if err != nil {
		return 1, fmt.Errorf("resolve config directory: %w", err)
	}
	keyring, err := seal.Load(keyPath)
	if err != nil {
		return 1, fmt.Errorf("load seal key: %w", err)
	}
	catalog, err := bookmarks.Open(catalogPath, keyring)
	if err != nil {
		return 1, fmt.Errorf("open bookmark catalog: %w", err)
	}

	addr, password, err := resolveTarget(args, catalog)
	if err != nil {
		return 1, err
	}

	local := remotefs.NewLocal()
	remote, err := newBackend(addr.Protocol)
	if err != nil {
		return 1, err
	}

	orch := orchestrator.New(local, remote)
	if err := orch.Connect(addr.Host, addr.Port, addr.Username, password); err != nil {
		return 1, fmt.Errorf("connect: %w", err)
	}

	catalog.PushRecent(bookmarks.RecentEntry{
		Protocol:    addr.Protocol,
		Address:     addr.Host,
		Port:        addr.Port,
		Username:    addr.Username,
		ConnectedAt: orch.ConnectedAt(),
	})
	if err := catalog.Save(); err != nil {
		logger.Warn("bookmark catalog save failed", "error", err)
	}

	var program *tea.Program
	model := ui.NewModel(orch, uiCfg)
	model.SetProgramGetter(func() *tea.Program { return program })
	program = tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return 1, fmt.Errorf("run: %w", err)
	}
	if model, ok := finalModel.(ui.Model); ok {
		if err := appconfig.Save(model.ConfigSnapshot()); err != nil {
			logger.Warn("config save failed", "error", err)
		}
	}
	return 0, nil
}

// resolveTarget parses the address URI (or bookmark) and resolves the
// password using the precedence flag > bookmark > interactive prompt
// (spec.md §6.2).
func resolveTarget(args []string, catalog *bookmarks.Catalog) (pathutil.Address, string, error) {
	var raw string
	var bookmarkPassword string
	haveBookmarkPassword := false

	if flagBookmark != "" {
		bm, ok, err := catalog.Get(flagBookmark)
		if err != nil {
			return pathutil.Address{}, "", fmt.Errorf("load bookmark %q: %w", flagBookmark, err)
		}
		if !ok {
			return pathutil.Address{}, "", fmt.Errorf("no such bookmark: %q", flagBookmark)
		}
		raw = fmt.Sprintf("%s://%s@%s:%d", bm.Protocol, bm.Username, bm.Address, bm.Port)
		bookmarkPassword = bm.Password
		haveBookmarkPassword = bm.Password != ""
	} else if len(args) == 1 {
		raw = args[0]
	} else {
		return pathutil.Address{}, "", fmt.Errorf("an address or --bookmark is required")
	}

	addr, err := pathutil.ParseAddress(raw)
	if err != nil {
		return pathutil.Address{}, "", fmt.Errorf("parse address: %w", err)
	}

	switch {
	case flagPassword != "":
		return addr, flagPassword, nil
	case haveBookmarkPassword:
		return addr, bookmarkPassword, nil
	default:
		pw, err := promptPassword()
		if err != nil {
			return pathutil.Address{}, "", fmt.Errorf("read password: %w", err)
		}
		return addr, pw, nil
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func newBackend(protocol string) (remotefs.Filesystem, error) {
	switch protocol {
	case "sftp":
		return sftpfs.New(), nil
	case "scp":
		return scpfs.New(), nil
	case "ftp":
		return ftpfs.New(false), nil
	case "ftps":
		return ftpfs.New(true), nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %q", protocol)
	}
}

func persistedStatePaths() (keyPath, catalogPath string, err error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", "", err
	}
	dir := base + "/gateway"
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", err
	}
	return dir + "/key", dir + "/bookmarks.toml", nil
}
