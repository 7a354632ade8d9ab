package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"go.cluttr.dev/gw-install/internal/metaerr"
)

const installUsage = "gw-install <TOOL> [--version vX.Y.Z] [--bin-dir DIR] [OPTION]..."

func newInstallCmd() *cli.Command {
	cfg := installCmd{}

	fs := flag.NewFlagSet("gw-install", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	cfg.fs = fs

	return &cli.Command{
		Name:       "gw-install",
		ShortHelp:  "Download, verify and install a prebuilt release binary.",
		ShortUsage: installUsage,
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type installCmd struct {
	rootCmd

	version      string
	binDir       string
	apiURL       string
	downloadURL  string
	owner        string
	token        string
	checksumTool string

	fs *flag.FlagSet

	// set in tests
	installer *Installer
}

func (c *installCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.StringVar(&c.version, "version", "", "The release tag or version constraint to install (default latest).")
	fs.StringVar(&c.binDir, "bin-dir", "", "The directory to install into (default "+defaultBinDir+").")
	fs.StringVar(&c.apiURL, "api-url", "", "The release metadata API (default "+defaultAPIURL+").")
	fs.StringVar(&c.downloadURL, "download-url", "", "The release download host (default "+defaultDownloadURL+").")
	fs.StringVar(&c.owner, "owner", "", "The owner of the release repository (default "+defaultOwner+").")
	fs.StringVar(&c.token, "token", "", "An optional API token.")
	fs.StringVar(&c.checksumTool, "checksum-tool", "", "The checksum tool: auto, sha256sum, shasum or builtin (default "+defaultChecksumTool+").")
}

// parseRequest interprets the positional arguments left over by the flag
// parser. Options may also follow the tool name. Usage is printed at most
// once; on flag.ErrHelp the command runner prints it.
func (c *installCmd) parseRequest(args []string) (string, error) {
	if len(args) == 0 {
		c.usage()
		return "", fmt.Errorf("%w: missing tool name", ErrUsage)
	}

	tool, rest := args[0], args[1:]
	if err := c.parseSilently(rest); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		c.usage()
		return "", fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if c.fs.NArg() > 0 {
		c.usage()
		return "", fmt.Errorf("%w: unexpected argument: %s", ErrUsage, c.fs.Arg(0))
	}
	return tool, nil
}

// config merges the configuration file and the flags over the defaults.
func (c *installCmd) config() (Config, error) {
	cfg := DefaultConfig()
	if c.ConfigFile != "" {
		if err := LoadConfigFile(c.ConfigFile, &cfg); err != nil {
			return cfg, fmt.Errorf("load configuration: %w", err)
		}
	}
	cfg.merge(Config{
		BinDir:       c.binDir,
		APIURL:       c.apiURL,
		DownloadURL:  c.downloadURL,
		Owner:        c.owner,
		Token:        c.token,
		ChecksumTool: c.checksumTool,
	})
	return cfg, nil
}

// parseSilently parses args without letting the flag set print its usage.
func (c *installCmd) parseSilently(args []string) error {
	usage := c.fs.Usage
	c.fs.Usage = func() {}
	defer func() {
		c.fs.Usage = usage
	}()
	return c.fs.Parse(args)
}

func (c *installCmd) usage() {
	if c.fs.Usage != nil {
		c.fs.Usage()
	}
}

func (c *installCmd) Exec(ctx context.Context, args []string) error {
	tool, err := c.parseRequest(args)
	if err != nil {
		return err
	}

	c.initLogging()

	cfg, err := c.config()
	if err != nil {
		return err
	}

	req := InstallRequest{
		Tool:    tool,
		Version: c.version,
		BinDir:  expandPath(cfg.BinDir),
	}

	installer := c.installer
	if installer == nil {
		installer = &Installer{
			Client:   newClient(cfg.Token),
			Reporter: spinnerReporter{w: os.Stderr},
		}
	}
	installer.Host = cfg.ReleaseHost()
	installer.ArchiveTemplate = cfg.ArchiveTemplate
	installer.ChecksumTool = cfg.ChecksumTool

	res, err := installer.Run(ctx, req)
	if err != nil {
		slog.With("tool", req.Tool, "error", err).
			With(metaerr.GetMetadata(err)...).
			Error("failed to install binary")
		return err
	}

	pterm.Success.Printfln("Installed %s %s (%s) to %s", res.Tool, res.Version, res.Target, res.Path)
	if !res.OnPath {
		slog.Warn("install directory is not on PATH", "dir", req.BinDir)
		pterm.Warning.Printfln("%s is not on your PATH", req.BinDir)
	}
	return nil
}

// spinnerReporter shows a spinner for each stage. A failed stage is only
// marked; the error itself is logged and returned by the command.
type spinnerReporter struct {
	w io.Writer
}

func (r spinnerReporter) Start(msg string) Step {
	spinner, _ := pterm.DefaultSpinner.WithWriter(r.w).Start(msg)
	return spinnerStep{spinner: spinner, msg: msg}
}

type spinnerStep struct {
	spinner *pterm.SpinnerPrinter
	msg     string
}

func (s spinnerStep) Done(err error) {
	if s.spinner == nil {
		return
	}
	if err != nil {
		s.spinner.Fail(s.msg)
		return
	}
	s.spinner.Success()
}
