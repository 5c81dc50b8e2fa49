package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mdkeep-go/internal/backup/transfer"
	"github.com/yndnr/mdkeep-go/internal/cli/connection"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"bak"},
		Usage:   "Backup management",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List backups, newest first",
				Action:  backupList,
			},
			{
				Name:  "create",
				Usage: "Create a backup of the current editor state",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "note",
						Usage: "Note stored with the backup",
					},
				},
				Action: backupCreate,
			},
			{
				Name:      "get",
				Usage:     "Show a backup",
				ArgsUsage: "ID",
				Action:    backupGet,
			},
			{
				Name:      "restore",
				Usage:     "Restore the editor state from a backup",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: backupRestore,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a backup",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: backupDelete,
			},
			{
				Name:  "export",
				Usage: "Export the current editor state to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Local directory to save the export in",
						Value: ".",
					},
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Write the export into the server's export directory instead",
					},
				},
				Action: backupExport,
			},
			{
				Name:   "exports",
				Usage:  "List export files in the server's export directory",
				Action: backupExports,
			},
			{
				Name:      "import",
				Usage:     "Replace the editor state with an export file",
				ArgsUsage: "FILE",
				Action:    backupImport,
			},
		},
	}
}

type listBackupsResult struct {
	Items []domain.IndexEntry `json:"items"`
	Total int                 `json:"total"`
}

type backupCreated struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

type backupDetail struct {
	ID       string          `json:"id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type backupAction struct {
	ID       string `json:"id"`
	Restored bool   `json:"restored,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

type exportList struct {
	Items []transfer.ExportFile `json:"items"`
	Total int                   `json:"total"`
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func backupList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(30 * time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/backups")
	if err != nil {
		return err
	}
	var result listBackupsResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if isTable(c) {
		if result.Total == 0 {
			fmt.Fprintln(stdout(c), "No backups.")
			return nil
		}
		return render(c, result.Items)
	}
	return render(c, result)
}

func backupCreate(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(time.Minute)
	defer cancel()

	var body any
	if c.IsSet("note") {
		body = map[string]string{"note": c.String("note")}
	}
	resp, err := client.Post(ctx, "/backups", body)
	if err != nil {
		return err
	}
	var result backupCreated
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if isTable(c) {
		fmt.Fprintf(stdout(c), "Backup created: %s (%s)\n", result.ID, result.Note)
		return nil
	}
	return render(c, result)
}

func backupGet(c *cli.Context) error {
	id, err := requireArg(c, "ID")
	if err != nil {
		return err
	}
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(30 * time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/backups/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	var result backupDetail
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if !isTable(c) {
		return render(c, result)
	}

	s := result.Snapshot
	w := stdout(c)
	fmt.Fprintf(w, "ID:        %s\n", result.ID)
	fmt.Fprintf(w, "Time:      %s\n", s.BackupTime)
	fmt.Fprintf(w, "Version:   %s\n", s.BackupVersion)
	fmt.Fprintf(w, "Documents: %d\n", len(s.Documents))
	for _, d := range s.Documents {
		fmt.Fprintf(w, "  - %s (%d history entries)\n", d.Title, len(d.History))
	}
	if s.StyleConfig != nil {
		fmt.Fprintf(w, "Styles:    %d (active: %s)\n", len(s.StyleConfig.Tabs), s.StyleConfig.Active)
	}
	if s.Settings != nil {
		fmt.Fprintf(w, "Theme:     %s\n", s.Settings.Theme)
	}
	return nil
}

func backupRestore(c *cli.Context) error {
	id, err := requireArg(c, "ID")
	if err != nil {
		return err
	}
	if !c.Bool("force") {
		ok, err := confirm(c, fmt.Sprintf("Replace the current editor state with backup %s?", id))
		if err != nil || !ok {
			return err
		}
	}
	return backupAct(c, http.MethodPost, "/backups/"+url.PathEscape(id)+"/restore", "Restored backup %s\n")
}

func backupDelete(c *cli.Context) error {
	id, err := requireArg(c, "ID")
	if err != nil {
		return err
	}
	if !c.Bool("force") {
		ok, err := confirm(c, fmt.Sprintf("Delete backup %s?", id))
		if err != nil || !ok {
			return err
		}
	}
	return backupAct(c, http.MethodDelete, "/backups/"+url.PathEscape(id), "Deleted backup %s\n")
}

func backupAct(c *cli.Context, method, path, done string) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(time.Minute)
	defer cancel()

	var resp *http.Response
	if method == http.MethodDelete {
		resp, err = client.Delete(ctx, path)
	} else {
		resp, err = client.Post(ctx, path, nil)
	}
	if err != nil {
		return err
	}
	var result backupAction
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if isTable(c) {
		fmt.Fprintf(stdout(c), done, result.ID)
		return nil
	}
	return render(c, result)
}

func backupExport(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(5 * time.Minute)
	defer cancel()

	if c.Bool("remote") {
		resp, err := client.Post(ctx, "/exports", nil)
		if err != nil {
			return err
		}
		var result struct {
			Path string `json:"path"`
		}
		if err := connection.ParseResponse(resp, &result); err != nil {
			return err
		}
		if isTable(c) {
			fmt.Fprintf(stdout(c), "Exported on server: %s\n", result.Path)
			return nil
		}
		return render(c, result)
	}

	body, name, err := client.Download(ctx, "/export")
	if err != nil {
		return err
	}
	defer body.Close()

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = transfer.Filename(time.Now())
	}
	dir := c.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	if isTable(c) {
		fmt.Fprintf(stdout(c), "Exported to %s\n", path)
		return nil
	}
	return render(c, map[string]string{"path": path})
}

func backupExports(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(30 * time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/exports")
	if err != nil {
		return err
	}
	var result exportList
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if isTable(c) {
		if result.Total == 0 {
			fmt.Fprintln(stdout(c), "No exports.")
			return nil
		}
		return render(c, result.Items)
	}
	return render(c, result)
}

// errImportRejected is returned when the server refused an import file.
var errImportRejected = errors.New("import rejected: the file is not a valid export")

// errImportExt is returned for import files without the export extension.
var errImportExt = errors.New("only " + transfer.FileExt + " files can be imported")

func backupImport(c *cli.Context) error {
	path, err := requireArg(c, "FILE")
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), transfer.FileExt) {
		return fmt.Errorf("%w: %s", errImportExt, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(5 * time.Minute)
	defer cancel()

	resp, err := client.PostRaw(ctx, "/import", f, "application/json")
	if err != nil {
		return err
	}
	var result struct {
		Imported bool `json:"imported"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	if !result.Imported {
		return errImportRejected
	}

	if isTable(c) {
		fmt.Fprintf(stdout(c), "Imported %s\n", path)
		return nil
	}
	return render(c, result)
}

func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return arg, nil
}

// confirm asks a yes/no question on the app's reader. Anything but
// y or yes declines.
func confirm(c *cli.Context, question string) (bool, error) {
	var in io.Reader = os.Stdin
	if c.App != nil && c.App.Reader != nil {
		in = c.App.Reader
	}
	fmt.Fprintf(stdout(c), "%s [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		fmt.Fprintln(stdout(c), "Aborted.")
		return false, nil
	}
}
