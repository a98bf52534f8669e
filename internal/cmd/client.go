package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/keybridge/apiclient"
	"github.com/Alia5/keybridge/apitypes"
)

// ClientOptions locate a running keybridge server.
type ClientOptions struct {
	Addr     string        `help:"keybridge API address" default:"localhost:3243" env:"KEYBRIDGE_ADDR"`
	Password string        `help:"API password; defaults to the key file in the config dir" env:"KEYBRIDGE_API_PASSWORD"`
	Timeout  time.Duration `help:"Request timeout" default:"5s" env:"KEYBRIDGE_TIMEOUT"`
}

func (o ClientOptions) client() *apiclient.Client {
	pwd := o.Password
	if pwd == "" {
		pwd = readKeyFile()
	}
	return apiclient.NewWithConfig(o.Addr, &apiclient.Config{
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
		Password:     pwd,
	})
}

func (o ClientOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.Timeout)
}

// printJSON writes v indented to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Type types text on the remote keyboard.
type Type struct {
	ClientOptions `embed:""`
	Text          []string `arg:"" help:"Text to type; arguments are joined with spaces"`
}

func (c *Type) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	res, err := c.client().KeyboardType(ctx, strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	fmt.Printf("typed %d characters\n", res.Typed)
	if len(res.Skipped) > 0 {
		fmt.Printf("skipped (not in layout): %s\n", strings.Join(res.Skipped, " "))
	}
	return nil
}

// Layouts lists layouts, or switches the active one when a name is given.
type Layouts struct {
	ClientOptions `embed:""`
	Set           string `arg:"" optional:"" help:"Layout to activate"`
}

func (c *Layouts) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	cl := c.client()
	if c.Set != "" {
		res, err := cl.LayoutSet(ctx, c.Set)
		if err != nil {
			return err
		}
		if res.Fallback {
			fmt.Printf("unknown layout %q, using %s\n", c.Set, res.Active)
			return nil
		}
		fmt.Printf("active layout: %s\n", res.Active)
		return nil
	}
	res, err := cl.LayoutList(ctx)
	if err != nil {
		return err
	}
	for _, l := range res.Layouts {
		mark := " "
		if l.Name == res.Active {
			mark = "*"
		}
		fmt.Printf("%s %-8s %s\n", mark, l.Name, l.DisplayName)
	}
	return nil
}

// MacroCommand groups macro subcommands.
type MacroCommand struct {
	List   MacroList   `cmd:"" help:"List stored macros"`
	Save   MacroSave   `cmd:"" help:"Store a macro read from a json, yaml or toml file"`
	Remove MacroRemove `cmd:"" help:"Delete a macro"`
	Play   MacroPlay   `cmd:"" help:"Play a stored macro"`
	Cancel MacroCancel `cmd:"" help:"Stop the playing macro"`
}

type MacroList struct {
	ClientOptions `embed:""`
}

func (c *MacroList) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	res, err := c.client().MacroList(ctx)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, res.Macros)
}

type MacroSave struct {
	ClientOptions `embed:""`
	File          string `arg:"" type:"existingfile" help:"Macro definition file"`
}

func (c *MacroSave) Run() error {
	m, err := readMacroFile(c.File)
	if err != nil {
		return err
	}
	ctx, cancel := c.context()
	defer cancel()
	saved, err := c.client().MacroSave(ctx, m)
	if err != nil {
		return err
	}
	fmt.Printf("saved macro %q as %s\n", saved.Name, saved.ID)
	return nil
}

// readMacroFile decodes one macro in the format given by the extension.
func readMacroFile(path string) (apitypes.Macro, error) {
	var m apitypes.Macro
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return m, fmt.Errorf("unsupported macro file %s", path)
	}
	if err != nil {
		return m, fmt.Errorf("parse %s: %w", path, err)
	}
	// Round-trip through JSON so every format shares the apitypes field names.
	b, err := json.Marshal(doc)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

type MacroRemove struct {
	ClientOptions `embed:""`
	ID            string `arg:"" help:"Macro id"`
}

func (c *MacroRemove) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	if _, err := c.client().MacroRemove(ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", c.ID)
	return nil
}

type MacroPlay struct {
	ClientOptions `embed:""`
	ID            string `arg:"" help:"Macro id"`
}

func (c *MacroPlay) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	res, err := c.client().MacroPlay(ctx, c.ID)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		fmt.Printf("playing %s (warning: %s)\n", res.ID, res.Warning)
		return nil
	}
	fmt.Printf("playing %s\n", res.ID)
	return nil
}

type MacroCancel struct {
	ClientOptions `embed:""`
}

func (c *MacroCancel) Run() error {
	ctx, cancel := c.context()
	defer cancel()
	return c.client().MacroCancel(ctx)
}
