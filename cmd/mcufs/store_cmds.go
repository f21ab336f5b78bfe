package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kjk/flatstore/flatfile"
	"github.com/kjk/flatstore/kv"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

// openStore opens a store file, reporting skipped lines as a warning
func openStore(cmd *cobra.Command, path string) (*flatfile.File, error) {
	f, err := flatfile.Open(path)
	var loadErr *flatfile.LoadError
	if errors.As(err, &loadErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", loadErr)
		return f, nil
	}
	return f, err
}

// openStoreForWrite is openStore for commands that save the file back.
// Saving would drop lines that failed to load so it's refused without --force.
func openStoreForWrite(cmd *cobra.Command, path string) (*flatfile.File, error) {
	f, err := flatfile.Open(path)
	var loadErr *flatfile.LoadError
	if !errors.As(err, &loadErr) {
		return f, err
	}
	if force, _ := cmd.Flags().GetBool("force"); !force {
		return nil, fmt.Errorf("%w\nnot saving: %d line(s) couldn't be loaded and would be lost, use --force to save anyway", loadErr, len(loadErr.Lines))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", loadErr)
	return f, nil
}

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys [file]",
		Short: "List keys in a store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openStore(cmd, args[0])
			if err != nil {
				return err
			}
			prefix, _ := cmd.Flags().GetString("prefix")
			keys := f.KeysFunc(func(k string) bool {
				return strings.HasPrefix(k, prefix)
			})
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	cmd.Flags().String("prefix", "", "only list keys starting with prefix")
	return cmd
}

func kindName(v kv.Value) string {
	if kv.IsList(v) {
		return "List<" + v.Kind().String() + ">"
	}
	return v.Kind().String()
}

func (a *app) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [file] [key]",
		Short: "Print the value of a key, one line per list element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openStore(cmd, args[0])
			if err != nil {
				return err
			}
			v, ok := f.Value(args[1])
			if !ok {
				return fmt.Errorf("key '%s' not found", args[1])
			}
			w := cmd.OutOrStdout()
			if showKind, _ := cmd.Flags().GetBool("kind"); showKind {
				fmt.Fprintln(w, kindName(v))
			}
			if l, ok := v.(kv.List); ok {
				for _, e := range l.All() {
					fmt.Fprintln(w, flatfile.FormatScalar(e))
				}
				return nil
			}
			fmt.Fprintln(w, flatfile.FormatScalar(v.(kv.Scalar)))
			return nil
		},
	}
	cmd.Flags().Bool("kind", false, "print kind of the value on the first line")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [file] [key] [kind] [value...]",
		Short: "Set a value, more than one value sets a list",
		Long: wrapString(`Set a value of a key. Kind is a kind name (String, Character,
Boolean, UUID, Byte, Short, Integer, Long, Float, Double) or its
one-letter type tag. With more than one value, or with --list, the
values are stored as a list.`),
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kv.ParseKind(args[2])
			if err != nil {
				return err
			}
			vals := args[3:]
			var elems []kv.Scalar
			for _, s := range vals {
				e, err := flatfile.ParseScalar(kind, s)
				if err != nil {
					return fmt.Errorf("invalid %s value '%s': %w", kind, s, err)
				}
				elems = append(elems, e)
			}
			f, err := openStoreForWrite(cmd, args[0])
			if err != nil {
				return err
			}
			asList, _ := cmd.Flags().GetBool("list")
			if asList || len(elems) > 1 {
				if err = f.SetList(args[1], elems...); err != nil {
					return err
				}
			} else {
				f.Set(args[1], elems[0])
			}
			return f.Save()
		},
	}
	cmd.Flags().Bool("list", false, "store a single value as a list")
	cmd.Flags().Bool("force", false, "save even if some lines couldn't be loaded")
	return cmd
}

func (a *app) delCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "del [file] [key...]",
		Short: "Remove keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openStoreForWrite(cmd, args[0])
			if err != nil {
				return err
			}
			for _, k := range args[1:] {
				if !f.Has(k) {
					fmt.Fprintf(cmd.ErrOrStderr(), "key '%s' not found\n", k)
				}
			}
			f.Remove(args[1:]...)
			return f.Save()
		},
	}
	cmd.Flags().Bool("force", false, "save even if some lines couldn't be loaded")
	return cmd
}

// toPlain converts v to a value that can be marshalled to JSON or toon.
// Infinite and NaN floats become strings.
func toPlain(v kv.Value) any {
	switch v := v.(type) {
	case kv.List:
		res := make([]any, v.Len())
		for i, e := range v.All() {
			res[i] = toPlain(e)
		}
		return res
	case kv.String:
		return string(v)
	case kv.Bool:
		return bool(v)
	case kv.Byte:
		return int64(v)
	case kv.Short:
		return int64(v)
	case kv.Int:
		return int64(v)
	case kv.Long:
		return int64(v)
	case kv.Float:
		if f := float64(v); math.IsInf(f, 0) || math.IsNaN(f) {
			return flatfile.FormatScalar(v)
		}
		return float64(v)
	case kv.Double:
		if f := float64(v); math.IsInf(f, 0) || math.IsNaN(f) {
			return flatfile.FormatScalar(v)
		}
		return float64(v)
	}
	// Char and UUID
	return flatfile.FormatScalar(v.(kv.Scalar))
}

func storeToMap(s *kv.Store) map[string]any {
	m := map[string]any{}
	for k, v := range s.All() {
		m[k] = toPlain(v)
	}
	return m
}

func dump(w io.Writer, s *kv.Store, asToon bool, color bool) error {
	m := storeToMap(s)
	if asToon {
		d, err := toon.Marshal(m)
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		if len(d) > 0 && d[len(d)-1] != '\n' {
			fmt.Fprintln(w)
		}
		return err
	}
	// json.Marshal sorts map keys
	d, err := json.Marshal(m)
	if err != nil {
		return err
	}
	d = pretty.Pretty(d)
	if color {
		d = pretty.Color(d, nil)
	}
	_, err = w.Write(d)
	return err
}

func (a *app) dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print all values as JSON or toon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openStore(cmd, args[0])
			if err != nil {
				return err
			}
			asToon, _ := cmd.Flags().GetBool("toon")
			color, _ := cmd.Flags().GetBool("color")
			return dump(cmd.OutOrStdout(), f.Store, asToon, color)
		},
	}
	cmd.Flags().Bool("toon", false, "print in toon format instead of JSON")
	cmd.Flags().Bool("color", false, "colorize JSON output")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Report lines that can't be decoded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flatfile.Open(args[0])
			var loadErr *flatfile.LoadError
			if err != nil && !errors.As(err, &loadErr) {
				return err
			}
			w := cmd.OutOrStdout()
			if loadErr == nil {
				fmt.Fprintf(w, "%s: ok, %d keys\n", f.Path(), f.Len())
				return nil
			}
			for _, le := range loadErr.Lines {
				fmt.Fprintf(w, "%s:%d: %s: %q\n", f.Path(), le.Line, le.Err, le.Text)
			}
			fmt.Fprintf(w, "%s: %d keys, %d lines skipped\n", f.Path(), f.Len(), len(loadErr.Lines))
			return errFailed
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [file...]",
		Short: "Load files and print load metrics in Prometheus format",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := openStore(cmd, path); err != nil {
					return err
				}
			}
			flatfile.WriteMetrics(cmd.OutOrStdout())
			return nil
		},
	}
}
