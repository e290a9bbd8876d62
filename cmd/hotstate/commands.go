package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/reactive"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hotstate",
		Short:         "Inspect and replay live state snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("use-number", false, "decode numbers as json.Number")
	root.AddCommand(newInspectCmd(), newKeysCmd(), newReviveCmd())
	return root
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot|->",
		Short: "Print one line per snapshot entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, entry := range entries {
				fmt.Fprintln(out, describeEntry(i, entry))
			}
			return nil
		},
	}
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <snapshot|->",
		Short: "Print the top-level keys of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadSnapshot(cmd, args[0])
			if err != nil {
				return err
			}
			for _, key := range entries.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newReviveCmd() *cobra.Command {
	var (
		into      string
		withTrace bool
	)
	cmd := &cobra.Command{
		Use:   "revive <snapshot|->",
		Short: "Revive a snapshot onto a JSON object and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadSnapshot(cmd, args[0])
			if err != nil {
				return err
			}

			var dest map[string]any
			if err := json.Unmarshal([]byte(into), &dest); err != nil {
				return fmt.Errorf("--into: %w", err)
			}
			if dest == nil {
				return fmt.Errorf("--into: expected a JSON object")
			}
			dest = liveObject(dest)

			trace, err := hotstate.ReviveWithTrace(dest, entries)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if !withTrace {
				return enc.Encode(plainValue(dest))
			}
			return enc.Encode(map[string]any{
				"state": plainValue(dest),
				"trace": trace,
			})
		},
	}
	cmd.Flags().StringVar(&into, "into", "{}", "JSON object to revive onto")
	cmd.Flags().BoolVar(&withTrace, "trace", false, "include the decision trace")
	return cmd
}

func loadSnapshot(cmd *cobra.Command, source string) (hotstate.Entries, error) {
	var r io.Reader
	if source == "-" {
		r = cmd.InOrStdin()
	} else {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	var opts []hotstate.DecodeOption
	if useNumber, _ := cmd.Flags().GetBool("use-number"); useNumber {
		opts = append(opts, hotstate.WithUseNumber())
	}
	return hotstate.DecodeEntries(r, opts...)
}

func describeEntry(index int, entry hotstate.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\t%s", index, entry.Tag)

	switch entry.Tag {
	case hotstate.TagRoot, hotstate.TagObject:
		parts := make([]string, 0, len(entry.Fields))
		for _, key := range sortedKeys(entry.Fields) {
			parts = append(parts, fmt.Sprintf("%s=%d", key, entry.Fields[key]))
		}
		fmt.Fprintf(&b, "\t{%s}", strings.Join(parts, " "))
	case hotstate.TagArray:
		fmt.Fprintf(&b, "\t%v", entry.Items)
	case hotstate.TagCell:
		fmt.Fprintf(&b, "\t-> %d", entry.Target)
	case hotstate.TagValue:
		payload, err := json.Marshal(entry.Value)
		if err != nil {
			payload = []byte(fmt.Sprint(entry.Value))
		}
		fmt.Fprintf(&b, "\t%s", payload)
	}

	if len(entry.Paths) > 0 {
		paths := make([]string, len(entry.Paths))
		for i, path := range entry.Paths {
			paths[i] = path.String()
		}
		fmt.Fprintf(&b, "\t@ %s", strings.Join(paths, ", "))
	}
	return b.String()
}

// liveObject turns decoded JSON arrays into the *[]any form revive fills in
// place.
func liveObject(object map[string]any) map[string]any {
	for key, value := range object {
		object[key] = liveValue(value)
	}
	return object
}

func liveValue(value any) any {
	switch v := value.(type) {
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = liveValue(item)
		}
		return &items
	case map[string]any:
		return liveObject(v)
	default:
		return value
	}
}

// plainValue unwraps cells for printing. Revived state can be cyclic, so
// cells and containers already on the current path print as null.
func plainValue(value any) any {
	return plain(value, make(map[any]bool))
}

func plain(value any, active map[any]bool) any {
	switch v := value.(type) {
	case reactive.Readable:
		id := fmt.Sprintf("cell:%p", v)
		if active[id] {
			return nil
		}
		active[id] = true
		defer delete(active, id)
		return plain(v.Get(), active)
	case *[]any:
		if v == nil || active[v] {
			return nil
		}
		active[v] = true
		defer delete(active, v)
		out := make([]any, len(*v))
		for i, item := range *v {
			out[i] = plain(item, active)
		}
		return out
	case map[string]any:
		id := fmt.Sprintf("object:%p", v)
		if active[id] {
			return nil
		}
		active[id] = true
		defer delete(active, id)
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plain(item, active)
		}
		return out
	default:
		if hotstate.DefaultClassifier(value) == hotstate.KindCallable {
			return nil
		}
		return value
	}
}

func sortedKeys(fields map[string]int) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
