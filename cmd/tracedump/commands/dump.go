package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tracelens/tracelens/format"
	"github.com/tracelens/tracelens/sink"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(infoCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump <stream-file>",
	Short: "Print every record in a trace stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStream(args[0], dumpStream)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <stream-file>",
	Short: "Summarize a trace stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStream(args[0], summarizeStream)
	},
}

func withStream(path string, fn func(*sink.StreamReader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := sink.NewStreamReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"file":        path,
		"compression": r.Compression(),
	}).Debug("Opened trace stream")

	return fn(r)
}

// attrNameID matches the bootstrap id of the "attr.name" attribute: node
// records carrying it define attribute names, which lets the dump label
// ids it has already seen.
const attrNameID = 0

func dumpStream(r *sink.StreamReader) error {
	names := make(map[uint64]string)

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch rec.Type {
		case format.RecordNode:
			id := rec.Nodes[0]
			if rec.Attrs[0] == attrNameID {
				names[id] = rec.Vals[0].Str()
			}

			parent := "-"
			if rec.Parent != sink.InvalidParent {
				parent = fmt.Sprintf("%d", rec.Parent)
			}
			fmt.Printf("node     id=%d attr=%s parent=%s data=%s\n",
				id, label(names, rec.Attrs[0]), parent, rec.Vals[0])
		default:
			var entries []string
			for _, id := range rec.Nodes {
				entries = append(entries, label(names, id))
			}
			for i, attr := range rec.Attrs {
				entries = append(entries, fmt.Sprintf("%s=%s", label(names, attr), rec.Vals[i]))
			}
			fmt.Printf("snapshot %s\n", strings.Join(entries, " "))
		}
	}
}

func label(names map[uint64]string, id uint64) string {
	if name, ok := names[id]; ok {
		return fmt.Sprintf("%s(%d)", name, id)
	}

	return fmt.Sprintf("%d", id)
}

func summarizeStream(r *sink.StreamReader) error {
	var nodes, snapshots int

	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if rec.Type == format.RecordNode {
			nodes++
		} else {
			snapshots++
		}
	}

	fmt.Printf("compression: %s\n", r.Compression())
	fmt.Printf("node records: %d\n", nodes)
	fmt.Printf("snapshot records: %d\n", snapshots)

	return nil
}
