package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"

	"github.com/rockstardevs/goofx/v2"
)

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
)

var _ pflag.Value = (*format)(nil)

func (f *format) String() string { return string(*f) }

func (f *format) Set(s string) error {
	switch v := format(strings.ToLower(s)); v {
	case formatJSON, formatYAML:
		*f = v
		return nil
	}
	return fmt.Errorf("unknown format %q, expected json or yaml", s)
}

func (f *format) Type() string { return "format" }

var (
	outputFormat = formatJSON
	colorOutput  bool
	treeOutput   bool
	headerOnly   bool
)

var rootCmd = &cobra.Command{
	Use:   "ofxdump [file]",
	Short: "Decode an OFX 1.x document and print it",
	Long: `Reads an OFX 1.x (SGML) document from file, or from standard input when no file or "-"
is given, decodes it and prints the result.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runDump,
}

func init() {
	rootCmd.Flags().VarP(&outputFormat, "format", "f", "output format, json or yaml")
	rootCmd.Flags().BoolVar(&colorOutput, "color", false, "colorize json output")
	rootCmd.Flags().BoolVar(&treeOutput, "tree", false, "print the element tree instead of the decoded document")
	rootCmd.Flags().BoolVar(&headerOnly, "header-only", false, "print only the document header")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	text, err := goofx.Transcode(data)
	if err != nil {
		return err
	}

	if treeOutput {
		_, body, err := goofx.ParseHeader(text)
		if err != nil {
			return err
		}
		root, err := goofx.ParseElement(text[body:])
		if err != nil {
			return err
		}
		return root.Dump(cmd.OutOrStdout())
	}

	var v interface{}
	if headerOnly {
		h, _, err := goofx.ParseHeader(text)
		if err != nil {
			return err
		}
		v = h
	} else {
		document, err := goofx.Parse(text)
		if err != nil {
			return err
		}
		glog.V(1).Infof("decoded %d transactions", len(document.Transactions()))
		v = document
	}
	return write(cmd.OutOrStdout(), v)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		glog.V(1).Info("reading document from stdin")
		return io.ReadAll(cmd.InOrStdin())
	}
	glog.V(1).Infof("reading document from %s", args[0])
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func write(w io.Writer, v interface{}) error {
	switch outputFormat {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		data = pretty.Pretty(data)
		if colorOutput {
			data = pretty.Color(data, nil)
		}
		_, err = w.Write(data)
		return err
	}
}
