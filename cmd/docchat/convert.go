package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/memohai/docchat/internal/convert"
	"github.com/memohai/docchat/internal/logger"
	"github.com/memohai/docchat/internal/media"
)

func convertCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Convert a PDF into the XML document sent to the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

			data, err := readDocument(args[0], cfg.Conversion.MaxDocumentBytes)
			if err != nil {
				return err
			}
			pipeline := convert.NewPipeline(log,
				convert.NewPDFExtractor(cfg.Conversion.MaxDocumentBytes), nil, cfg.Conversion.Timeout())
			out, err := pipeline.ConvertPDF(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write XML to this file instead of stdout")
	return cmd
}

func readDocument(path string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = media.MaxFileBytes
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := media.ReadAllWithLimit(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
