// Command cvrender validates and renders CV documents stored as JSON files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cv-studio/internal/model"
	"cv-studio/internal/usecase"
	"cv-studio/pkg/i18n"
	infra "cv-studio/pkg/infrastructure"

	"github.com/spf13/cobra"
)

var errInvalid = errors.New("document has validation errors")

type renderOpts struct {
	template string
	lang     string
	name     string
	title    string
	photo    string
	out      string
	pdf      bool
	chrome   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cvrender",
		Short:        "Validate and render CV documents",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd(), newRenderCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file.json]",
		Short: "Report field errors of a CV document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			errs, err := model.Validate(doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if errs.Valid() {
				fmt.Fprintln(out, "ok")
				return nil
			}
			for _, f := range errs.Fields() {
				fmt.Fprintf(out, "%s: %s\n", f, errs[f])
			}
			return errInvalid
		},
	}
}

func newRenderCmd() *cobra.Command {
	var o renderOpts
	cmd := &cobra.Command{
		Use:   "render [file.json]",
		Short: "Render a CV document to HTML or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), args[0], o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.template, "template", "t", string(usecase.Classic), "template style: classic, modern or ats")
	f.StringVarP(&o.lang, "lang", "l", i18n.DefaultLanguage, "label language")
	f.StringVar(&o.name, "name", "", "display name")
	f.StringVar(&o.title, "title", "", "headline under the name")
	f.StringVar(&o.photo, "photo", "", "photo URL")
	f.StringVarP(&o.out, "out", "o", "", "output file (stdout when empty)")
	f.BoolVar(&o.pdf, "pdf", false, "print to PDF with headless Chrome")
	f.StringVar(&o.chrome, "chrome", os.Getenv("CHROME_PATH"), "Chrome binary for --pdf")
	return cmd
}

func runRender(ctx context.Context, stdout io.Writer, path string, o renderOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	style, err := usecase.ParseTemplateStyle(o.template)
	if err != nil {
		return err
	}
	rc := usecase.RenderContext{DisplayName: o.name, Title: o.title, PhotoURL: o.photo, Style: style, Lang: o.lang}
	html, err := usecase.Render(doc, rc, i18n.Default().Localizer(o.lang))
	if err != nil {
		return err
	}

	data := []byte(html)
	if o.pdf {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if data, err = infra.NewChromedpRenderer(o.chrome).RenderHTMLToPDF(pctx, html); err != nil {
			return err
		}
	}

	if o.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(o.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", o.out)
	return nil
}

func readDocument(path string) (*model.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc model.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}
