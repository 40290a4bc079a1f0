package imagecmder

import (
	"context"
	"fmt"
	"mime"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cortex/cmd/cortex/bootstrap"
	"github.com/papercomputeco/cortex/pkg/image"
)

const imageLongDesc string = `Generate an image from a description.

The image is fetched from the configured text-to-image endpoint with a
fresh random seed and written to a file. With --url-only nothing is
fetched; the URL is printed instead.

Examples:
  cortex image a red fox in the snow
  cortex image -o fox.jpg --width 768 --height 512 a red fox
  cortex image --url-only a lighthouse at dusk`

const imageShortDesc string = "Generate an image"

type imageCommander struct {
	output  string
	width   int
	height  int
	urlOnly bool
}

func NewImageCmd() *cobra.Command {
	cmder := &imageCommander{}

	cmd := &cobra.Command{
		Use:   "image <description...>",
		Short: imageShortDesc,
		Long:  imageLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "File to write (default image-<seed>.<ext>)")
	cmd.Flags().IntVar(&cmder.width, "width", 0, "Image width (default image.width)")
	cmd.Flags().IntVar(&cmder.height, "height", 0, "Image height (default image.height)")
	cmd.Flags().BoolVar(&cmder.urlOnly, "url-only", false, "Print the image URL without fetching it")

	return cmd
}

func (c *imageCommander) run(ctx context.Context, cmd *cobra.Command, description string) error {
	cfg, err := bootstrap.Load(cmd)
	if err != nil {
		return err
	}

	log, err := bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	panel := image.NewPanel(bootstrap.ImageConfig(cfg), log)
	req := image.Request{Description: description, Width: c.width, Height: c.height}

	if c.urlOnly {
		url, _, err := panel.NewURL(req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	}

	img, err := panel.Generate(ctx, req)
	if err != nil {
		return err
	}

	path := c.output
	if path == "" {
		path = fmt.Sprintf("image-%d%s", img.Seed, extensionFor(img.ContentType))
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, seed %d)\n%s\n", path, len(img.Data), img.Seed, img.URL)
	return nil
}

// extensionFor picks a file extension for an image content type.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".img"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".img"
}
