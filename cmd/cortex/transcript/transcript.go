package transcriptcmder

import (
	"github.com/spf13/cobra"
)

const transcriptLongDesc string = `Work with the transcript archive.

Every completed chat turn is archived as a chain of content-addressed
messages. Identical conversation prefixes share nodes, so archives can
be merged or uploaded without creating duplicates.`

const transcriptShortDesc string = "Manage the transcript archive"

func NewTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: transcriptShortDesc,
		Long:  transcriptLongDesc,
	}

	cmd.AddCommand(NewPushCmd())
	cmd.AddCommand(NewMergeCmd())

	return cmd
}
